package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/emojimake/videokit/internal/model"
)

// Orchestrator is the single capability surface the presentation layers
// adapt: submit a generation request, poll its job, cancel the poll. The
// three original front-ends each reimplemented this; they are now thin
// renderers of its transitions.
type Orchestrator struct {
	videos    *VideoService
	interval  time.Duration
	maxCycles int
	logger    zerolog.Logger

	mu      sync.Mutex
	pollers map[string]*Poller
}

// NewOrchestrator creates an orchestrator polling at the given cadence.
func NewOrchestrator(videos *VideoService, interval time.Duration, maxCycles int, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		videos:    videos,
		interval:  interval,
		maxCycles: maxCycles,
		logger:    logger,
		pollers:   make(map[string]*Poller),
	}
}

// Submit validates and submits a generation request, returning the job id.
func (o *Orchestrator) Submit(ctx context.Context, req model.GenerationRequest) (string, error) {
	return o.videos.Submit(ctx, req)
}

// Poll starts a poll chain for jobID. At most one chain runs per job id;
// chains for distinct jobs are independent and share only session state.
func (o *Orchestrator) Poll(ctx context.Context, jobID string) (<-chan Transition, error) {
	o.mu.Lock()
	if p, ok := o.pollers[jobID]; ok && p.State() == PollPolling {
		o.mu.Unlock()
		return nil, fmt.Errorf("job %s is already being polled", jobID)
	}
	p := NewPoller(o.videos, o.interval, o.maxCycles, o.logger)
	o.pollers[jobID] = p
	o.mu.Unlock()

	return p.Start(ctx, jobID)
}

// Cancel stops the poll chain for jobID, if one is running. Idempotent.
func (o *Orchestrator) Cancel(jobID string) {
	o.mu.Lock()
	p, ok := o.pollers[jobID]
	if ok {
		delete(o.pollers, jobID)
	}
	o.mu.Unlock()

	if ok {
		p.Cancel()
	}
}
