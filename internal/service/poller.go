package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/emojimake/videokit/internal/apierr"
	"github.com/emojimake/videokit/internal/model"
)

// PollState is the poller's lifecycle state. The last four are terminal.
type PollState string

const (
	PollIdle      PollState = "idle"
	PollPolling   PollState = "polling"
	PollSucceeded PollState = "succeeded"
	PollFailed    PollState = "failed"
	PollTimedOut  PollState = "timed_out"
	PollErrored   PollState = "errored"
)

// Transition is one observed step of a poll chain.
type Transition struct {
	State PollState
	Job   *model.Job // last status read, when one was obtained
	Err   error      // set for Errored and TimedOut
	Cycle int
}

// StatusQuerier reads the current status of a job. The video service
// satisfies it; tests substitute fakes.
type StatusQuerier interface {
	QueryJob(ctx context.Context, jobID string) (*model.Job, error)
}

// ErrPollerStarted is returned when Start is called twice.
var ErrPollerStarted = errors.New("poller already started")

// Poller drives one job from submission to a terminal outcome: a single
// sequential chain of query → delay → query, never two queries in flight.
// There is no retry on error; only the fixed inter-poll delay governs
// cadence, and a hard cycle ceiling bounds abandoned jobs.
type Poller struct {
	querier   StatusQuerier
	interval  time.Duration
	maxCycles int
	logger    zerolog.Logger

	mu     sync.Mutex
	state  PollState
	cancel context.CancelFunc
	events chan Transition
}

// NewPoller creates an idle poller.
func NewPoller(querier StatusQuerier, interval time.Duration, maxCycles int, logger zerolog.Logger) *Poller {
	return &Poller{
		querier:   querier,
		interval:  interval,
		maxCycles: maxCycles,
		logger:    logger,
		state:     PollIdle,
	}
}

// State returns the current lifecycle state.
func (p *Poller) State() PollState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Start transitions Idle→Polling and begins the query cycle. Transitions
// are delivered on the returned channel, which is closed when the chain
// ends. The channel is buffered for the whole chain so a slow consumer
// never stalls polling.
func (p *Poller) Start(ctx context.Context, jobID string) (<-chan Transition, error) {
	p.mu.Lock()
	if p.state != PollIdle {
		p.mu.Unlock()
		return nil, ErrPollerStarted
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.state = PollPolling
	p.events = make(chan Transition, p.maxCycles+1)
	events := p.events
	p.mu.Unlock()

	go p.run(ctx, jobID)
	return events, nil
}

// Cancel stops a polling chain and returns the poller to Idle without a
// terminal transition. It is idempotent, and a response already in flight
// when Cancel is called will not mutate state afterwards.
func (p *Poller) Cancel() {
	p.mu.Lock()
	if p.state != PollPolling {
		p.mu.Unlock()
		return
	}
	p.state = PollIdle
	cancel := p.cancel
	p.mu.Unlock()

	cancel()
}

func (p *Poller) run(ctx context.Context, jobID string) {
	defer close(p.events)

	for cycle := 1; cycle <= p.maxCycles; cycle++ {
		job, err := p.querier.QueryJob(ctx, jobID)
		if ctx.Err() != nil {
			// Cancelled while the query was in flight; the response must
			// not be acted on.
			return
		}

		if err != nil {
			p.logger.Warn().Str("job_id", jobID).Int("cycle", cycle).Err(err).Msg("poll failed")
			p.finish(Transition{State: PollErrored, Err: err, Cycle: cycle})
			return
		}

		p.logger.Debug().
			Str("job_id", jobID).
			Int("cycle", cycle).
			Str("status", string(job.Status)).
			Msg("poll")

		switch {
		case job.Status == model.StatusSucceeded:
			p.finish(Transition{State: PollSucceeded, Job: job, Cycle: cycle})
			return
		case job.Status == model.StatusFailed:
			if job.ErrorMessage == "" {
				job.ErrorMessage = "video generation failed"
			}
			p.finish(Transition{State: PollFailed, Job: job, Cycle: cycle})
			return
		case job.Status.InFlight():
			p.emit(Transition{State: PollPolling, Job: job, Cycle: cycle})
		default:
			// Unrecognized status is unrecoverable, not retried.
			p.finish(Transition{
				State: PollErrored,
				Job:   job,
				Err:   apierr.ServerMessage(fmt.Sprintf("unrecognized job status %q", job.Status)),
				Cycle: cycle,
			})
			return
		}

		if cycle == p.maxCycles {
			break
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(p.interval):
		}
	}

	p.finish(Transition{
		State: PollTimedOut,
		Err:   apierr.Timeout(fmt.Sprintf("no terminal status after %d cycles", p.maxCycles)),
		Cycle: p.maxCycles,
	})
}

// finish applies a terminal transition unless the poller was cancelled
// in the meantime.
func (p *Poller) finish(t Transition) {
	p.mu.Lock()
	if p.state != PollPolling {
		p.mu.Unlock()
		return
	}
	p.state = t.State
	p.mu.Unlock()

	p.events <- t
}

// emit delivers a non-terminal transition unless the poller was cancelled.
func (p *Poller) emit(t Transition) {
	p.mu.Lock()
	if p.state != PollPolling {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.events <- t
}
