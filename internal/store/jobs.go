package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/emojimake/videokit/internal/model"
)

// ErrJobNotFound is returned when a job id has no record.
var ErrJobNotFound = errors.New("job not found")

const jobTTL = 24 * time.Hour

// JobRecord is the dev server's view of one generation job. Script holds
// the statuses still to be served; each status query consumes one, so the
// progression a polling client observes is deterministic.
type JobRecord struct {
	ID           string             `json:"job_id"`
	Status       model.TaskStatus   `json:"status"`
	VideoURL     string             `json:"video_url,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty"`
	Script       []model.TaskStatus `json:"script,omitempty"`
}

// JobStore keeps job records in Redis.
type JobStore struct {
	rdb *redis.Client
}

// NewJobStore creates a job store.
func NewJobStore(rdb *redis.Client) *JobStore {
	return &JobStore{rdb: rdb}
}

// Create saves a new job record.
func (s *JobStore) Create(ctx context.Context, job *JobRecord) error {
	return s.save(ctx, job)
}

// Advance consumes the next scripted status and returns the updated
// record. Once the script is exhausted the record stays at its final
// status.
func (s *JobStore) Advance(ctx context.Context, jobID string) (*JobRecord, error) {
	job, err := s.get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if len(job.Script) > 0 {
		job.Status = job.Script[0]
		job.Script = job.Script[1:]
		if err := s.save(ctx, job); err != nil {
			return nil, err
		}
	}
	return job, nil
}

func (s *JobStore) save(ctx context.Context, job *JobRecord) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, fmt.Sprintf("job:%s", job.ID), data, jobTTL).Err()
}

func (s *JobStore) get(ctx context.Context, jobID string) (*JobRecord, error) {
	data, err := s.rdb.Get(ctx, fmt.Sprintf("job:%s", jobID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	var job JobRecord
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
