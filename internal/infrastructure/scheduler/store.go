package scheduler

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// JobFilter selects jobs. Empty fields match everything.
type JobFilter struct {
	Channel string
	State   JobState
	Limit   int
}

// JobStore persists job state so running jobs can be observed, including by
// other processes when the store is shared
type JobStore interface {
	Save(ctx context.Context, job *Job) error
	Get(ctx context.Context, id uuid.UUID) (*Job, error)
	List(ctx context.Context, filter JobFilter) ([]*Job, error)
	CountByChannelAndState(ctx context.Context, channel string, state JobState) (int, error)
}

// MemoryJobStore keeps jobs in process memory
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job
}

// NewMemoryJobStore creates an empty store
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[uuid.UUID]*Job)}
}

// Save stores a copy of the job
func (s *MemoryJobStore) Save(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job.Clone()
	return nil
}

// Get returns a copy of the job or ErrJobNotFound
func (s *MemoryJobStore) Get(_ context.Context, id uuid.UUID) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.Clone(), nil
}

// List returns matching jobs, most recently enqueued first
func (s *MemoryJobStore) List(_ context.Context, filter JobFilter) ([]*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Job
	for _, job := range s.jobs {
		if filter.Channel != "" && job.Channel != filter.Channel {
			continue
		}
		if filter.State != "" && job.State != filter.State {
			continue
		}
		out = append(out, job.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EnqueuedAt.After(out[j].EnqueuedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// CountByChannelAndState counts jobs in a state on a channel
func (s *MemoryJobStore) CountByChannelAndState(_ context.Context, channel string, state JobState) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, job := range s.jobs {
		if job.Channel == channel && job.State == state {
			n++
		}
	}
	return n, nil
}

var _ JobStore = (*MemoryJobStore)(nil)
