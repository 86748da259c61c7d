package jobs

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used in dev mode and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Job
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Job)}
}

// Create stores a new job.
func (s *MemoryStore) Create(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[job.ID]; exists {
		return ErrDuplicateID
	}
	s.data[job.ID] = job
	return nil
}

// Get returns a job by id.
func (s *MemoryStore) Get(ctx context.Context, id string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.data[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return job, nil
}

// Update applies the mutator under the store lock. Terminal jobs are left
// untouched and ErrTerminal is returned.
func (s *MemoryStore) Update(ctx context.Context, id string, mutate func(*Job) error) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.data[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	if job.Status.Terminal() {
		return job, ErrTerminal
	}
	if err := mutate(&job); err != nil {
		return job, err
	}
	job.UpdatedAt = time.Now().UTC()
	s.data[id] = job
	return job, nil
}

// ListStalled returns queued and processing jobs not updated within staleFor.
func (s *MemoryStore) ListStalled(ctx context.Context, staleFor time.Duration) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cutoff := time.Now().UTC().Add(-staleFor)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stalled []Job
	for _, job := range s.data {
		if !job.Status.Terminal() && job.UpdatedAt.Before(cutoff) {
			stalled = append(stalled, job)
		}
	}
	return stalled, nil
}

// Reap removes jobs created before the retention cutoff.
func (s *MemoryStore) Reap(ctx context.Context, olderThan time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, job := range s.data {
		if job.CreatedAt.Before(cutoff) {
			delete(s.data, id)
			removed++
		}
	}
	return removed, nil
}

var _ Store = (*MemoryStore)(nil)
