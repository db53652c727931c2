package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/podforge/podforge-api/internal/domain"
)

// MemoryJobStore is an in-memory JobStore implementation guarded by a
// read-write mutex. It backs unit tests and database-less development runs;
// it provides the same per-key safety guarantees as the durable store but
// no persistence across restarts.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*domain.Job
}

// NewMemoryJobStore creates an empty in-memory job store.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{
		jobs: make(map[uuid.UUID]*domain.Job),
	}
}

// Ensure MemoryJobStore implements the JobStore interface.
var _ JobStore = (*MemoryJobStore)(nil)

// Create implements JobStore.Create.
func (s *MemoryJobStore) Create(ctx context.Context, job *domain.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return ErrJobExists
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

// GetByID implements JobStore.GetByID.
func (s *MemoryJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.Clone(), nil
}

// Update implements JobStore.Update.
func (s *MemoryJobStore) Update(ctx context.Context, job *domain.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; !ok {
		return ErrJobNotFound
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

// Delete implements JobStore.Delete.
func (s *MemoryJobStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return ErrJobNotFound
	}
	delete(s.jobs, id)
	return nil
}

// ListUnfinished implements JobStore.ListUnfinished.
func (s *MemoryJobStore) ListUnfinished(ctx context.Context) ([]*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	unfinished := []*domain.Job{}
	for _, job := range s.jobs {
		if !job.Status.IsTerminal() {
			unfinished = append(unfinished, job.Clone())
		}
	}
	return unfinished, nil
}
