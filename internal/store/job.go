package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/podforge/podforge-api/internal/domain"
)

// JobStore defines the interface for job record persistence.
//
// The store is deliberately dumb: it persists whole records and performs
// point lookups. All state-machine rules (legal transitions, monotonic
// progress, append-only logs) are enforced by the status manager, which is
// the only writer. The store must tolerate concurrent writes to different
// job IDs without corruption; it never sees concurrent writes to the same
// ID because the scheduler admits at most one execution per job.
type JobStore interface {
	// Create saves a new job record.
	// Returns ErrJobExists if a record with the same ID already exists.
	Create(ctx context.Context, job *domain.Job) error

	// GetByID retrieves a job by its unique ID.
	// Returns ErrJobNotFound if the job does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error)

	// Update overwrites the mutable fields of an existing job record.
	// Returns ErrJobNotFound if the job does not exist.
	Update(ctx context.Context, job *domain.Job) error

	// Delete removes a job record. This is the explicit cleanup hook; the
	// orchestration core never deletes records on its own.
	// Returns ErrJobNotFound if the job does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListUnfinished retrieves every job that is not in a terminal state.
	// Used at startup to mark jobs orphaned by a crash.
	ListUnfinished(ctx context.Context) ([]*domain.Job, error)
}
