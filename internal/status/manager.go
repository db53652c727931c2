package status

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/podforge/podforge-api/internal/domain"
	"github.com/podforge/podforge-api/internal/store"
)

// Manager mediates all reads and writes of job records and enforces the
// pipeline state machine on every update.
//
// The manager performs unsynchronized read-modify-write cycles on job
// records. That is safe because the scheduler guarantees at most one
// execution context per job ID; the only concurrent access pattern is
// read-only polling, which the store serves from committed snapshots.
type Manager struct {
	store  store.JobStore
	logger *slog.Logger
}

// NewManager creates a status manager over the given job store.
// If logger is nil, the process default is used.
func NewManager(jobStore store.JobStore, logger *slog.Logger) *Manager {
	if jobStore == nil {
		panic("jobStore cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		store:  jobStore,
		logger: logger.With(slog.String("component", "status_manager")),
	}
}

// CreateJob writes the initial queued record for a new job.
// Returns store.ErrJobExists if the ID is already taken.
func (m *Manager) CreateJob(ctx context.Context, id uuid.UUID, params json.RawMessage) (*domain.Job, error) {
	job, err := domain.NewJob(id, params)
	if err != nil {
		return nil, err
	}

	job.Logs = append(job.Logs, logEntry("job created"))

	if err := m.store.Create(ctx, job); err != nil {
		return nil, err
	}

	m.logger.Info("job created",
		slog.String("job_id", id.String()),
		slog.String("status", string(job.Status)))
	return job, nil
}

// Get returns a snapshot of the job reflecting the most recently committed
// update. Returns store.ErrJobNotFound for unknown IDs.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	return m.store.GetByID(ctx, id)
}

// Delete removes a job record. Cleanup is an explicit external operation;
// nothing in the orchestration core calls this on its own.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	return m.store.Delete(ctx, id)
}

// UpdateStatus advances a job to the next non-terminal pipeline state with a
// new description and progress value. Terminal transitions go through
// Complete, Fail, and Cancel, which set the once-only result and error
// fields.
//
// Returns domain.ErrInvalidTransition when next is not reachable from the
// job's current status. Progress never regresses: a value below the job's
// last reported progress is clamped, so skipped no-op stages keep forward
// motion.
func (m *Manager) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	next domain.JobStatus,
	description string,
	progress float64,
) error {
	if next.IsTerminal() {
		return fmt.Errorf("%w: %q is terminal, use Complete, Fail or Cancel",
			domain.ErrInvalidTransition, next)
	}

	return m.transition(ctx, id, next, description, func(job *domain.Job) {
		if progress > job.Progress {
			job.Progress = progress
		} else if progress < job.Progress {
			m.logger.Warn("progress regression clamped",
				slog.String("job_id", id.String()),
				slog.Float64("reported", progress),
				slog.Float64("kept", job.Progress))
		}
	})
}

// Complete moves a job into the completed terminal state, sets progress to
// 100 and writes the result payload. The result is set exactly once; the
// transition check rejects a second completion.
func (m *Manager) Complete(ctx context.Context, id uuid.UUID, result *domain.PodcastResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	return m.transition(ctx, id, domain.JobStatusCompleted, "podcast generation completed", func(job *domain.Job) {
		job.Progress = 100
		job.Result = payload
	})
}

// Fail moves a job into the failed terminal state. Progress is frozen at its
// last reported value. Summary is safe to show callers; detail carries full
// diagnostic context and is never serialized to clients.
func (m *Manager) Fail(ctx context.Context, id uuid.UUID, summary, detail string) error {
	return m.transition(ctx, id, domain.JobStatusFailed, summary, func(job *domain.Job) {
		job.ErrorSummary = summary
		job.ErrorDetail = detail
	})
}

// Cancel moves a job into the cancelled terminal state, distinct from
// failed. Progress is frozen at its last reported value.
func (m *Manager) Cancel(ctx context.Context, id uuid.UUID, description string) error {
	return m.transition(ctx, id, domain.JobStatusCancelled, description, nil)
}

// MarkArtifact latches the named artifact flag to true. Marking an artifact
// that is already available is a no-op, not an error, and appends no
// duplicate log entry.
func (m *Manager) MarkArtifact(ctx context.Context, id uuid.UUID, name string) error {
	job, err := m.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if job.Artifacts[name] {
		return nil
	}

	job.Artifacts[name] = true
	job.Logs = append(job.Logs, logEntry(fmt.Sprintf("artifact available: %s", name)))
	job.UpdatedAt = time.Now().UTC()

	return m.store.Update(ctx, job)
}

// AppendLog records a progress detail line without touching status or
// progress.
func (m *Manager) AppendLog(ctx context.Context, id uuid.UUID, message string) error {
	job, err := m.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	job.Logs = append(job.Logs, logEntry(message))
	job.UpdatedAt = time.Now().UTC()

	return m.store.Update(ctx, job)
}

// transition performs the shared read-validate-mutate-write cycle for every
// status change: check the state machine, apply the extra mutation, stamp
// the description and timestamp, and append the transition log entry.
func (m *Manager) transition(
	ctx context.Context,
	id uuid.UUID,
	next domain.JobStatus,
	description string,
	mutate func(*domain.Job),
) error {
	job, err := m.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !job.Status.CanTransitionTo(next) {
		m.logger.Error("illegal status transition attempted",
			slog.String("job_id", id.String()),
			slog.String("from", string(job.Status)),
			slog.String("to", string(next)))
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, job.Status, next)
	}

	prev := job.Status
	job.Status = next
	job.Description = description
	if mutate != nil {
		mutate(job)
	}
	job.UpdatedAt = time.Now().UTC()
	job.Logs = append(job.Logs, logEntry(fmt.Sprintf("status: %s -> %s (%s)", prev, next, description)))

	if err := m.store.Update(ctx, job); err != nil {
		return err
	}

	m.logger.Info("job status updated",
		slog.String("job_id", id.String()),
		slog.String("from", string(prev)),
		slog.String("to", string(next)),
		slog.Float64("progress", job.Progress))
	return nil
}

func logEntry(message string) domain.LogEntry {
	return domain.LogEntry{At: time.Now().UTC(), Message: message}
}
