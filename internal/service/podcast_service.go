package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/podforge/podforge-api/internal/domain"
	"github.com/podforge/podforge-api/internal/events"
	"github.com/podforge/podforge-api/internal/task"
)

// ErrJobFinished is returned when cancellation is requested for a job that
// already reached a terminal state.
var ErrJobFinished = errors.New("job already finished")

// StatusReader is the slice of the status manager the service needs.
type StatusReader interface {
	CreateJob(ctx context.Context, id uuid.UUID, params json.RawMessage) (*domain.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Cancel(ctx context.Context, id uuid.UUID, description string) error
}

// JobRunner is the slice of the scheduler the service needs.
type JobRunner interface {
	Cancel(jobID uuid.UUID) error
	Capacity() task.CapacityStatus
}

// PodcastService is the submission-side application service: it creates the
// job record, hands the request to the background runner through the event
// emitter, and serves status reads and cancellation.
type PodcastService struct {
	status  StatusReader
	emitter events.EventEmitter
	runner  JobRunner
	logger  *slog.Logger
}

// NewPodcastService creates a new PodcastService.
func NewPodcastService(status StatusReader, emitter events.EventEmitter, runner JobRunner, logger *slog.Logger) *PodcastService {
	if status == nil {
		panic("status manager cannot be nil")
	}
	if emitter == nil {
		panic("event emitter cannot be nil")
	}
	if runner == nil {
		panic("job runner cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PodcastService{
		status:  status,
		emitter: emitter,
		runner:  runner,
		logger:  logger.With(slog.String("component", "podcast_service")),
	}
}

// CreatePodcast validates the request, writes the queued job record, and
// submits the generation job. Event handlers run synchronously, so an
// admission rejection surfaces here; in that case the queued record is
// removed again and task.ErrCapacityExceeded is returned for the caller to
// retry later.
func (s *PodcastService) CreatePodcast(ctx context.Context, req domain.PodcastRequest) (*domain.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	params, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	jobID := uuid.New()
	job, err := s.status.CreateJob(ctx, jobID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create job record: %w", err)
	}

	event, err := events.NewJobRequestEvent(task.JobTypePodcastGeneration, task.JobRequestPayload{
		JobID:   jobID,
		Request: req,
	})
	if err != nil {
		s.compensate(ctx, jobID)
		return nil, fmt.Errorf("failed to create job request event: %w", err)
	}

	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		// The job never started; remove the queued record so a retry of the
		// same request is a clean resubmission.
		s.compensate(ctx, jobID)
		if errors.Is(err, task.ErrCapacityExceeded) {
			s.logger.Info("submission rejected at capacity", slog.String("job_id", jobID.String()))
			return nil, fmt.Errorf("cannot start generation: %w", task.ErrCapacityExceeded)
		}
		return nil, fmt.Errorf("failed to submit job: %w", err)
	}

	s.logger.Info("podcast generation submitted",
		slog.String("job_id", jobID.String()),
		slog.Int("sources", len(req.Sources)))
	return job, nil
}

// GetStatus returns the current snapshot of a job.
// Returns store.ErrJobNotFound for unknown IDs.
func (s *PodcastService) GetStatus(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	return s.status.Get(ctx, id)
}

// CancelJob requests cooperative cancellation. For a running job the flag is
// set and the pipeline unwinds at its next checkpoint. A job that exists but
// is not running is cancelled directly. Returns ErrJobFinished when the job
// already reached a terminal state and store.ErrJobNotFound for unknown IDs.
func (s *PodcastService) CancelJob(ctx context.Context, id uuid.UUID) error {
	err := s.runner.Cancel(id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, task.ErrJobNotRunning) {
		return fmt.Errorf("failed to cancel job: %w", err)
	}

	// Not in flight. Decide from the record whether there is anything left
	// to cancel.
	job, getErr := s.status.Get(ctx, id)
	if getErr != nil {
		return getErr
	}
	if job.Status.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrJobFinished, job.Status)
	}

	// Queued but never admitted (or orphaned): cancel the record directly.
	return s.status.Cancel(ctx, id, "cancelled before execution started")
}

// Capacity reports the runner's current occupancy.
func (s *PodcastService) Capacity() task.CapacityStatus {
	return s.runner.Capacity()
}

// compensate removes a job record whose submission never took effect.
func (s *PodcastService) compensate(ctx context.Context, id uuid.UUID) {
	if err := s.status.Delete(ctx, id); err != nil {
		s.logger.Error("failed to remove unsubmitted job record",
			slog.String("job_id", id.String()),
			"error", err)
	}
}
