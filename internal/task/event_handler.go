package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/podforge/podforge-api/internal/domain"
	"github.com/podforge/podforge-api/internal/events"
)

// JobFactory builds the executable body for a podcast generation job.
// Implemented by the workflow package.
type JobFactory interface {
	// NewJob returns the job function for the given job ID and request.
	NewJob(jobID uuid.UUID, req domain.PodcastRequest) JobFunc
}

// Submitter is the slice of the scheduler the event handler needs.
type Submitter interface {
	Submit(ctx context.Context, jobID uuid.UUID, fn JobFunc) error
}

// JobRequestPayload is the event payload emitted by the submission path.
type JobRequestPayload struct {
	JobID   uuid.UUID             `json:"job_id"`
	Request domain.PodcastRequest `json:"request"`
}

// JobRequestHandler handles job request events by building the workflow job
// through the factory and submitting it to the scheduler. Handlers run
// synchronously on the emitting goroutine, so an admission rejection
// propagates back to the submission path before the caller sees a response.
type JobRequestHandler struct {
	factory   JobFactory
	scheduler Submitter
	logger    *slog.Logger
}

// NewJobRequestHandler creates a new event handler that uses the given job
// factory to create jobs and submits them to the provided scheduler.
func NewJobRequestHandler(factory JobFactory, scheduler Submitter, logger *slog.Logger) *JobRequestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobRequestHandler{
		factory:   factory,
		scheduler: scheduler,
		logger:    logger.With("component", "job_request_handler"),
	}
}

// Ensure JobRequestHandler implements events.EventHandler.
var _ events.EventHandler = (*JobRequestHandler)(nil)

// HandleEvent processes job request events by creating and submitting jobs.
func (h *JobRequestHandler) HandleEvent(ctx context.Context, event *events.JobRequestEvent) error {
	if event.Type != JobTypePodcastGeneration {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var payload JobRequestPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payload.JobID == uuid.Nil {
		h.logger.Error("event payload has no job ID", "event_id", event.ID)
		return fmt.Errorf("event payload has no job ID: %w", domain.ErrEmptyJobID)
	}

	fn := h.factory.NewJob(payload.JobID, payload.Request)

	if err := h.scheduler.Submit(ctx, payload.JobID, fn); err != nil {
		h.logger.Warn("failed to submit job",
			"error", err,
			"job_id", payload.JobID,
			"event_id", event.ID)
		return fmt.Errorf("failed to submit job %s: %w", payload.JobID, err)
	}

	h.logger.Info("job submitted",
		"job_id", payload.JobID,
		"event_id", event.ID)
	return nil
}
