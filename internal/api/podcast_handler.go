package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/podforge/podforge-api/internal/api/shared"
	"github.com/podforge/podforge-api/internal/domain"
	"github.com/podforge/podforge-api/internal/service"
	"github.com/podforge/podforge-api/internal/store"
	"github.com/podforge/podforge-api/internal/task"
)

// PodcastService is the slice of the application service the handler needs.
type PodcastService interface {
	CreatePodcast(ctx context.Context, req domain.PodcastRequest) (*domain.Job, error)
	GetStatus(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	CancelJob(ctx context.Context, id uuid.UUID) error
	Capacity() task.CapacityStatus
}

// PodcastHandler handles podcast generation HTTP requests.
type PodcastHandler struct {
	service   PodcastService
	validator *validator.Validate
}

// NewPodcastHandler creates a new PodcastHandler.
func NewPodcastHandler(svc PodcastService) *PodcastHandler {
	if svc == nil {
		panic("podcast service cannot be nil")
	}
	return &PodcastHandler{
		service:   svc,
		validator: validator.New(),
	}
}

// CreatePodcast handles POST /api/podcasts requests. Generation runs in the
// background; the response is the queued job snapshot with 202 Accepted. A
// full runner yields 429 and no job is created.
func (h *PodcastHandler) CreatePodcast(w http.ResponseWriter, r *http.Request) {
	var req CreatePodcastRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	job, err := h.service.CreatePodcast(r.Context(), req.toDomain())
	if err != nil {
		switch {
		case errors.Is(err, task.ErrCapacityExceeded):
			w.Header().Set("Retry-After", "30")
			shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests,
				"Generation capacity exhausted, retry later", err)
		case errors.Is(err, domain.ErrNoSources), errors.Is(err, domain.ErrInvalidSource):
			shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		default:
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
				"Failed to start podcast generation", err)
		}
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, jobToResponse(job))
}

// GetPodcast handles GET /api/podcasts/{id} requests, returning the current
// job snapshot.
func (h *PodcastHandler) GetPodcast(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	job, err := h.service.GetStatus(r.Context(), id)
	if err != nil {
		if store.IsNotFoundError(err) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Job not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to load job", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, jobToResponse(job))
}

// CancelPodcast handles DELETE /api/podcasts/{id} requests. Cancellation is
// cooperative: 202 means the request was recorded, not that the job already
// stopped.
func (h *PodcastHandler) CancelPodcast(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	if err := h.service.CancelJob(r.Context(), id); err != nil {
		switch {
		case store.IsNotFoundError(err):
			shared.RespondWithError(w, r, http.StatusNotFound, "Job not found")
		case errors.Is(err, service.ErrJobFinished):
			shared.RespondWithError(w, r, http.StatusConflict, "Job already finished")
		default:
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
				"Failed to cancel job", err)
		}
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, map[string]string{
		"id":     id.String(),
		"status": "cancellation requested",
	})
}

// GetCapacity handles GET /api/capacity requests, reporting the runner's
// occupancy so clients can back off before submitting.
func (h *PodcastHandler) GetCapacity(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.service.Capacity())
}

// jobID extracts and parses the id path parameter, responding with 400 on
// malformed input.
func (h *PodcastHandler) jobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job ID")
		return uuid.Nil, false
	}
	return id, true
}
