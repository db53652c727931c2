package api

import (
	"encoding/json"
	"time"

	"github.com/podforge/podforge-api/internal/domain"
)

// SourceRequest is one input document in a generation request.
type SourceRequest struct {
	Type  string `json:"type"  validate:"required,oneof=url pdf youtube text"`
	Value string `json:"value" validate:"required"`
}

// CreatePodcastRequest represents the request body for starting a generation
// job.
type CreatePodcastRequest struct {
	Title         string            `json:"title"`
	Sources       []SourceRequest   `json:"sources" validate:"required,min=1,dive"`
	Personas      []string          `json:"personas"`
	Style         string            `json:"style"`
	TargetMinutes int               `json:"target_minutes" validate:"gte=0"`
	Voices        map[string]string `json:"voices"`
}

// toDomain converts the request DTO to the domain request snapshot.
func (r CreatePodcastRequest) toDomain() domain.PodcastRequest {
	sources := make([]domain.Source, len(r.Sources))
	for i, src := range r.Sources {
		sources[i] = domain.Source{Type: domain.SourceType(src.Type), Value: src.Value}
	}
	return domain.PodcastRequest{
		Title:         r.Title,
		Sources:       sources,
		Personas:      r.Personas,
		Style:         r.Style,
		TargetMinutes: r.TargetMinutes,
		Voices:        r.Voices,
	}
}

// LogEntryResponse is one line of a job's progress log.
type LogEntryResponse struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// JobResponse represents the externally visible state of a generation job.
// The diagnostic error detail is deliberately absent; clients only see the
// summary.
type JobResponse struct {
	ID          string             `json:"id"`
	Status      string             `json:"status"`
	Progress    float64            `json:"progress"`
	Description string             `json:"description"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Artifacts   map[string]bool    `json:"artifacts"`
	Result      json.RawMessage    `json:"result,omitempty"`
	Error       string             `json:"error,omitempty"`
	Logs        []LogEntryResponse `json:"logs"`
}

// jobToResponse converts a domain.Job to a JobResponse.
func jobToResponse(job *domain.Job) JobResponse {
	logs := make([]LogEntryResponse, len(job.Logs))
	for i, entry := range job.Logs {
		logs[i] = LogEntryResponse{At: entry.At, Message: entry.Message}
	}
	return JobResponse{
		ID:          job.ID.String(),
		Status:      string(job.Status),
		Progress:    job.Progress,
		Description: job.Description,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
		Artifacts:   job.Artifacts,
		Result:      job.Result,
		Error:       job.ErrorSummary,
		Logs:        logs,
	}
}
