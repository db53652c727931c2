package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobRequestEvent represents a request to start a background job. It carries
// everything a handler needs to build the job without a direct dependency on
// the workflow package.
type JobRequestEvent struct {
	// ID is a unique identifier for this event.
	ID uuid.UUID `json:"id"`

	// Type indicates the kind of job that should be started.
	Type string `json:"type"`

	// Payload contains the job-specific data serialized as JSON.
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created.
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *JobRequestEvent) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewJobRequestEvent creates a new JobRequestEvent with the specified type
// and payload.
func NewJobRequestEvent(eventType string, payload any) (*JobRequestEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &JobRequestEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *JobRequestEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of
// handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Handlers run synchronously; the first handler error is returned so
	// admission failures surface to the emitting caller.
	EmitEvent(ctx context.Context, event *JobRequestEvent) error
}
