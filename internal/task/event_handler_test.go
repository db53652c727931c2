package task

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/podforge/podforge-api/internal/domain"
	"github.com/podforge/podforge-api/internal/events"
)

type stubFactory struct {
	built []uuid.UUID
	fn    JobFunc
}

func (f *stubFactory) NewJob(jobID uuid.UUID, req domain.PodcastRequest) JobFunc {
	f.built = append(f.built, jobID)
	if f.fn != nil {
		return f.fn
	}
	return func(ctx context.Context) error { return nil }
}

type stubSubmitter struct {
	submitted []uuid.UUID
	err       error
}

func (s *stubSubmitter) Submit(ctx context.Context, jobID uuid.UUID, fn JobFunc) error {
	if s.err != nil {
		return s.err
	}
	s.submitted = append(s.submitted, jobID)
	return nil
}

func testRequest() domain.PodcastRequest {
	return domain.PodcastRequest{
		Title:   "test podcast",
		Sources: []domain.Source{{Type: domain.SourceTypeText, Value: "hello"}},
	}
}

func TestJobRequestHandler_HandleEvent(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("builds and submits the job", func(t *testing.T) {
		t.Parallel()

		factory := &stubFactory{}
		submitter := &stubSubmitter{}
		handler := NewJobRequestHandler(factory, submitter, logger)

		jobID := uuid.New()
		event, err := events.NewJobRequestEvent(JobTypePodcastGeneration, JobRequestPayload{
			JobID:   jobID,
			Request: testRequest(),
		})
		require.NoError(t, err)

		require.NoError(t, handler.HandleEvent(ctx, event))
		assert.Equal(t, []uuid.UUID{jobID}, factory.built)
		assert.Equal(t, []uuid.UUID{jobID}, submitter.submitted)
	})

	t.Run("ignores other event types", func(t *testing.T) {
		t.Parallel()

		factory := &stubFactory{}
		submitter := &stubSubmitter{}
		handler := NewJobRequestHandler(factory, submitter, logger)

		event, err := events.NewJobRequestEvent("unrelated", JobRequestPayload{JobID: uuid.New()})
		require.NoError(t, err)

		require.NoError(t, handler.HandleEvent(ctx, event))
		assert.Empty(t, factory.built)
		assert.Empty(t, submitter.submitted)
	})

	t.Run("rejects malformed payloads", func(t *testing.T) {
		t.Parallel()

		handler := NewJobRequestHandler(&stubFactory{}, &stubSubmitter{}, logger)
		event := &events.JobRequestEvent{
			ID:      uuid.New(),
			Type:    JobTypePodcastGeneration,
			Payload: json.RawMessage(`{not json`),
		}

		assert.Error(t, handler.HandleEvent(ctx, event))
	})

	t.Run("rejects missing job ID", func(t *testing.T) {
		t.Parallel()

		handler := NewJobRequestHandler(&stubFactory{}, &stubSubmitter{}, logger)
		event, err := events.NewJobRequestEvent(JobTypePodcastGeneration, JobRequestPayload{
			Request: testRequest(),
		})
		require.NoError(t, err)

		assert.ErrorIs(t, handler.HandleEvent(ctx, event), domain.ErrEmptyJobID)
	})

	t.Run("propagates admission rejection", func(t *testing.T) {
		t.Parallel()

		submitter := &stubSubmitter{err: ErrCapacityExceeded}
		handler := NewJobRequestHandler(&stubFactory{}, submitter, logger)

		event, err := events.NewJobRequestEvent(JobTypePodcastGeneration, JobRequestPayload{
			JobID:   uuid.New(),
			Request: testRequest(),
		})
		require.NoError(t, err)

		assert.ErrorIs(t, handler.HandleEvent(ctx, event), ErrCapacityExceeded)
	})
}

func TestJobRequestHandler_EndToEndThroughEmitter(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	// The emitter dispatches synchronously, so a capacity rejection from the
	// scheduler surfaces as the emit error.
	submitter := &stubSubmitter{err: errors.New("wrapped: " + ErrCapacityExceeded.Error())}
	handler := NewJobRequestHandler(&stubFactory{}, submitter, logger)

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(handler)

	event, err := events.NewJobRequestEvent(JobTypePodcastGeneration, JobRequestPayload{
		JobID:   uuid.New(),
		Request: testRequest(),
	})
	require.NoError(t, err)

	assert.Error(t, emitter.EmitEvent(ctx, event))
}
