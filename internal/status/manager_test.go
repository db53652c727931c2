package status

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/podforge/podforge-api/internal/domain"
	"github.com/podforge/podforge-api/internal/store"
)

func newTestManager(t *testing.T) (*Manager, *store.MemoryJobStore) {
	t.Helper()
	jobStore := store.NewMemoryJobStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(jobStore, logger), jobStore
}

func createTestJob(t *testing.T, m *Manager) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := m.CreateJob(context.Background(), id, json.RawMessage(`{"sources":[{"type":"text","value":"hi"}]}`))
	require.NoError(t, err)
	return id
}

func TestManager_CreateJob(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := newTestManager(t)

	id := uuid.New()
	job, err := m.CreateJob(ctx, id, json.RawMessage(`{"sources":[]}`))
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusQueued, job.Status)
	assert.Zero(t, job.Progress)
	require.Len(t, job.Logs, 1)

	// A second create with the same ID is rejected.
	_, err = m.CreateJob(ctx, id, json.RawMessage(`{"sources":[]}`))
	assert.ErrorIs(t, err, store.ErrJobExists)
}

func TestManager_UpdateStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("forward transition", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestManager(t)
		id := createTestJob(t, m)

		err := m.UpdateStatus(ctx, id, domain.JobStatusPreprocessing, "extracting sources", 0)
		require.NoError(t, err)

		job, err := m.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusPreprocessing, job.Status)
		assert.Equal(t, "extracting sources", job.Description)
		require.Len(t, job.Logs, 2)
		assert.Contains(t, job.Logs[1].Message, "queued -> preprocessing_sources")
	})

	t.Run("invalid transition does not mutate the record", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestManager(t)
		id := createTestJob(t, m)
		require.NoError(t, m.UpdateStatus(ctx, id, domain.JobStatusStitchingAudio, "stitching", 90))

		before, err := m.Get(ctx, id)
		require.NoError(t, err)

		err = m.UpdateStatus(ctx, id, domain.JobStatusGeneratingOutline, "outline", 35)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)

		after, err := m.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, before.Status, after.Status)
		assert.Equal(t, before.Progress, after.Progress)
		assert.Equal(t, len(before.Logs), len(after.Logs))
	})

	t.Run("update on completed job rejected", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestManager(t)
		id := createTestJob(t, m)
		require.NoError(t, m.Complete(ctx, id, &domain.PodcastResult{AudioLocation: "local://x"}))

		err := m.UpdateStatus(ctx, id, domain.JobStatusGeneratingOutline, "outline", 35)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("terminal target rejected", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestManager(t)
		id := createTestJob(t, m)

		err := m.UpdateStatus(ctx, id, domain.JobStatusCompleted, "done", 100)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("unknown job", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestManager(t)
		err := m.UpdateStatus(ctx, uuid.New(), domain.JobStatusPreprocessing, "x", 0)
		assert.ErrorIs(t, err, store.ErrJobNotFound)
	})

	t.Run("progress never regresses", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestManager(t)
		id := createTestJob(t, m)
		require.NoError(t, m.UpdateStatus(ctx, id, domain.JobStatusAnalyzing, "analyzing", 5))
		require.NoError(t, m.UpdateStatus(ctx, id, domain.JobStatusGeneratingOutline, "outline", 35))

		// A later stage reporting a lower value is clamped, not applied.
		require.NoError(t, m.UpdateStatus(ctx, id, domain.JobStatusGeneratingDialogue, "dialogue", 20))

		job, err := m.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 35.0, job.Progress)
		assert.Equal(t, domain.JobStatusGeneratingDialogue, job.Status)
	})
}

func TestManager_TerminalWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("complete sets result and full progress", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestManager(t)
		id := createTestJob(t, m)

		result := &domain.PodcastResult{AudioLocation: "s3://bucket/ep.mp3", SegmentCount: 12}
		require.NoError(t, m.Complete(ctx, id, result))

		job, err := m.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusCompleted, job.Status)
		assert.Equal(t, 100.0, job.Progress)

		var got domain.PodcastResult
		require.NoError(t, json.Unmarshal(job.Result, &got))
		assert.Equal(t, *result, got)

		// A job completes at most once.
		assert.ErrorIs(t, m.Complete(ctx, id, result), domain.ErrInvalidTransition)
	})

	t.Run("fail freezes progress and records both error fields", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestManager(t)
		id := createTestJob(t, m)
		require.NoError(t, m.UpdateStatus(ctx, id, domain.JobStatusAnalyzing, "analyzing", 5))

		require.NoError(t, m.Fail(ctx, id, "analysis failed", "llm: status 500 calling model"))

		job, err := m.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusFailed, job.Status)
		assert.Equal(t, 5.0, job.Progress)
		assert.Equal(t, "analysis failed", job.ErrorSummary)
		assert.Equal(t, "llm: status 500 calling model", job.ErrorDetail)
		assert.Nil(t, job.Result)
	})

	t.Run("cancel is distinct from failed", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestManager(t)
		id := createTestJob(t, m)
		require.NoError(t, m.UpdateStatus(ctx, id, domain.JobStatusAnalyzing, "analyzing", 5))

		require.NoError(t, m.Cancel(ctx, id, "cancelled by caller"))

		job, err := m.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusCancelled, job.Status)
		assert.Equal(t, 5.0, job.Progress)
		assert.Empty(t, job.ErrorSummary)

		// Terminal: a second cancel is rejected.
		assert.ErrorIs(t, m.Cancel(ctx, id, "again"), domain.ErrInvalidTransition)
	})
}

func TestManager_MarkArtifact(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := newTestManager(t)
	id := createTestJob(t, m)

	require.NoError(t, m.MarkArtifact(ctx, id, domain.ArtifactOutline))

	job, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, job.Artifacts[domain.ArtifactOutline])
	logCount := len(job.Logs)

	// Idempotent: second mark is a no-op with no duplicate log entry.
	require.NoError(t, m.MarkArtifact(ctx, id, domain.ArtifactOutline))

	job, err = m.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, job.Artifacts[domain.ArtifactOutline])
	assert.Len(t, job.Logs, logCount)

	assert.ErrorIs(t, m.MarkArtifact(ctx, uuid.New(), domain.ArtifactOutline), store.ErrJobNotFound)
}

func TestManager_AppendLog(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := newTestManager(t)
	id := createTestJob(t, m)

	require.NoError(t, m.AppendLog(ctx, id, "synthesized segment 3 of 12"))
	require.NoError(t, m.AppendLog(ctx, id, "synthesized segment 4 of 12"))

	job, err := m.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, job.Logs, 3)
	assert.Equal(t, domain.JobStatusQueued, job.Status, "AppendLog must not change status")
	assert.Zero(t, job.Progress, "AppendLog must not change progress")

	// Logs keep insertion order.
	assert.True(t, strings.HasSuffix(job.Logs[1].Message, "3 of 12"))
	assert.True(t, strings.HasSuffix(job.Logs[2].Message, "4 of 12"))
}

func TestManager_FullTraversal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := newTestManager(t)
	id := createTestJob(t, m)
	weights := domain.DefaultStageWeights()

	var lastProgress float64
	for _, stage := range domain.PipelineStages() {
		err := m.UpdateStatus(ctx, id, stage, string(stage), weights.ProgressFor(stage))
		require.NoError(t, err, "stage %s", stage)

		job, err := m.Get(ctx, id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, job.Progress, lastProgress, "stage %s", stage)
		lastProgress = job.Progress
	}

	require.NoError(t, m.Complete(ctx, id, &domain.PodcastResult{AudioLocation: "local://done"}))

	job, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Equal(t, 100.0, job.Progress)
}
