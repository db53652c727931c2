package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/podforge/podforge-api/internal/domain"
	"github.com/podforge/podforge-api/internal/store"
)

// testDB opens the database named by DATABASE_URL, skipping the test when it
// is unset. The schema must already be migrated.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping database integration test")
	}

	db, err := sql.Open("pgx", url)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	require.NoError(t, db.Ping())
	return db
}

func newDBStore(t *testing.T) *PostgresJobStore {
	t.Helper()
	return NewPostgresJobStore(testDB(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newDBJob(t *testing.T) *domain.Job {
	t.Helper()
	job, err := domain.NewJob(uuid.New(), json.RawMessage(`{"sources":[{"type":"text","value":"x"}]}`))
	require.NoError(t, err)
	return job
}

func TestPostgresJobStore_CreateAndGet(t *testing.T) {
	s := newDBStore(t)
	ctx := context.Background()

	job := newDBJob(t)
	job.Logs = append(job.Logs, domain.LogEntry{At: job.CreatedAt, Message: "job created"})
	require.NoError(t, s.Create(ctx, job))
	t.Cleanup(func() { _ = s.Delete(ctx, job.ID) })

	loaded, err := s.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, loaded.ID)
	assert.Equal(t, domain.JobStatusQueued, loaded.Status)
	assert.JSONEq(t, string(job.RequestParams), string(loaded.RequestParams))
	assert.Len(t, loaded.Logs, 1)
	assert.Empty(t, loaded.Result)

	// Duplicate ID is rejected.
	assert.ErrorIs(t, s.Create(ctx, job), store.ErrJobExists)
}

func TestPostgresJobStore_GetUnknown(t *testing.T) {
	s := newDBStore(t)

	_, err := s.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrJobNotFound)
}

func TestPostgresJobStore_Update(t *testing.T) {
	s := newDBStore(t)
	ctx := context.Background()

	job := newDBJob(t)
	require.NoError(t, s.Create(ctx, job))
	t.Cleanup(func() { _ = s.Delete(ctx, job.ID) })

	job.Status = domain.JobStatusAnalyzing
	job.Progress = 5
	job.Description = "analyzing source content"
	job.Artifacts[domain.ArtifactSourceText] = true
	job.Logs = append(job.Logs, domain.LogEntry{At: job.UpdatedAt, Message: "status changed"})
	require.NoError(t, s.Update(ctx, job))

	loaded, err := s.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusAnalyzing, loaded.Status)
	assert.Equal(t, float64(5), loaded.Progress)
	assert.True(t, loaded.Artifacts[domain.ArtifactSourceText])
	assert.Len(t, loaded.Logs, 1)

	// Updating a deleted job reports not found.
	require.NoError(t, s.Delete(ctx, job.ID))
	assert.ErrorIs(t, s.Update(ctx, job), store.ErrJobNotFound)
}

func TestPostgresJobStore_ListUnfinished(t *testing.T) {
	s := newDBStore(t)
	ctx := context.Background()

	running := newDBJob(t)
	running.Status = domain.JobStatusGeneratingDialogue
	running.Progress = 45
	require.NoError(t, s.Create(ctx, running))
	t.Cleanup(func() { _ = s.Delete(ctx, running.ID) })

	finished := newDBJob(t)
	finished.Status = domain.JobStatusCompleted
	finished.Progress = 100
	finished.Result = json.RawMessage(`{"audio_location":"file:///tmp/a.mp3"}`)
	require.NoError(t, s.Create(ctx, finished))
	t.Cleanup(func() { _ = s.Delete(ctx, finished.ID) })

	unfinished, err := s.ListUnfinished(ctx)
	require.NoError(t, err)

	ids := make(map[uuid.UUID]bool, len(unfinished))
	for _, job := range unfinished {
		ids[job.ID] = true
	}
	assert.True(t, ids[running.ID], "running job should be listed")
	assert.False(t, ids[finished.ID], "completed job must not be listed")
}

func TestPostgresJobStore_Delete(t *testing.T) {
	s := newDBStore(t)
	ctx := context.Background()

	job := newDBJob(t)
	require.NoError(t, s.Create(ctx, job))
	require.NoError(t, s.Delete(ctx, job.ID))

	_, err := s.GetByID(ctx, job.ID)
	assert.ErrorIs(t, err, store.ErrJobNotFound)
	assert.ErrorIs(t, s.Delete(ctx, job.ID), store.ErrJobNotFound)
}
