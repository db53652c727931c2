package store

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/podforge/podforge-api/internal/domain"
)

func newTestJob(t *testing.T) *domain.Job {
	t.Helper()
	job, err := domain.NewJob(uuid.New(), json.RawMessage(`{"sources":[]}`))
	require.NoError(t, err)
	return job
}

func TestMemoryJobStore_CreateAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryJobStore()
	job := newTestJob(t)

	require.NoError(t, s.Create(ctx, job))

	got, err := s.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, domain.JobStatusQueued, got.Status)

	// Duplicate IDs are rejected.
	err = s.Create(ctx, job)
	assert.ErrorIs(t, err, ErrJobExists)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMemoryJobStore_GetUnknown(t *testing.T) {
	t.Parallel()

	s := NewMemoryJobStore()
	_, err := s.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.True(t, IsNotFoundError(err))
}

func TestMemoryJobStore_Update(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryJobStore()
	job := newTestJob(t)
	require.NoError(t, s.Create(ctx, job))

	job.Status = domain.JobStatusAnalyzing
	job.Progress = 5
	require.NoError(t, s.Update(ctx, job))

	got, err := s.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusAnalyzing, got.Status)
	assert.Equal(t, 5.0, got.Progress)

	// Updating an unknown job fails.
	missing := newTestJob(t)
	assert.ErrorIs(t, s.Update(ctx, missing), ErrJobNotFound)
}

func TestMemoryJobStore_SnapshotsAreIsolated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryJobStore()
	job := newTestJob(t)
	require.NoError(t, s.Create(ctx, job))

	got, err := s.GetByID(ctx, job.ID)
	require.NoError(t, err)
	got.Artifacts[domain.ArtifactOutline] = true

	again, err := s.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.False(t, again.Artifacts[domain.ArtifactOutline],
		"mutating a snapshot must not leak into the store")
}

func TestMemoryJobStore_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryJobStore()
	job := newTestJob(t)
	require.NoError(t, s.Create(ctx, job))

	require.NoError(t, s.Delete(ctx, job.ID))
	_, err := s.GetByID(ctx, job.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)

	assert.ErrorIs(t, s.Delete(ctx, job.ID), ErrJobNotFound)
}

func TestMemoryJobStore_ListUnfinished(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryJobStore()

	open := newTestJob(t)
	require.NoError(t, s.Create(ctx, open))

	done := newTestJob(t)
	require.NoError(t, s.Create(ctx, done))
	done.Status = domain.JobStatusCompleted
	done.Progress = 100
	require.NoError(t, s.Update(ctx, done))

	unfinished, err := s.ListUnfinished(ctx)
	require.NoError(t, err)
	require.Len(t, unfinished, 1)
	assert.Equal(t, open.ID, unfinished[0].ID)
}

func TestMemoryJobStore_ConcurrentDisjointWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryJobStore()

	const n = 32
	jobs := make([]*domain.Job, n)
	for i := range jobs {
		jobs[i] = newTestJob(t)
		require.NoError(t, s.Create(ctx, jobs[i]))
	}

	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(j *domain.Job) {
			defer wg.Done()
			j.Status = domain.JobStatusPreprocessing
			_ = s.Update(ctx, j)
			_, _ = s.GetByID(ctx, j.ID)
		}(job)
	}
	wg.Wait()

	for _, job := range jobs {
		got, err := s.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusPreprocessing, got.Status)
	}
}
