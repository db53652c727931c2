package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/podforge/podforge-api/internal/domain"
	"github.com/podforge/podforge-api/internal/platform/logger"
	"github.com/podforge/podforge-api/internal/store"
)

// PostgresJobStore implements the store.JobStore interface using PostgreSQL.
// The record's request params, result, artifact flags and logs live in jsonb
// columns; the queryable fields (status, progress, timestamps) are plain
// columns.
type PostgresJobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// Ensure PostgresJobStore implements store.JobStore.
var _ store.JobStore = (*PostgresJobStore)(nil)

// NewPostgresJobStore creates a new PostgresJobStore.
func NewPostgresJobStore(db store.DBTX, log *slog.Logger) *PostgresJobStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresJobStore{
		db:     db,
		logger: log.With(slog.String("component", "postgres_job_store")),
	}
}

const jobColumns = `id, status, progress, description, request_params, result,
	error_summary, error_detail, artifacts, logs, created_at, updated_at`

// Create inserts the initial job record.
// Returns store.ErrJobExists if the ID is already taken.
func (s *PostgresJobStore) Create(ctx context.Context, job *domain.Job) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := job.Validate(); err != nil {
		return err
	}

	artifacts, logs, err := marshalAux(job)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = s.db.ExecContext(ctx, query,
		job.ID,
		job.Status,
		job.Progress,
		job.Description,
		[]byte(job.RequestParams),
		nullableJSON(job.Result),
		job.ErrorSummary,
		job.ErrorDetail,
		artifacts,
		logs,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", store.ErrJobExists, job.ID)
		}
		log.Error("failed to insert job", "job_id", job.ID, "error", err)
		return fmt.Errorf("failed to insert job: %w", MapError(err))
	}

	return nil
}

// GetByID loads one job record.
// Returns store.ErrJobNotFound for unknown IDs.
func (s *PostgresJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	row := s.db.QueryRowContext(ctx, query, id)

	job, err := scanJob(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrJobNotFound, id)
		}
		return nil, fmt.Errorf("failed to load job: %w", MapError(err))
	}
	return job, nil
}

// Update overwrites the full job record. The status manager is the sole
// writer per job ID, so a plain overwrite cannot lose concurrent updates.
// Returns store.ErrJobNotFound if no record exists.
func (s *PostgresJobStore) Update(ctx context.Context, job *domain.Job) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := job.Validate(); err != nil {
		return err
	}

	artifacts, logs, err := marshalAux(job)
	if err != nil {
		return err
	}

	query := `
		UPDATE jobs
		SET status = $2, progress = $3, description = $4, result = $5,
			error_summary = $6, error_detail = $7, artifacts = $8, logs = $9,
			updated_at = $10
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.Status,
		job.Progress,
		job.Description,
		nullableJSON(job.Result),
		job.ErrorSummary,
		job.ErrorDetail,
		artifacts,
		logs,
		job.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update job", "job_id", job.ID, "error", err)
		return fmt.Errorf("failed to update job: %w", MapError(err))
	}

	if err := CheckRowsAffected(result, "job"); err != nil {
		return fmt.Errorf("%w: %s", store.ErrJobNotFound, job.ID)
	}
	return nil
}

// Delete removes a job record.
// Returns store.ErrJobNotFound if no record exists.
func (s *PostgresJobStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", MapError(err))
	}

	if err := CheckRowsAffected(result, "job"); err != nil {
		return fmt.Errorf("%w: %s", store.ErrJobNotFound, id)
	}
	return nil
}

// ListUnfinished returns every job that is not in a terminal state, oldest
// first. Used by the startup sweep to fail orphaned rows left behind by an
// unclean shutdown.
func (s *PostgresJobStore) ListUnfinished(ctx context.Context) ([]*domain.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE status NOT IN ($1, $2, $3)
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query,
		domain.JobStatusCompleted, domain.JobStatusFailed, domain.JobStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to query unfinished jobs: %w", MapError(err))
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Warn("failed to close rows", "error", err)
		}
	}()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}

	return jobs, nil
}

// scanJob reads one row into a domain job, decoding the jsonb columns.
func scanJob(scan func(dest ...any) error) (*domain.Job, error) {
	var (
		job       domain.Job
		params    []byte
		result    []byte
		artifacts []byte
		logs      []byte
		createdAt time.Time
		updatedAt time.Time
	)

	err := scan(
		&job.ID,
		&job.Status,
		&job.Progress,
		&job.Description,
		&params,
		&result,
		&job.ErrorSummary,
		&job.ErrorDetail,
		&artifacts,
		&logs,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.RequestParams = params
	job.Result = result
	job.CreatedAt = createdAt.UTC()
	job.UpdatedAt = updatedAt.UTC()

	job.Artifacts = map[string]bool{}
	if len(artifacts) > 0 {
		if err := json.Unmarshal(artifacts, &job.Artifacts); err != nil {
			return nil, fmt.Errorf("failed to decode artifacts: %w", err)
		}
	}

	job.Logs = []domain.LogEntry{}
	if len(logs) > 0 {
		if err := json.Unmarshal(logs, &job.Logs); err != nil {
			return nil, fmt.Errorf("failed to decode logs: %w", err)
		}
	}

	return &job, nil
}

// marshalAux encodes the artifact flags and log entries for their jsonb
// columns.
func marshalAux(job *domain.Job) (artifacts, logs []byte, err error) {
	artifacts, err = json.Marshal(job.Artifacts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode artifacts: %w", err)
	}
	logs, err = json.Marshal(job.Logs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode logs: %w", err)
	}
	return artifacts, logs, nil
}

// nullableJSON maps an empty JSON payload to SQL NULL.
func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
