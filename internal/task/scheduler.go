package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/podforge/podforge-api/internal/domain"
	"github.com/podforge/podforge-api/internal/platform/telemetry"
)

// Job type constants.
const (
	// JobTypePodcastGeneration is the event type for podcast generation jobs.
	JobTypePodcastGeneration = "podcast_generation"
)

// Common errors returned by the Scheduler.
var (
	// ErrCapacityExceeded is returned when admission control rejects a
	// submission because the concurrency cap is reached. The caller should
	// retry later; no job state has been mutated.
	ErrCapacityExceeded = errors.New("scheduler at capacity")

	// ErrJobAlreadyRunning is returned when a job ID is submitted while an
	// execution for the same ID is still in flight.
	ErrJobAlreadyRunning = errors.New("job already running")

	// ErrJobNotRunning is returned by Cancel when no execution is in flight
	// for the given job ID.
	ErrJobNotRunning = errors.New("job not running")
)

// JobFunc is the body of a background job. It runs on its own goroutine and
// is expected to write its own terminal status; the scheduler writes a
// fallback terminal status if it does not.
type JobFunc func(ctx context.Context) error

// StatusManager is the slice of the status manager the scheduler needs to
// write fallback terminal states.
type StatusManager interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	Fail(ctx context.Context, id uuid.UUID, summary, detail string) error
	Cancel(ctx context.Context, id uuid.UUID, description string) error
}

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	// MaxConcurrentJobs is the global concurrency cap enforced at
	// admission. If zero or negative, the default is used.
	MaxConcurrentJobs int
}

// DefaultSchedulerConfig returns a SchedulerConfig with reasonable defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MaxConcurrentJobs: 2,
	}
}

// CapacityStatus is a read-only snapshot of the scheduler's occupancy.
type CapacityStatus struct {
	Running   int `json:"running"`
	Max       int `json:"max"`
	Available int `json:"available"`
}

// runState tracks one in-flight job execution.
type runState struct {
	cancelled atomic.Bool
}

// Scheduler admits, supervises and tracks cancellable background jobs under
// a global concurrency cap. It owns the only two pieces of mutable shared
// state in the runner, the running-job map and the per-job cancellation
// flags, both guarded by a single mutex.
//
// A Scheduler is constructed once at process start and injected where
// needed; there is no package-level instance.
type Scheduler struct {
	mu      sync.Mutex
	running map[uuid.UUID]*runState

	max    int
	status StatusManager
	logger *slog.Logger

	// baseCtx is the lifetime of all job executions; shutdown cancels it.
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a new Scheduler writing fallback terminal states
// through the given status manager.
func NewScheduler(status StatusManager, config SchedulerConfig, logger *slog.Logger) *Scheduler {
	if status == nil {
		panic("status manager cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	max := config.MaxConcurrentJobs
	if max <= 0 {
		max = DefaultSchedulerConfig().MaxConcurrentJobs
		logger.Warn("invalid max concurrent jobs, using default",
			"configured", config.MaxConcurrentJobs,
			"default", max)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		running: make(map[uuid.UUID]*runState),
		max:     max,
		status:  status,
		logger:  logger.With(slog.String("component", "scheduler")),
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// Submit admits and starts a background job. The running count is claimed
// atomically with the admission check, before the job function starts, so
// racing submissions can never exceed the cap.
//
// Returns ErrCapacityExceeded when the cap is reached and
// ErrJobAlreadyRunning when an execution for the same ID is in flight;
// neither mutates any job record.
func (s *Scheduler) Submit(ctx context.Context, jobID uuid.UUID, fn JobFunc) error {
	if fn == nil {
		return errors.New("job function cannot be nil")
	}

	s.mu.Lock()
	if _, inFlight := s.running[jobID]; inFlight {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobAlreadyRunning, jobID)
	}
	if len(s.running) >= s.max {
		s.mu.Unlock()
		telemetry.JobsRejected.Inc()
		return fmt.Errorf("%w: %d of %d slots in use", ErrCapacityExceeded, s.max, s.max)
	}
	s.running[jobID] = &runState{}
	s.mu.Unlock()

	telemetry.JobsSubmitted.Inc()
	telemetry.JobsRunning.Inc()
	s.logger.Info("job admitted", slog.String("job_id", jobID.String()))

	s.wg.Add(1)
	go s.supervise(jobID, fn)

	return nil
}

// Cancel sets the cooperative cancellation flag for a running job. The job
// observes the flag at its next stage boundary and unwinds voluntarily;
// nothing is forcibly killed.
// Returns ErrJobNotRunning if no execution is in flight for the ID.
func (s *Scheduler) Cancel(jobID uuid.UUID) error {
	s.mu.Lock()
	rs, ok := s.running[jobID]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotRunning, jobID)
	}

	rs.cancelled.Store(true)
	s.logger.Info("cancellation requested", slog.String("job_id", jobID.String()))
	return nil
}

// IsCancelled reports whether cancellation was requested for the job.
// Polled by the workflow orchestrator at stage boundaries.
func (s *Scheduler) IsCancelled(jobID uuid.UUID) bool {
	s.mu.Lock()
	rs, ok := s.running[jobID]
	s.mu.Unlock()

	return ok && rs.cancelled.Load()
}

// Capacity returns a snapshot of the scheduler's occupancy.
func (s *Scheduler) Capacity() CapacityStatus {
	s.mu.Lock()
	running := len(s.running)
	s.mu.Unlock()

	return CapacityStatus{
		Running:   running,
		Max:       s.max,
		Available: s.max - running,
	}
}

// Shutdown requests cooperative cancellation of all in-flight jobs and
// waits for them to finish, bounded by the given context.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for _, rs := range s.running {
		rs.cancelled.Store(true)
	}
	s.mu.Unlock()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler shutdown interrupted: %w", ctx.Err())
	}
}

// supervise runs one job to completion and is the last line of defense for
// its terminal state: whatever the job body does, the running slot is
// released exactly once and the job record ends terminal.
func (s *Scheduler) supervise(jobID uuid.UUID, fn JobFunc) {
	defer s.wg.Done()

	logger := s.logger.With(slog.String("job_id", jobID.String()))
	logger.Info("job started")

	var execErr error
	func() {
		defer func() {
			if p := recover(); p != nil {
				execErr = fmt.Errorf("job panicked: %v", p)
				logger.Error("job panicked",
					slog.Any("panic", p),
					slog.String("stack", string(debug.Stack())))
			}
		}()
		execErr = fn(s.baseCtx)
	}()

	s.finalize(jobID, execErr, logger)

	s.mu.Lock()
	delete(s.running, jobID)
	s.mu.Unlock()
	telemetry.JobsRunning.Dec()
}

// finalize writes the fallback terminal status when the job body did not
// reach one itself. The fallback status write uses a fresh context: the
// base context may already be cancelled during shutdown, and the terminal
// write must still happen.
func (s *Scheduler) finalize(jobID uuid.UUID, execErr error, logger *slog.Logger) {
	ctx := context.Background()

	job, err := s.status.Get(ctx, jobID)
	if err != nil {
		logger.Error("failed to load job for completion handling", "error", err)
		return
	}

	if job.Status.IsTerminal() {
		switch job.Status {
		case domain.JobStatusCompleted:
			telemetry.JobsCompleted.Inc()
		case domain.JobStatusFailed:
			telemetry.JobsFailed.Inc()
		case domain.JobStatusCancelled:
			telemetry.JobsCancelled.Inc()
		}
		logger.Info("job finished",
			slog.String("status", string(job.Status)))
		return
	}

	// The job body returned without writing a terminal state.
	if s.IsCancelled(jobID) {
		if err := s.status.Cancel(ctx, jobID, "cancelled before completion"); err != nil {
			logger.Error("failed to write fallback cancelled status", "error", err)
			return
		}
		telemetry.JobsCancelled.Inc()
		logger.Info("job finished", slog.String("status", string(domain.JobStatusCancelled)))
		return
	}

	detail := "job function returned without reaching a terminal state"
	if execErr != nil {
		detail = execErr.Error()
		logger.Error("job execution failed", "error", execErr)
	}
	if err := s.status.Fail(ctx, jobID, "internal error during generation", detail); err != nil {
		logger.Error("failed to write fallback failed status", "error", err)
		return
	}
	telemetry.JobsFailed.Inc()
	logger.Info("job finished", slog.String("status", string(domain.JobStatusFailed)))
}
