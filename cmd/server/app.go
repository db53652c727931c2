package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/podforge/podforge-api/internal/config"
	"github.com/podforge/podforge-api/internal/domain"
	"github.com/podforge/podforge-api/internal/events"
	"github.com/podforge/podforge-api/internal/platform/artifacts"
	"github.com/podforge/podforge-api/internal/platform/audio"
	"github.com/podforge/podforge-api/internal/platform/extract"
	"github.com/podforge/podforge-api/internal/platform/gemini"
	"github.com/podforge/podforge-api/internal/platform/postgres"
	"github.com/podforge/podforge-api/internal/platform/tts"
	"github.com/podforge/podforge-api/internal/service"
	"github.com/podforge/podforge-api/internal/status"
	"github.com/podforge/podforge-api/internal/store"
	"github.com/podforge/podforge-api/internal/task"
	"github.com/podforge/podforge-api/internal/workflow"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	jobStore      store.JobStore
	statusManager *status.Manager
	scheduler     *task.Scheduler
	eventEmitter  events.EventEmitter

	podcastService *service.PodcastService
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before initialization.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Stores and the status manager that owns all job state transitions.
	app.jobStore = postgres.NewPostgresJobStore(db, logger)
	app.statusManager = status.NewManager(app.jobStore, logger)

	// Job scheduler enforcing the global concurrency cap.
	app.scheduler = task.NewScheduler(app.statusManager, task.SchedulerConfig{
		MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
	}, logger)

	// Pipeline collaborators.
	extractor := extract.NewExtractor(logger)

	scriptGenerator, err := gemini.NewScriptGenerator(
		ctx,
		logger.With(slog.String("component", "script_generator")),
		cfg.LLM,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize script generator: %w", err)
	}
	logger.Info("Script generator initialized", slog.String("model", cfg.LLM.ModelName))

	speechClient, err := tts.NewClient(cfg.TTS, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize speech synthesizer: %w", err)
	}

	artifactStore, err := setupArtifactStore(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact storage: %w", err)
	}

	weights, err := stageWeightsFromConfig(cfg.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("invalid pipeline configuration: %w", err)
	}

	pipeline, err := workflow.NewPipeline(
		app.statusManager,
		app.scheduler,
		extractor,
		scriptGenerator,
		speechClient,
		audio.NewFFmpegStitcher(logger),
		artifactStore,
		workflow.PipelineConfig{
			Weights:      weights,
			DefaultVoice: cfg.TTS.DefaultVoice,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	// Event system connecting job submission to pipeline execution. The
	// emitter dispatches synchronously so admission errors reach the caller.
	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	requestHandler := task.NewJobRequestHandler(
		workflow.NewPipelineJobFactory(pipeline),
		app.scheduler,
		logger,
	)
	if emitter, ok := app.eventEmitter.(*events.InMemoryEventEmitter); ok {
		emitter.RegisterHandler(requestHandler)
	} else {
		return nil, fmt.Errorf("unexpected event emitter type, cannot register job handler")
	}

	app.podcastService = service.NewPodcastService(
		app.statusManager,
		app.eventEmitter,
		app.scheduler,
		logger,
	)

	if err := app.recoverOrphanedJobs(ctx); err != nil {
		return nil, fmt.Errorf("failed to recover orphaned jobs: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// recoverOrphanedJobs fails any job left non-terminal by a previous process.
// In-memory cancellation flags and scheduler slots do not survive restarts,
// so such jobs can never make progress again.
func (app *application) recoverOrphanedJobs(ctx context.Context) error {
	jobs, err := app.jobStore.ListUnfinished(ctx)
	if err != nil {
		return fmt.Errorf("failed to list unfinished jobs: %w", err)
	}

	for _, job := range jobs {
		if err := app.statusManager.Fail(ctx, job.ID,
			"generation interrupted by server restart",
			fmt.Sprintf("job was in status %q when the server stopped", job.Status),
		); err != nil {
			return fmt.Errorf("failed to mark job %s as interrupted: %w", job.ID, err)
		}
		app.logger.Warn("Marked orphaned job as failed",
			slog.String("job_id", job.ID.String()),
			slog.String("previous_status", string(job.Status)))
	}

	if len(jobs) > 0 {
		app.logger.Info("Orphaned job recovery completed", slog.Int("count", len(jobs)))
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", slog.Any("error", err))
		}
	}
	app.logger.Info("Application shutdown completed")
}

// setupArtifactStore builds the artifact store from configuration. With a
// bucket configured, uploads go to S3 and fall back to the local directory
// when the upload fails; without one, artifacts are written locally only.
func setupArtifactStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (workflow.ArtifactStore, error) {
	local, err := artifacts.NewLocalStore(cfg.LocalDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local artifact store: %w", err)
	}

	if cfg.Bucket == "" {
		logger.Info("Using local artifact storage", slog.String("dir", cfg.LocalDir))
		return local, nil
	}

	s3Store, err := artifacts.NewS3Store(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 artifact store: %w", err)
	}
	logger.Info("Using S3 artifact storage with local fallback",
		slog.String("bucket", cfg.Bucket))
	return artifacts.NewFallbackStore(s3Store, local, logger), nil
}

// stageWeightsFromConfig converts configured stage weight overrides into
// domain weights. An empty override map means defaults; a partial or
// inconsistent one is a configuration error.
func stageWeightsFromConfig(cfg config.PipelineConfig) (domain.StageWeights, error) {
	if len(cfg.StageWeights) == 0 {
		return domain.DefaultStageWeights(), nil
	}

	weights := make(domain.StageWeights, len(cfg.StageWeights))
	for name, weight := range cfg.StageWeights {
		weights[domain.JobStatus(name)] = weight
	}
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stage weights: %w", err)
	}
	return weights, nil
}
