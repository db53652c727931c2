// Package main implements the entry point for the podforge API server,
// which turns source documents into generated podcast episodes through an
// asynchronous job pipeline.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/podforge/podforge-api/internal/config"
	"github.com/podforge/podforge-api/internal/platform/logger"
)

// main loads configuration, sets up logging and the database, applies
// schema migrations, wires the application dependencies, and starts the
// HTTP server.
func main() {
	if err := run(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server.LogLevel)
	appLogger.Info("Server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Int("max_concurrent_jobs", cfg.Scheduler.MaxConcurrentJobs))

	db, err := setupDatabase(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	if err := runMigrations(db, appLogger); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
