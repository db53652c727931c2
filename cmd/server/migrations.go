package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/podforge/podforge-api/db/migrations"
)

// slogGooseLogger adapts goose's logging to the application's slog output.
type slogGooseLogger struct{}

func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	slog.Info("Goose: " + strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error("Goose fatal: " + strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// runMigrations applies any pending schema migrations from the embedded
// migration files. It is called once at startup before the application
// begins serving traffic.
func runMigrations(db *sql.DB, logger *slog.Logger) error {
	goose.SetLogger(&slogGooseLogger{})
	goose.SetTableName("schema_migrations")
	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database migrations applied")
	return nil
}
