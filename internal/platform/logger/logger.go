// Package logger provides structured logging setup and context helpers.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// contextKey is the private type for logger context values.
type contextKey struct{}

// Setup initializes the application's logging system: a JSON slog handler
// writing to stdout at the configured level. The returned logger is also
// installed as the process default so package-level slog calls share the
// same handler.
func Setup(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
		slog.Warn("invalid log level configured, using default",
			"configured_level", level,
			"default_level", "info")
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

// WithContext returns a context carrying the given logger, so request-scoped
// attributes (trace IDs) follow the call chain into stores and collaborators.
func WithContext(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, log)
}

// FromContext retrieves the logger from the context, falling back to the
// process default when none was attached.
func FromContext(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return log
	}
	return slog.Default()
}

// FromContextOrDefault retrieves the logger from the context, falling back
// to the provided component logger instead of the process default.
func FromContextOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if log, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return log
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}
