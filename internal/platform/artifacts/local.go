package artifacts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/podforge/podforge-api/internal/workflow"
)

// ErrInvalidKey indicates the artifact key would escape the storage root.
var ErrInvalidKey = errors.New("invalid artifact key")

// LocalStore implements the workflow.ArtifactStore interface on the local
// filesystem. Keys map to paths under the base directory and locations are
// file:// URLs.
type LocalStore struct {
	baseDir string
	logger  *slog.Logger
}

// Ensure LocalStore implements workflow.ArtifactStore.
var _ workflow.ArtifactStore = (*LocalStore)(nil)

// NewLocalStore creates a local artifact store rooted at baseDir, creating
// the directory if needed.
func NewLocalStore(baseDir string, logger *slog.Logger) (*LocalStore, error) {
	if baseDir == "" {
		return nil, errors.New("base directory cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory %q: %w", baseDir, err)
	}

	return &LocalStore{
		baseDir: baseDir,
		logger:  logger.With(slog.String("component", "local_artifact_store")),
	}, nil
}

// Put writes the artifact under the base directory and returns its file://
// location.
func (s *LocalStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %q: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact %q: %w", key, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	s.logger.DebugContext(ctx, "artifact stored locally",
		slog.String("key", key),
		slog.Int("bytes", len(data)))
	return "file://" + abs, nil
}

// resolve maps a key to a path under the base directory, rejecting traversal.
func (s *LocalStore) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.baseDir, cleaned), nil
}
