package artifacts

import (
	"context"
	"log/slog"

	"github.com/podforge/podforge-api/internal/workflow"
)

// FallbackStore tries a primary artifact store and falls back to a secondary
// one when the primary fails. Used to keep generation working when remote
// storage is unavailable: artifacts land locally instead of failing the job.
type FallbackStore struct {
	primary   workflow.ArtifactStore
	secondary workflow.ArtifactStore
	logger    *slog.Logger
}

// Ensure FallbackStore implements workflow.ArtifactStore.
var _ workflow.ArtifactStore = (*FallbackStore)(nil)

// NewFallbackStore creates a store that prefers primary and degrades to
// secondary.
func NewFallbackStore(primary, secondary workflow.ArtifactStore, logger *slog.Logger) *FallbackStore {
	if primary == nil || secondary == nil {
		panic("both stores are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackStore{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With(slog.String("component", "fallback_artifact_store")),
	}
}

// Put stores the artifact in the primary store, falling back to the
// secondary on failure. The returned location names wherever the artifact
// actually landed.
func (s *FallbackStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	location, err := s.primary.Put(ctx, key, contentType, data)
	if err == nil {
		return location, nil
	}

	s.logger.WarnContext(ctx, "primary artifact store failed, using fallback",
		slog.String("key", key),
		"error", err)
	return s.secondary.Put(ctx, key, contentType, data)
}
