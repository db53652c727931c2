package logger

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	base := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		ctx := WithContext(context.Background(), base)
		assert.Same(t, base, FromContext(ctx))
		assert.Same(t, base, FromContextOrDefault(ctx, nil))
	})

	t.Run("fallback when absent", func(t *testing.T) {
		t.Parallel()

		assert.Same(t, base, FromContextOrDefault(context.Background(), base))
		assert.NotNil(t, FromContext(context.Background()))
	})
}

func TestSetupLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		log := Setup(level)
		assert.NotNil(t, log, "level %q", level)
	}
}
