package audio

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFFmpegStitcher_Stitch(t *testing.T) {
	t.Parallel()

	s := NewFFmpegStitcher(slog.New(slog.NewTextHandler(io.Discard, nil)))

	t.Run("no segments", func(t *testing.T) {
		t.Parallel()
		_, err := s.Stitch(context.Background(), nil)
		assert.ErrorIs(t, err, ErrNoSegments)
	})

	t.Run("single segment passes through", func(t *testing.T) {
		t.Parallel()
		segment := []byte("one-and-only")
		out, err := s.Stitch(context.Background(), [][]byte{segment})
		require.NoError(t, err)
		assert.Equal(t, segment, out)
	})
}

func TestConcatList(t *testing.T) {
	t.Parallel()

	list := concatList([]string{"/tmp/a.mp3", "/tmp/it's.mp3"})
	assert.Equal(t, "file '/tmp/a.mp3'\nfile '/tmp/it'\\''s.mp3'\n", list)
}
