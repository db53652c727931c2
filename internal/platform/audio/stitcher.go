package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/podforge/podforge-api/internal/workflow"
)

// Errors returned by the stitcher.
var (
	// ErrNoSegments indicates there was nothing to stitch.
	ErrNoSegments = errors.New("no audio segments to stitch")

	// ErrStitchFailed indicates ffmpeg could not join the segments.
	ErrStitchFailed = errors.New("ffmpeg concat failed")
)

// FFmpegStitcher implements the workflow.AudioStitcher interface by shelling
// out to ffmpeg's concat demuxer. Segments are staged in a temporary
// directory that is removed when stitching finishes.
type FFmpegStitcher struct {
	command string
	logger  *slog.Logger
}

// Ensure FFmpegStitcher implements workflow.AudioStitcher.
var _ workflow.AudioStitcher = (*FFmpegStitcher)(nil)

// NewFFmpegStitcher creates a stitcher using the ffmpeg binary on PATH.
func NewFFmpegStitcher(logger *slog.Logger) *FFmpegStitcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &FFmpegStitcher{
		command: "ffmpeg",
		logger:  logger.With(slog.String("component", "stitcher")),
	}
}

// Stitch joins the encoded segments into one MP3 stream in order.
func (s *FFmpegStitcher) Stitch(ctx context.Context, segments [][]byte) ([]byte, error) {
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}
	// A single segment needs no ffmpeg invocation.
	if len(segments) == 1 {
		return segments[0], nil
	}

	workDir, err := os.MkdirTemp("", "podforge-stitch-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			s.logger.Warn("failed to remove staging directory", "dir", workDir, "error", err)
		}
	}()

	paths := make([]string, len(segments))
	for i, segment := range segments {
		paths[i] = filepath.Join(workDir, fmt.Sprintf("segment-%04d.mp3", i))
		if err := os.WriteFile(paths[i], segment, 0o600); err != nil {
			return nil, fmt.Errorf("failed to stage segment %d: %w", i, err)
		}
	}

	listPath := filepath.Join(workDir, "concat.txt")
	if err := os.WriteFile(listPath, []byte(concatList(paths)), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write concat list: %w", err)
	}

	outPath := filepath.Join(workDir, "episode.mp3")
	cmd := exec.CommandContext(ctx, s.command,
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y", outPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %v: %s", ErrStitchFailed, err, stderr.String())
	}

	episode, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read stitched output: %w", err)
	}

	s.logger.DebugContext(ctx, "segments stitched",
		slog.Int("segments", len(segments)),
		slog.Int("episode_bytes", len(episode)))
	return episode, nil
}

// concatList renders the ffmpeg concat demuxer input file. Quotes in paths
// are escaped per the demuxer's quoting rules.
func concatList(paths []string) string {
	var b strings.Builder
	for _, path := range paths {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(path, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}
