package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/podforge/podforge-api/internal/domain"
)

// StatusManager is the slice of the status manager the pipeline needs.
type StatusManager interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, next domain.JobStatus, description string, progress float64) error
	Complete(ctx context.Context, id uuid.UUID, result *domain.PodcastResult) error
	Fail(ctx context.Context, id uuid.UUID, summary, detail string) error
	Cancel(ctx context.Context, id uuid.UUID, description string) error
	MarkArtifact(ctx context.Context, id uuid.UUID, name string) error
	AppendLog(ctx context.Context, id uuid.UUID, message string) error
}

// CancelChecker exposes the scheduler's per-job cancellation flag.
type CancelChecker interface {
	IsCancelled(jobID uuid.UUID) bool
}

// PipelineConfig holds tunable pipeline settings.
type PipelineConfig struct {
	// Weights controls how much each stage contributes to overall progress.
	// If nil, domain.DefaultStageWeights is used.
	Weights domain.StageWeights

	// DefaultVoice is the TTS voice used for speakers without an explicit
	// voice mapping in the request.
	DefaultVoice string
}

// Pipeline runs the podcast generation stages for one job. Every stage
// follows the same shape: observe the cancellation flag, advance the job
// status, call the collaborator, record the produced artifact. The pipeline
// writes its own terminal state on every exit path it controls; the
// scheduler's completion handler covers anything it does not.
type Pipeline struct {
	status    StatusManager
	runner    CancelChecker
	extractor ContentExtractor
	script    ScriptGenerator
	tts       SpeechSynthesizer
	stitcher  AudioStitcher
	artifacts ArtifactStore
	weights   domain.StageWeights
	voice     string
	logger    *slog.Logger
}

// NewPipeline wires the pipeline's collaborators together.
func NewPipeline(
	status StatusManager,
	runner CancelChecker,
	extractor ContentExtractor,
	script ScriptGenerator,
	tts SpeechSynthesizer,
	stitcher AudioStitcher,
	artifacts ArtifactStore,
	config PipelineConfig,
	logger *slog.Logger,
) (*Pipeline, error) {
	if status == nil {
		panic("status manager cannot be nil")
	}
	if runner == nil {
		panic("cancel checker cannot be nil")
	}
	if extractor == nil {
		panic("content extractor cannot be nil")
	}
	if script == nil {
		panic("script generator cannot be nil")
	}
	if tts == nil {
		panic("speech synthesizer cannot be nil")
	}
	if stitcher == nil {
		panic("audio stitcher cannot be nil")
	}
	if artifacts == nil {
		panic("artifact store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	weights := config.Weights
	if weights == nil {
		weights = domain.DefaultStageWeights()
	}
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stage weights: %w", err)
	}

	return &Pipeline{
		status:    status,
		runner:    runner,
		extractor: extractor,
		script:    script,
		tts:       tts,
		stitcher:  stitcher,
		artifacts: artifacts,
		weights:   weights,
		voice:     config.DefaultVoice,
		logger:    logger.With(slog.String("component", "pipeline")),
	}, nil
}

// Run executes the full generation pipeline for the job. It returns nil when
// the job reached completed or was cancelled cooperatively, and an error when
// a stage failed; in the failure case the job record is already terminal.
func (p *Pipeline) Run(ctx context.Context, jobID uuid.UUID, req domain.PodcastRequest) error {
	logger := p.logger.With(slog.String("job_id", jobID.String()))

	if err := req.Validate(); err != nil {
		return p.fail(ctx, jobID, "invalid request", err)
	}

	// Stage 1: source extraction.
	if done, err := p.enter(ctx, jobID, domain.JobStatusPreprocessing, "extracting source content"); done || err != nil {
		return err
	}
	extracted := make([]ExtractedSource, 0, len(req.Sources))
	for _, src := range req.Sources {
		text, err := p.extractor.Extract(ctx, src)
		if err != nil {
			return p.fail(ctx, jobID, "failed to process source content",
				fmt.Errorf("%w: %s %q: %v", ErrExtraction, src.Type, src.Value, err))
		}
		extracted = append(extracted, ExtractedSource{Source: src, Text: text})
	}
	if err := p.status.MarkArtifact(ctx, jobID, domain.ArtifactSourceText); err != nil {
		logger.Warn("failed to mark artifact", "artifact", domain.ArtifactSourceText, "error", err)
	}

	// Stage 2: source analysis.
	if done, err := p.enter(ctx, jobID, domain.JobStatusAnalyzing, "analyzing source content"); done || err != nil {
		return err
	}
	analysis, err := p.script.AnalyzeSources(ctx, extracted)
	if err != nil {
		return p.fail(ctx, jobID, "failed to analyze sources", fmt.Errorf("%w: %v", ErrLLM, err))
	}
	if err := p.status.MarkArtifact(ctx, jobID, domain.ArtifactAnalysis); err != nil {
		logger.Warn("failed to mark artifact", "artifact", domain.ArtifactAnalysis, "error", err)
	}

	// Stage 3: persona research. Skipped entirely when the request names no
	// personas; the forward-only state machine permits the jump and progress
	// keeps moving through the next stage's cumulative weight.
	var profiles []PersonaProfile
	if len(req.Personas) > 0 {
		if done, err := p.enter(ctx, jobID, domain.JobStatusResearchingPersonas, "researching personas"); done || err != nil {
			return err
		}
		profiles, err = p.script.ResearchPersonas(ctx, analysis, req.Personas)
		if err != nil {
			return p.fail(ctx, jobID, "failed to research personas", fmt.Errorf("%w: %v", ErrLLM, err))
		}
	} else {
		profiles = defaultProfiles()
		if err := p.status.AppendLog(ctx, jobID, "no personas requested, using default speakers"); err != nil {
			logger.Warn("failed to append log", "error", err)
		}
	}

	// Stage 4: outline.
	if done, err := p.enter(ctx, jobID, domain.JobStatusGeneratingOutline, "generating episode outline"); done || err != nil {
		return err
	}
	outline, err := p.script.GenerateOutline(ctx, analysis, profiles, req)
	if err != nil {
		return p.fail(ctx, jobID, "failed to generate outline", fmt.Errorf("%w: %v", ErrLLM, err))
	}
	if err := p.status.MarkArtifact(ctx, jobID, domain.ArtifactOutline); err != nil {
		logger.Warn("failed to mark artifact", "artifact", domain.ArtifactOutline, "error", err)
	}

	// Stage 5: dialogue.
	if done, err := p.enter(ctx, jobID, domain.JobStatusGeneratingDialogue, "writing episode dialogue"); done || err != nil {
		return err
	}
	transcript, err := p.script.GenerateDialogue(ctx, outline, profiles, req)
	if err != nil {
		return p.fail(ctx, jobID, "failed to generate dialogue", fmt.Errorf("%w: %v", ErrLLM, err))
	}
	if len(transcript.Lines) == 0 {
		return p.fail(ctx, jobID, "failed to generate dialogue", fmt.Errorf("%w: empty transcript", ErrLLM))
	}
	transcriptLocation, err := p.artifacts.Put(ctx,
		fmt.Sprintf("jobs/%s/transcript.txt", jobID),
		"text/plain; charset=utf-8",
		[]byte(renderTranscript(transcript)))
	if err != nil {
		return p.fail(ctx, jobID, "failed to store generated artifacts", fmt.Errorf("%w: transcript: %v", ErrStorage, err))
	}
	if err := p.status.MarkArtifact(ctx, jobID, domain.ArtifactTranscript); err != nil {
		logger.Warn("failed to mark artifact", "artifact", domain.ArtifactTranscript, "error", err)
	}

	// Stage 6: speech synthesis. The flag is re-checked per line because this
	// is the longest stage by far.
	if done, err := p.enter(ctx, jobID, domain.JobStatusGeneratingAudio, "synthesizing audio segments"); done || err != nil {
		return err
	}
	segments := make([][]byte, 0, len(transcript.Lines))
	for i, line := range transcript.Lines {
		if p.cancelled(ctx, jobID) {
			return p.cancel(ctx, jobID)
		}
		audio, err := p.tts.Synthesize(ctx, line.Text, p.voiceFor(req, line.Speaker))
		if err != nil {
			return p.fail(ctx, jobID, "failed to synthesize audio",
				fmt.Errorf("%w: segment %d of %d: %v", ErrTTS, i+1, len(transcript.Lines), err))
		}
		segments = append(segments, audio)
	}
	if err := p.status.AppendLog(ctx, jobID, fmt.Sprintf("synthesized %d audio segments", len(segments))); err != nil {
		logger.Warn("failed to append log", "error", err)
	}

	// Stage 7: stitching.
	if done, err := p.enter(ctx, jobID, domain.JobStatusStitchingAudio, "stitching episode audio"); done || err != nil {
		return err
	}
	episode, err := p.stitcher.Stitch(ctx, segments)
	if err != nil {
		return p.fail(ctx, jobID, "failed to assemble episode audio", fmt.Errorf("%w: %v", ErrStitching, err))
	}

	// Stage 8: persist the final episode and complete.
	if done, err := p.enter(ctx, jobID, domain.JobStatusPostprocessing, "storing final episode"); done || err != nil {
		return err
	}
	audioLocation, err := p.artifacts.Put(ctx,
		fmt.Sprintf("jobs/%s/episode.mp3", jobID),
		"audio/mpeg",
		episode)
	if err != nil {
		return p.fail(ctx, jobID, "failed to store generated artifacts", fmt.Errorf("%w: episode audio: %v", ErrStorage, err))
	}
	if err := p.status.MarkArtifact(ctx, jobID, domain.ArtifactAudio); err != nil {
		logger.Warn("failed to mark artifact", "artifact", domain.ArtifactAudio, "error", err)
	}

	result := &domain.PodcastResult{
		AudioLocation:      audioLocation,
		TranscriptLocation: transcriptLocation,
		SegmentCount:       len(segments),
		Personas:           profileNames(profiles),
	}
	if err := p.status.Complete(ctx, jobID, result); err != nil {
		return fmt.Errorf("failed to record completion: %w", err)
	}

	logger.Info("pipeline finished",
		slog.Int("segments", result.SegmentCount),
		slog.String("audio_location", audioLocation))
	return nil
}

// enter is the shared stage-boundary step: observe the cancellation flag,
// then advance the job into the stage with its cumulative progress. A true
// first return means the run is over (cancelled) and already recorded.
func (p *Pipeline) enter(ctx context.Context, jobID uuid.UUID, stage domain.JobStatus, description string) (bool, error) {
	if p.cancelled(ctx, jobID) {
		return true, p.cancel(ctx, jobID)
	}
	if err := p.status.UpdateStatus(ctx, jobID, stage, description, p.weights.ProgressFor(stage)); err != nil {
		return false, fmt.Errorf("failed to enter stage %s: %w", stage, err)
	}
	return false, nil
}

func (p *Pipeline) cancelled(ctx context.Context, jobID uuid.UUID) bool {
	return p.runner.IsCancelled(jobID) || ctx.Err() != nil
}

// cancel records cooperative cancellation. The nil return keeps the
// scheduler's completion handler from treating the unwind as a failure.
func (p *Pipeline) cancel(ctx context.Context, jobID uuid.UUID) error {
	// The run context may be the thing that was cancelled.
	if err := p.status.Cancel(context.WithoutCancel(ctx), jobID, "cancelled by user request"); err != nil {
		p.logger.Error("failed to record cancellation",
			slog.String("job_id", jobID.String()),
			"error", err)
	}
	return nil
}

// fail records the terminal failure and returns the cause so the scheduler
// logs it. Summary is the caller-safe description; the cause goes into the
// diagnostic detail field only.
func (p *Pipeline) fail(ctx context.Context, jobID uuid.UUID, summary string, cause error) error {
	if err := p.status.Fail(context.WithoutCancel(ctx), jobID, summary, cause.Error()); err != nil {
		p.logger.Error("failed to record failure",
			slog.String("job_id", jobID.String()),
			"error", err)
	}
	return cause
}

func (p *Pipeline) voiceFor(req domain.PodcastRequest, speaker string) string {
	if voice, ok := req.Voices[speaker]; ok && voice != "" {
		return voice
	}
	return p.voice
}

// defaultProfiles is the host/guest pair used when the request names no
// personas.
func defaultProfiles() []PersonaProfile {
	return []PersonaProfile{
		{Name: "Host", SpeakingStyle: "curious, guides the conversation"},
		{Name: "Guest", SpeakingStyle: "knowledgeable, explains in depth"},
	}
}

func profileNames(profiles []PersonaProfile) []string {
	names := make([]string, len(profiles))
	for i, profile := range profiles {
		names[i] = profile.Name
	}
	return names
}

func renderTranscript(t *Transcript) string {
	var b strings.Builder
	for _, line := range t.Lines {
		b.WriteString(line.Speaker)
		b.WriteString(": ")
		b.WriteString(line.Text)
		b.WriteString("\n")
	}
	return b.String()
}
