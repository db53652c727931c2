package workflow

import (
	"context"

	"github.com/podforge/podforge-api/internal/domain"
)

// ExtractedSource pairs a source descriptor with its extracted plain text.
type ExtractedSource struct {
	Source domain.Source
	Text   string
}

// Analysis is the LLM's structured reading of the combined source material.
type Analysis struct {
	Summary   string   `json:"summary"`
	KeyTopics []string `json:"key_topics,omitempty"`
}

// PersonaProfile describes one speaker of the episode.
type PersonaProfile struct {
	Name          string `json:"name"`
	Background    string `json:"background,omitempty"`
	SpeakingStyle string `json:"speaking_style,omitempty"`
}

// OutlineSection is one planned segment of the episode.
type OutlineSection struct {
	Title  string   `json:"title"`
	Points []string `json:"points,omitempty"`
}

// Outline is the planned structure of the episode.
type Outline struct {
	Sections []OutlineSection `json:"sections"`
}

// DialogueLine is one utterance of the generated script.
type DialogueLine struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Transcript is the full generated script in speaking order.
type Transcript struct {
	Lines []DialogueLine `json:"lines"`
}

// ContentExtractor turns one source descriptor into plain text.
// Implementations live under internal/platform/extract.
type ContentExtractor interface {
	Extract(ctx context.Context, src domain.Source) (string, error)
}

// ScriptGenerator is the LLM collaborator that drives the text stages of the
// pipeline. Implementations live under internal/platform/gemini.
type ScriptGenerator interface {
	// AnalyzeSources reads the extracted sources and produces an analysis.
	AnalyzeSources(ctx context.Context, sources []ExtractedSource) (*Analysis, error)

	// ResearchPersonas enriches the requested speaker names into profiles.
	ResearchPersonas(ctx context.Context, analysis *Analysis, personas []string) ([]PersonaProfile, error)

	// GenerateOutline plans the episode structure.
	GenerateOutline(ctx context.Context, analysis *Analysis, profiles []PersonaProfile, req domain.PodcastRequest) (*Outline, error)

	// GenerateDialogue writes the full script from the outline.
	GenerateDialogue(ctx context.Context, outline *Outline, profiles []PersonaProfile, req domain.PodcastRequest) (*Transcript, error)
}

// SpeechSynthesizer converts one dialogue line into encoded audio.
// Implementations live under internal/platform/tts.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// AudioStitcher concatenates encoded audio segments into one episode.
// Implementations live under internal/platform/audio.
type AudioStitcher interface {
	Stitch(ctx context.Context, segments [][]byte) ([]byte, error)
}

// ArtifactStore persists generated artifacts and returns a stable location
// string for the result payload. Implementations live under
// internal/platform/artifacts.
type ArtifactStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}
