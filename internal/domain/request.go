package domain

import "fmt"

// SourceType identifies how a source's content is retrieved.
type SourceType string

// Supported source types.
const (
	SourceTypeURL     SourceType = "url"
	SourceTypePDF     SourceType = "pdf"
	SourceTypeYouTube SourceType = "youtube"
	SourceTypeText    SourceType = "text"
)

// Source describes one input document for a podcast.
type Source struct {
	Type  SourceType `json:"type"`
	Value string     `json:"value"`
}

// Validate checks the source descriptor.
func (s Source) Validate() error {
	switch s.Type {
	case SourceTypeURL, SourceTypePDF, SourceTypeYouTube, SourceTypeText:
	default:
		return fmt.Errorf("%w: unknown source type %q", ErrInvalidSource, s.Type)
	}
	if s.Value == "" {
		return fmt.Errorf("%w: empty value", ErrInvalidSource)
	}
	return nil
}

// PodcastRequest is the immutable snapshot of a caller's input, captured at
// job creation and never modified afterwards.
type PodcastRequest struct {
	// Title is an optional display title for the episode.
	Title string `json:"title,omitempty"`

	// Sources are the documents to build the episode from.
	Sources []Source `json:"sources"`

	// Personas are the named speakers of the episode. When empty, the
	// persona research stage is skipped and a default host/guest pair is
	// used downstream.
	Personas []string `json:"personas,omitempty"`

	// Style is a freeform hint for the dialogue tone (e.g. "casual",
	// "formal debate").
	Style string `json:"style,omitempty"`

	// TargetMinutes is the desired episode length. Zero means the dialogue
	// generator decides.
	TargetMinutes int `json:"target_minutes,omitempty"`

	// Voices maps persona names to TTS voice identifiers.
	Voices map[string]string `json:"voices,omitempty"`
}

// Validate checks the request.
func (r *PodcastRequest) Validate() error {
	if len(r.Sources) == 0 {
		return ErrNoSources
	}
	for _, src := range r.Sources {
		if err := src.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// PodcastResult is the output payload written exactly once, on the
// transition into completed.
type PodcastResult struct {
	// AudioLocation is where the final stitched episode was persisted.
	AudioLocation string `json:"audio_location"`

	// TranscriptLocation is where the dialogue transcript was persisted.
	TranscriptLocation string `json:"transcript_location"`

	// SegmentCount is the number of synthesized dialogue segments.
	SegmentCount int `json:"segment_count"`

	// Personas are the speakers that ended up in the episode.
	Personas []string `json:"personas,omitempty"`
}

// Named intermediate artifacts tracked on the job record. Each flag latches
// from false to true exactly once as the pipeline produces the artifact.
const (
	ArtifactSourceText = "source_text"
	ArtifactAnalysis   = "analysis"
	ArtifactOutline    = "outline"
	ArtifactTranscript = "transcript"
	ArtifactAudio      = "audio"
)
