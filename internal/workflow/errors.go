package workflow

import "errors"

// Collaborator failure classes. Pipeline stages wrap collaborator errors with
// one of these so the failure summary written to the job record names the
// failing subsystem without leaking provider internals.
var (
	// ErrExtraction indicates a source could not be fetched or converted to
	// text.
	ErrExtraction = errors.New("source extraction failed")

	// ErrLLM indicates the script generator returned an error or unusable
	// output.
	ErrLLM = errors.New("script generation failed")

	// ErrTTS indicates speech synthesis failed for a dialogue line.
	ErrTTS = errors.New("speech synthesis failed")

	// ErrStitching indicates the synthesized segments could not be joined
	// into one episode.
	ErrStitching = errors.New("audio stitching failed")

	// ErrStorage indicates an artifact could not be persisted.
	ErrStorage = errors.New("artifact storage failed")
)
