package domain

import (
	"fmt"
	"math"
)

// StageWeights maps each pipeline stage to its share of overall progress.
// The weights of all stages must sum to 100. Progress reported on entry to a
// stage is the cumulative weight of every stage before it, so progress only
// moves when a stage finishes; intra-stage progress is a collaborator
// concern, not tracked here.
type StageWeights map[JobStatus]float64

// DefaultStageWeights returns the standard progress weighting. The exact
// percentages are tunable configuration, not a contract.
func DefaultStageWeights() StageWeights {
	return StageWeights{
		JobStatusPreprocessing:       5,
		JobStatusAnalyzing:           15,
		JobStatusResearchingPersonas: 15,
		JobStatusGeneratingOutline:   10,
		JobStatusGeneratingDialogue:  25,
		JobStatusGeneratingAudio:     20,
		JobStatusStitchingAudio:      8,
		JobStatusPostprocessing:      2,
	}
}

// Validate checks that every pipeline stage has a non-negative weight and
// that the weights sum to 100.
func (w StageWeights) Validate() error {
	var total float64
	for _, stage := range PipelineStages() {
		weight, ok := w[stage]
		if !ok {
			return fmt.Errorf("%w: missing weight for stage %q", ErrInvalidProgress, stage)
		}
		if weight < 0 {
			return fmt.Errorf("%w: negative weight for stage %q", ErrInvalidProgress, stage)
		}
		total += weight
	}
	if math.Abs(total-100) > 1e-9 {
		return fmt.Errorf("%w: stage weights sum to %.2f, want 100", ErrInvalidProgress, total)
	}
	return nil
}

// ProgressFor returns the progress percentage a job carries on entering the
// given status: the cumulative weight of every stage completed before it.
// Entering the first pipeline stage yields 0 and entering completed yields
// 100. Terminal failure states freeze progress, so they report 0 here and
// callers must not use this for failed/cancelled.
func (w StageWeights) ProgressFor(status JobStatus) float64 {
	ord, ok := pipelineOrder[status]
	if !ok {
		return 0
	}

	var total float64
	for _, stage := range PipelineStages() {
		if pipelineOrder[stage] < ord {
			total += w[stage]
		}
	}
	return total
}
