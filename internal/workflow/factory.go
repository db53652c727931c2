package workflow

import (
	"context"

	"github.com/google/uuid"
	"github.com/podforge/podforge-api/internal/domain"
	"github.com/podforge/podforge-api/internal/task"
)

// PipelineJobFactory adapts the pipeline to the scheduler's job factory
// contract: each job function runs the full pipeline for its job ID.
type PipelineJobFactory struct {
	pipeline *Pipeline
}

// NewPipelineJobFactory creates a factory producing pipeline runs.
func NewPipelineJobFactory(pipeline *Pipeline) *PipelineJobFactory {
	if pipeline == nil {
		panic("pipeline cannot be nil")
	}
	return &PipelineJobFactory{pipeline: pipeline}
}

// Ensure PipelineJobFactory implements task.JobFactory.
var _ task.JobFactory = (*PipelineJobFactory)(nil)

// NewJob returns the job function executing the generation pipeline.
func (f *PipelineJobFactory) NewJob(jobID uuid.UUID, req domain.PodcastRequest) task.JobFunc {
	return func(ctx context.Context) error {
		return f.pipeline.Run(ctx, jobID, req)
	}
}
