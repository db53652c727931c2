package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the processing state of a generation job.
type JobStatus string

// Possible job status values, in pipeline order. A job advances strictly
// forward through the non-terminal states (skipping no-op stages is allowed)
// and ends in exactly one of the terminal states.
const (
	JobStatusQueued              JobStatus = "queued"
	JobStatusPreprocessing       JobStatus = "preprocessing_sources"
	JobStatusAnalyzing           JobStatus = "analyzing_sources"
	JobStatusResearchingPersonas JobStatus = "researching_personas"
	JobStatusGeneratingOutline   JobStatus = "generating_outline"
	JobStatusGeneratingDialogue  JobStatus = "generating_dialogue"
	JobStatusGeneratingAudio     JobStatus = "generating_audio_segments"
	JobStatusStitchingAudio      JobStatus = "stitching_audio"
	JobStatusPostprocessing      JobStatus = "postprocessing_final"
	JobStatusCompleted           JobStatus = "completed"
	JobStatusFailed              JobStatus = "failed"
	JobStatusCancelled           JobStatus = "cancelled"
)

// pipelineOrder assigns each forward-chain status its position in the
// required traversal order. The two sink states are intentionally absent;
// they are reachable from any non-terminal state and never left.
var pipelineOrder = map[JobStatus]int{
	JobStatusQueued:              0,
	JobStatusPreprocessing:       1,
	JobStatusAnalyzing:           2,
	JobStatusResearchingPersonas: 3,
	JobStatusGeneratingOutline:   4,
	JobStatusGeneratingDialogue:  5,
	JobStatusGeneratingAudio:     6,
	JobStatusStitchingAudio:      7,
	JobStatusPostprocessing:      8,
	JobStatusCompleted:           9,
}

// PipelineStages returns the intermediate pipeline stages in traversal
// order, excluding queued and the terminal states.
func PipelineStages() []JobStatus {
	return []JobStatus{
		JobStatusPreprocessing,
		JobStatusAnalyzing,
		JobStatusResearchingPersonas,
		JobStatusGeneratingOutline,
		JobStatusGeneratingDialogue,
		JobStatusGeneratingAudio,
		JobStatusStitchingAudio,
		JobStatusPostprocessing,
	}
}

// IsValid reports whether the status is a member of the closed enum.
func (s JobStatus) IsValid() bool {
	if _, ok := pipelineOrder[s]; ok {
		return true
	}
	return s == JobStatusFailed || s == JobStatusCancelled
}

// IsTerminal reports whether the status is one of the three sink states
// from which no further transitions are valid.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// CanTransitionTo reports whether the state machine permits moving from s
// to next. Legal moves are: any non-terminal state to failed or cancelled,
// and any forward move along the pipeline chain. Skipping stages is allowed;
// moving backwards or out of a terminal state is not.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	if s.IsTerminal() {
		return false
	}
	if next == JobStatusFailed || next == JobStatusCancelled {
		return true
	}
	return pipelineOrder[next] > pipelineOrder[s]
}

// LogEntry is one timestamped line in a job's append-only log.
type LogEntry struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// Job is the tracked execution state of one podcast-generation request.
// The record is created before admission control runs and is mutated only
// through the status manager, which enforces the state machine.
type Job struct {
	ID            uuid.UUID       `json:"id"`
	Status        JobStatus       `json:"status"`
	Progress      float64         `json:"progress"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	RequestParams json.RawMessage `json:"request_params"`
	Result        json.RawMessage `json:"result,omitempty"`
	ErrorSummary  string          `json:"error_summary,omitempty"`
	ErrorDetail   string          `json:"error_detail,omitempty"`
	Artifacts     map[string]bool `json:"artifacts"`
	Logs          []LogEntry      `json:"logs"`
}

// NewJob creates a new Job in the queued state with zero progress, no logs,
// and no artifacts. Returns an error if validation fails.
func NewJob(id uuid.UUID, params json.RawMessage) (*Job, error) {
	now := time.Now().UTC()
	job := &Job{
		ID:            id,
		Status:        JobStatusQueued,
		Progress:      0,
		Description:   "waiting for capacity",
		CreatedAt:     now,
		UpdatedAt:     now,
		RequestParams: params,
		Artifacts:     map[string]bool{},
		Logs:          []LogEntry{},
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks if the Job has valid data.
// Returns an error if any field fails validation.
func (j *Job) Validate() error {
	if j.ID == uuid.Nil {
		return ErrEmptyJobID
	}

	if len(j.RequestParams) == 0 {
		return ErrEmptyRequest
	}

	if !j.Status.IsValid() {
		return ErrInvalidJobStatus
	}

	if j.Progress < 0 || j.Progress > 100 {
		return ErrInvalidProgress
	}

	return nil
}

// Clone returns a deep copy of the job. Stores hand out clones so callers
// can never mutate a shared record.
func (j *Job) Clone() *Job {
	dup := *j
	dup.RequestParams = append(json.RawMessage(nil), j.RequestParams...)
	dup.Result = append(json.RawMessage(nil), j.Result...)
	dup.Artifacts = make(map[string]bool, len(j.Artifacts))
	for name, available := range j.Artifacts {
		dup.Artifacts[name] = available
	}
	dup.Logs = append([]LogEntry(nil), j.Logs...)
	return &dup
}
