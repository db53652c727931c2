package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrInvalidTransition is returned when a status update would move the
	// job state machine along an edge that does not exist. This indicates a
	// programming error in the caller and is fatal to the affected job.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidJobStatus is returned when a status value is not a member of
	// the closed JobStatus enum.
	ErrInvalidJobStatus = errors.New("invalid job status")

	// ErrEmptyJobID is returned when a job is created with a nil UUID.
	ErrEmptyJobID = errors.New("job ID cannot be empty")

	// ErrEmptyRequest is returned when a job is created without request
	// parameters.
	ErrEmptyRequest = errors.New("request parameters cannot be empty")

	// ErrInvalidProgress is returned when a progress value falls outside
	// the [0,100] range.
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")

	// ErrNoSources is returned when a podcast request names no sources.
	ErrNoSources = errors.New("at least one source is required")

	// ErrInvalidSource is returned when a source descriptor is malformed.
	ErrInvalidSource = errors.New("invalid source descriptor")
)
