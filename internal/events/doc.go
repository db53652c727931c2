// Package events provides a minimal in-process event system that decouples
// the submission path from job construction: the service layer emits a job
// request event, and the registered handler builds and schedules the job.
package events
