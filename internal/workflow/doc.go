// Package workflow orchestrates the podcast generation pipeline: a fixed
// sequence of stages that each observe the cancellation flag, advance the job
// status, and call one external collaborator. The collaborator interfaces are
// defined here and implemented under internal/platform.
package workflow
