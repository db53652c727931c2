// Package domain defines the core business entities for podcast generation
// jobs: the Job record, the pipeline status state machine, stage progress
// weights, and the request/result payload types.
package domain
