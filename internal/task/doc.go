// Package task implements the background job scheduler: bounded-concurrency
// admission control, cooperative per-job cancellation flags, and supervised
// execution that guarantees every admitted job ends in exactly one terminal
// status.
package task
