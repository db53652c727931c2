// Package status implements the status manager: the single writer for job
// records. It owns the state machine transition rules, monotonic progress,
// the append-only job log, and the artifact availability flags. Everything
// else in the system reads and writes job state through this package.
package status
