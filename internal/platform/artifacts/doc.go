// Package artifacts implements the artifact storage collaborator: an S3
// backend, a local filesystem backend, and a fallback wrapper that degrades
// from one to the other.
package artifacts
