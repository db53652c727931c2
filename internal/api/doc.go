// Package api contains the HTTP handlers and request/response models for
// the podcast generation API.
package api
