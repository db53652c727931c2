// Package service contains the application services bridging the HTTP API
// and the orchestration core.
package service
