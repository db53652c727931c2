// Package tts implements the speech synthesis collaborator against the
// Google Cloud Text-to-Speech REST API.
package tts
