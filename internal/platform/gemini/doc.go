// Package gemini implements the pipeline's script generation collaborator on
// top of Google's Gemini API: source analysis, persona research, outlining,
// and dialogue writing, each driven by a JSON-schema prompt.
package gemini
