package gemini

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/podforge/podforge-api/internal/config"
	"github.com/podforge/podforge-api/internal/domain"
	"github.com/podforge/podforge-api/internal/workflow"
)

func TestNewScriptGenerator_ConfigValidation(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("nil logger", func(t *testing.T) {
		t.Parallel()
		_, err := NewScriptGenerator(ctx, nil, config.LLMConfig{GeminiAPIKey: "k", ModelName: "m"})
		assert.Error(t, err)
	})

	t.Run("missing api key", func(t *testing.T) {
		t.Parallel()
		_, err := NewScriptGenerator(ctx, logger, config.LLMConfig{ModelName: "m"})
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("missing model name", func(t *testing.T) {
		t.Parallel()
		_, err := NewScriptGenerator(ctx, logger, config.LLMConfig{GeminiAPIKey: "k"})
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestPromptTemplates_Render(t *testing.T) {
	t.Parallel()

	render := func(t *testing.T, name, text string, data any) string {
		t.Helper()
		tmpl, err := template.New(name).Parse(text)
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, tmpl.Execute(&buf, data))
		return buf.String()
	}

	t.Run("analyze", func(t *testing.T) {
		t.Parallel()
		out := render(t, "analyze", analyzePromptText, struct {
			Sources []workflow.ExtractedSource
		}{[]workflow.ExtractedSource{
			{Source: domain.Source{Type: domain.SourceTypeURL, Value: "https://example.com"}, Text: "article body"},
		}})
		assert.Contains(t, out, "article body")
		assert.Contains(t, out, `"summary"`)
	})

	t.Run("personas", func(t *testing.T) {
		t.Parallel()
		out := render(t, "personas", personasPromptText, struct {
			Summary  string
			Personas []string
		}{"a summary", []string{"Ada", "Grace"}})
		assert.Contains(t, out, "- Ada")
		assert.Contains(t, out, "- Grace")
	})

	t.Run("outline", func(t *testing.T) {
		t.Parallel()
		out := render(t, "outline", outlinePromptText, struct {
			Analysis      *workflow.Analysis
			Profiles      []workflow.PersonaProfile
			Style         string
			TargetMinutes int
		}{
			&workflow.Analysis{Summary: "s", KeyTopics: []string{"topic-a"}},
			[]workflow.PersonaProfile{{Name: "Host", SpeakingStyle: "curious"}},
			"casual", 15,
		})
		assert.Contains(t, out, "topic-a")
		assert.Contains(t, out, "about 15 minutes")
		assert.Contains(t, out, "Desired tone: casual")
	})

	t.Run("dialogue", func(t *testing.T) {
		t.Parallel()
		out := render(t, "dialogue", dialoguePromptText, struct {
			Outline       *workflow.Outline
			Profiles      []workflow.PersonaProfile
			Style         string
			TargetMinutes int
		}{
			&workflow.Outline{Sections: []workflow.OutlineSection{{Title: "intro", Points: []string{"welcome"}}}},
			[]workflow.PersonaProfile{{Name: "Host", Background: "journalist"}},
			"", 0,
		})
		assert.Contains(t, out, "## intro")
		assert.Contains(t, out, "Host: journalist")
		assert.NotContains(t, out, "Desired tone")
	})
}

func TestStripFences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}\n", `{"a":1}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, stripFences(tc.in))
		})
	}
}
