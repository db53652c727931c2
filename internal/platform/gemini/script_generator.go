package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"text/template"
	"time"

	"google.golang.org/genai"

	"github.com/podforge/podforge-api/internal/config"
	"github.com/podforge/podforge-api/internal/domain"
	"github.com/podforge/podforge-api/internal/workflow"
)

// ScriptGenerator implements the workflow.ScriptGenerator interface using
// Google's Gemini API for the text stages of the pipeline.
type ScriptGenerator struct {
	logger *slog.Logger
	config config.LLMConfig
	client *genai.Client
	model  string

	analyzeTmpl  *template.Template
	personasTmpl *template.Template
	outlineTmpl  *template.Template
	dialogueTmpl *template.Template
}

// Ensure ScriptGenerator implements workflow.ScriptGenerator.
var _ workflow.ScriptGenerator = (*ScriptGenerator)(nil)

// NewScriptGenerator creates a ScriptGenerator with the provided
// configuration. The context is used for client initialization only.
func NewScriptGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*ScriptGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", ErrInvalidConfig, err)
	}

	return &ScriptGenerator{
		logger:       logger.With(slog.String("component", "script_generator")),
		config:       cfg,
		client:       client,
		model:        cfg.ModelName,
		analyzeTmpl:  template.Must(template.New("analyze").Parse(analyzePromptText)),
		personasTmpl: template.Must(template.New("personas").Parse(personasPromptText)),
		outlineTmpl:  template.Must(template.New("outline").Parse(outlinePromptText)),
		dialogueTmpl: template.Must(template.New("dialogue").Parse(dialoguePromptText)),
	}, nil
}

// AnalyzeSources reads the extracted sources and produces a structured
// analysis.
func (g *ScriptGenerator) AnalyzeSources(ctx context.Context, sources []workflow.ExtractedSource) (*workflow.Analysis, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no sources to analyze", ErrEmptyInput)
	}

	var analysis workflow.Analysis
	err := g.generateJSON(ctx, g.analyzeTmpl, struct {
		Sources []workflow.ExtractedSource
	}{sources}, &analysis)
	if err != nil {
		return nil, err
	}
	if analysis.Summary == "" {
		return nil, fmt.Errorf("%w: analysis has no summary", ErrInvalidResponse)
	}
	return &analysis, nil
}

// ResearchPersonas enriches the requested speaker names into profiles.
func (g *ScriptGenerator) ResearchPersonas(ctx context.Context, analysis *workflow.Analysis, personas []string) ([]workflow.PersonaProfile, error) {
	if len(personas) == 0 {
		return nil, fmt.Errorf("%w: no personas to research", ErrEmptyInput)
	}

	var out struct {
		Personas []workflow.PersonaProfile `json:"personas"`
	}
	err := g.generateJSON(ctx, g.personasTmpl, struct {
		Summary  string
		Personas []string
	}{analysis.Summary, personas}, &out)
	if err != nil {
		return nil, err
	}

	// The model must cover every requested name; fill gaps rather than fail.
	byName := make(map[string]workflow.PersonaProfile, len(out.Personas))
	for _, profile := range out.Personas {
		byName[strings.ToLower(profile.Name)] = profile
	}
	profiles := make([]workflow.PersonaProfile, len(personas))
	for i, name := range personas {
		if profile, ok := byName[strings.ToLower(name)]; ok {
			profile.Name = name
			profiles[i] = profile
		} else {
			g.logger.WarnContext(ctx, "model omitted a requested persona", "persona", name)
			profiles[i] = workflow.PersonaProfile{Name: name}
		}
	}
	return profiles, nil
}

// GenerateOutline plans the episode structure.
func (g *ScriptGenerator) GenerateOutline(ctx context.Context, analysis *workflow.Analysis, profiles []workflow.PersonaProfile, req domain.PodcastRequest) (*workflow.Outline, error) {
	var outline workflow.Outline
	err := g.generateJSON(ctx, g.outlineTmpl, struct {
		Analysis      *workflow.Analysis
		Profiles      []workflow.PersonaProfile
		Style         string
		TargetMinutes int
	}{analysis, profiles, req.Style, req.TargetMinutes}, &outline)
	if err != nil {
		return nil, err
	}
	if len(outline.Sections) == 0 {
		return nil, fmt.Errorf("%w: outline has no sections", ErrInvalidResponse)
	}
	return &outline, nil
}

// GenerateDialogue writes the full script from the outline.
func (g *ScriptGenerator) GenerateDialogue(ctx context.Context, outline *workflow.Outline, profiles []workflow.PersonaProfile, req domain.PodcastRequest) (*workflow.Transcript, error) {
	var transcript workflow.Transcript
	err := g.generateJSON(ctx, g.dialogueTmpl, struct {
		Outline       *workflow.Outline
		Profiles      []workflow.PersonaProfile
		Style         string
		TargetMinutes int
	}{outline, profiles, req.Style, req.TargetMinutes}, &transcript)
	if err != nil {
		return nil, err
	}
	if len(transcript.Lines) == 0 {
		return nil, fmt.Errorf("%w: transcript has no lines", ErrInvalidResponse)
	}
	for i, line := range transcript.Lines {
		if line.Speaker == "" || line.Text == "" {
			return nil, fmt.Errorf("%w: line %d missing speaker or text", ErrInvalidResponse, i)
		}
	}
	return &transcript, nil
}

// generateJSON renders the prompt template, calls the model with retry, and
// unmarshals the JSON response into out.
func (g *ScriptGenerator) generateJSON(ctx context.Context, tmpl *template.Template, data any, out any) error {
	var prompt bytes.Buffer
	if err := tmpl.Execute(&prompt, data); err != nil {
		return fmt.Errorf("failed to execute prompt template %s: %w", tmpl.Name(), err)
	}

	text, err := g.callWithRetry(ctx, tmpl.Name(), prompt.String())
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(stripFences(text)), out); err != nil {
		return fmt.Errorf("%w: failed to parse JSON from %s response: %v", ErrInvalidResponse, tmpl.Name(), err)
	}
	return nil
}

// callWithRetry makes the API call with exponential backoff and jitter.
// Permanent errors (blocked content, unparseable responses) are returned
// immediately; transient API errors are retried up to config.MaxRetries
// times.
func (g *ScriptGenerator) callWithRetry(ctx context.Context, stage, prompt string) (string, error) {
	maxRetries := g.config.MaxRetries
	if maxRetries < 0 {
		g.logger.WarnContext(ctx, "invalid max retries value, using default", "max_retries", 3)
		maxRetries = 3
	}
	baseDelaySeconds := g.config.RetryDelaySeconds
	if baseDelaySeconds < 1 {
		baseDelaySeconds = 2
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	genConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	for attempt := 0; ; attempt++ {
		g.logger.InfoContext(ctx, "calling gemini",
			"stage", stage,
			"model", g.model,
			"attempt", attempt+1,
			"max_attempts", maxRetries+1)

		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), genConfig)
		switch {
		case err != nil:
			// API-level failure, assumed transient.
			g.logger.ErrorContext(ctx, "gemini call failed",
				"stage", stage,
				"attempt", attempt+1,
				"error", err)
		case len(resp.Candidates) == 0:
			return "", fmt.Errorf("%w: no candidates returned", ErrInvalidResponse)
		case resp.Candidates[0].FinishReason == genai.FinishReasonSafety:
			return "", ErrContentBlocked
		default:
			text := resp.Text()
			if text == "" {
				return "", fmt.Errorf("%w: empty response text", ErrInvalidResponse)
			}
			return text, nil
		}

		if attempt >= maxRetries {
			return "", fmt.Errorf("%w: exceeded %d attempts: %v", ErrTransientFailure, maxRetries+1, err)
		}

		// delay = baseDelay * 2^attempt * jitter in [0.5, 1.0)
		backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoffSeconds * (0.5 + rng.Float64()*0.5) * float64(time.Second))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", ErrTransientFailure, ctx.Err())
		}
	}
}

// stripFences removes a markdown code fence if the model wrapped its JSON in
// one despite the instructions.
func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
