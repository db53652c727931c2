package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/podforge/podforge-api/internal/config"
	"github.com/podforge/podforge-api/internal/workflow"
)

// DefaultEndpoint is the Google Cloud Text-to-Speech synthesis endpoint.
const DefaultEndpoint = "https://texttospeech.googleapis.com/v1/text:synthesize"

// Errors returned by the TTS client.
var (
	// ErrInvalidConfig indicates the client was constructed with missing
	// configuration.
	ErrInvalidConfig = errors.New("invalid tts configuration")

	// ErrSynthesis indicates the synthesis API call failed.
	ErrSynthesis = errors.New("synthesis request failed")
)

// Client implements the workflow.SpeechSynthesizer interface against the
// Google Cloud Text-to-Speech REST API.
type Client struct {
	httpClient   *http.Client
	endpoint     string
	apiKey       string
	languageCode string
	logger       *slog.Logger
}

// Ensure Client implements workflow.SpeechSynthesizer.
var _ workflow.SpeechSynthesizer = (*Client)(nil)

// NewClient creates a TTS client from configuration.
func NewClient(cfg config.TTSConfig, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: API key cannot be empty", ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	languageCode := cfg.LanguageCode
	if languageCode == "" {
		languageCode = "en-US"
	}

	return &Client{
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		endpoint:     endpoint,
		apiKey:       cfg.APIKey,
		languageCode: languageCode,
		logger:       logger.With(slog.String("component", "tts_client")),
	}, nil
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name,omitempty"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string `json:"audioEncoding"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

// Synthesize converts one utterance into MP3 audio using the named voice.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", ErrSynthesis)
	}

	var reqBody synthesizeRequest
	reqBody.Input.Text = text
	reqBody.Voice.LanguageCode = c.languageCode
	reqBody.Voice.Name = voice
	reqBody.AudioConfig.AudioEncoding = "MP3"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal request: %v", ErrSynthesis, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d: %s", ErrSynthesis, resp.StatusCode, body)
	}

	var parsed synthesizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrSynthesis, err)
	}
	if parsed.AudioContent == "" {
		return nil, fmt.Errorf("%w: response has no audio content", ErrSynthesis)
	}

	audio, err := base64.StdEncoding.DecodeString(parsed.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode audio content: %v", ErrSynthesis, err)
	}

	c.logger.DebugContext(ctx, "synthesized utterance",
		slog.Int("text_length", len(text)),
		slog.Int("audio_bytes", len(audio)),
		slog.String("voice", voice))
	return audio, nil
}
