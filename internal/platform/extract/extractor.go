package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/podforge/podforge-api/internal/domain"
	"github.com/podforge/podforge-api/internal/workflow"
)

// maxFetchBytes caps how much of a remote document is read.
const maxFetchBytes = 10 << 20

// Errors returned by the extractor.
var (
	// ErrUnsupportedSource indicates the source type has no extraction
	// strategy.
	ErrUnsupportedSource = errors.New("unsupported source type")

	// ErrEmptyContent indicates extraction succeeded but yielded no usable
	// text.
	ErrEmptyContent = errors.New("source yielded no text content")
)

// Extractor implements the workflow.ContentExtractor interface. It dispatches
// on the source type: inline text passes through, URLs are fetched and
// converted from HTML, PDFs go through pdftotext, and YouTube links go
// through yt-dlp.
type Extractor struct {
	httpClient *http.Client
	pdfCommand string
	ytCommand  string
	logger     *slog.Logger
}

// Ensure Extractor implements workflow.ContentExtractor.
var _ workflow.ContentExtractor = (*Extractor)(nil)

// NewExtractor creates an extractor with default tooling.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		pdfCommand: "pdftotext",
		ytCommand:  "yt-dlp",
		logger:     logger.With(slog.String("component", "extractor")),
	}
}

// Extract returns the plain text content of one source.
func (e *Extractor) Extract(ctx context.Context, src domain.Source) (string, error) {
	var (
		text string
		err  error
	)

	switch src.Type {
	case domain.SourceTypeText:
		text = strings.TrimSpace(src.Value)
	case domain.SourceTypeURL:
		text, err = e.fetchURL(ctx, src.Value)
	case domain.SourceTypePDF:
		text, err = e.extractPDF(ctx, src.Value)
	case domain.SourceTypeYouTube:
		text, err = e.extractYouTube(ctx, src.Value)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSource, src.Type)
	}
	if err != nil {
		return "", err
	}

	if text == "" {
		return "", fmt.Errorf("%w: %s %q", ErrEmptyContent, src.Type, src.Value)
	}

	e.logger.DebugContext(ctx, "source extracted",
		slog.String("type", string(src.Type)),
		slog.Int("text_length", len(text)))
	return text, nil
}

// fetchURL downloads the document and converts HTML to plain text. Non-HTML
// responses are returned as-is.
func (e *Extractor) fetchURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %q: %w", url, err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %q: %w", url, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			e.logger.Warn("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch %q: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read %q: %w", url, err)
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return htmlToText(body), nil
	}
	return strings.TrimSpace(string(body)), nil
}

// extractPDF converts a local PDF file to text via pdftotext.
func (e *Extractor) extractPDF(ctx context.Context, path string) (string, error) {
	// "-" sends the text to stdout.
	cmd := exec.CommandContext(ctx, e.pdfCommand, path, "-")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s failed for %q: %w: %s", e.pdfCommand, path, err, stderr.String())
	}
	return strings.TrimSpace(stdout.String()), nil
}

// extractYouTube pulls the video title and description via yt-dlp without
// downloading media.
func (e *Extractor) extractYouTube(ctx context.Context, url string) (string, error) {
	cmd := exec.CommandContext(ctx, e.ytCommand,
		"--skip-download",
		"--print", "%(title)s\n\n%(description)s",
		url)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s failed for %q: %w: %s", e.ytCommand, url, err, stderr.String())
	}
	return strings.TrimSpace(stdout.String()), nil
}

// htmlToText strips markup, keeping the text of body elements and dropping
// script and style entirely.
func htmlToText(doc []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(doc))
	var (
		b    strings.Builder
		skip int
	)

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if isSkippedTag(string(name)) {
				skip++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if isSkippedTag(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			text := strings.TrimSpace(string(tokenizer.Text()))
			if text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(text)
		}
	}
}

func isSkippedTag(name string) bool {
	switch name {
	case "script", "style", "noscript", "head":
		return true
	}
	return false
}
