package generative

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	genai "google.golang.org/genai"
)

// DefaultGeminiModel is used when no model name is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiTranslator is a thin wrapper around the official genai client.
type GeminiTranslator struct {
	cli    *genai.Client
	model  string
	format string
	logger *zap.Logger
}

// NewGeminiTranslator creates a Gemini backend. An empty apiKey falls back to
// the GEMINI_API_KEY / GOOGLE_API_KEY environment read by genai.
func NewGeminiTranslator(ctx context.Context, apiKey, modelName, format string, logger *zap.Logger) (*GeminiTranslator, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiTranslator{cli: cli, model: modelName, format: format, logger: logger.Named("gemini")}, nil
}

func (g *GeminiTranslator) Name() string { return "gemini:" + g.model }

// Translate implements Translator
func (g *GeminiTranslator) Translate(ctx context.Context, req Request) (string, error) {
	prompt := BuildPrompt(req, g.format)
	start := time.Now()
	temperature := float32(0)

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{Temperature: &temperature},
	)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	g.logger.Debug("gemini answered", zap.Duration("elapsed", time.Since(start)))

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	text := Sanitize(resp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
