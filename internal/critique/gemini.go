package critique

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/personify/internal/shared"
	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiCompleter implements [Completer] with the Gemini API.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

// NewGeminiCompleter creates a Gemini client. baseURL is optional and only overridden when set.
func NewGeminiCompleter(ctx context.Context, apiKey, baseURL, model string) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini api key", shared.ErrMissingCredentials)
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	cfg := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiCompleter{client: client, model: model}, nil
}

// Complete joins the text parts of the first candidate. No candidates yields "".
func (c *GeminiCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}

	res, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %v", shared.ErrAPIRequest, err)
	}

	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", nil
	}

	var out strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			out.WriteString(part.Text)
		}
	}
	return out.String(), nil
}
