package critique

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/personify/internal/shared"
)

// NewCompleter builds the [Completer] selected by cfg.AI.Provider.
func NewCompleter(ctx context.Context, cfg *shared.Config) (Completer, error) {
	switch p := strings.ToLower(strings.TrimSpace(cfg.AI.Provider)); p {
	case "", "openrouter":
		creds := cfg.Credentials.OpenRouter
		if creds.APIKey == "" {
			return nil, fmt.Errorf("%w: openrouter api key", shared.ErrMissingCredentials)
		}
		return NewOpenRouterCompleter(creds.APIKey, creds.BaseURL, cfg.AI.Model, cfg.AI.Timeout()), nil
	case "gemini":
		model := cfg.AI.Model
		// OpenRouter-style "vendor/model" ids are not Gemini model names
		if strings.Contains(model, "/") {
			model = DefaultGeminiModel
		}
		creds := cfg.Credentials.Gemini
		return NewGeminiCompleter(ctx, creds.APIKey, creds.BaseURL, model)
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownProvider, p)
	}
}
