package critique

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/personify/internal/shared"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const (
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultOpenRouterModel   = "deepseek/deepseek-chat:free"
)

// OpenRouterCompleter implements [Completer] with OpenAI-compatible chat completions served by OpenRouter.
//
// SDK-level retries are disabled; [Generator] owns the retry policy.
type OpenRouterCompleter struct {
	client openai.Client
	model  string
}

// NewOpenRouterCompleter creates a completer for model at baseURL. Extra options are appended last,
// so tests can swap the HTTP client.
func NewOpenRouterCompleter(apiKey, baseURL, model string, timeout time.Duration, opts ...option.RequestOption) *OpenRouterCompleter {
	if baseURL == "" {
		baseURL = DefaultOpenRouterBaseURL
	}
	if model == "" {
		model = DefaultOpenRouterModel
	}

	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
		option.WithHeader("HTTP-Referer", "https://github.com/desertthunder/personify"),
		option.WithHeader("X-Title", "personify"),
	}
	if timeout > 0 {
		base = append(base, option.WithRequestTimeout(timeout))
	}

	return &OpenRouterCompleter{
		client: openai.NewClient(append(base, opts...)...),
		model:  model,
	}
}

// Complete sends the system instruction and prompt as one chat completion request.
//
// A response with no choices or null content yields "" and no error.
func (c *OpenRouterCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: openrouter: %v", shared.ErrAPIRequest, err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
