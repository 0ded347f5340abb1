package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/setlist/internal/shared"
	"github.com/sashabaranov/go-openai"
)

const defaultModel = "gpt-4o"

// OpenAIClient implements [Completer] against an OpenAI-compatible chat completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

var _ Completer = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client from [shared.EnrichConfig].
//
// Returns [shared.ErrMissingCredentials] when no API key is configured.
func NewOpenAIClient(cfg shared.EnrichConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: enrich.api_key / OPENAI_API_KEY", shared.ErrMissingCredentials)
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &OpenAIClient{client: openai.NewClientWithConfig(config), model: model}, nil
}

// Complete sends a system + user message pair and returns the first choice's content.
func (c *OpenAIClient) Complete(ctx context.Context, p Prompt) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
		Temperature: p.Temperature,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: status %d: %s", shared.ErrEnrichment, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("%w: %v", shared.ErrEnrichment, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", shared.ErrEnrichment)
	}
	return resp.Choices[0].Message.Content, nil
}
