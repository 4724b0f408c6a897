// ABOUTME: Anthropic Claude client for grounded content generation
// ABOUTME: Completion only; Claude has no embedding endpoint so pair it with another embedder
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	"github.com/harper/ragdoc/internal/models"
	"github.com/harper/ragdoc/internal/util"
)

// DefaultClaudeModel is used when no Anthropic model is configured
const DefaultClaudeModel = "claude-3-5-haiku-latest"

// AnthropicConfig configures the Claude client
type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Options
}

// AnthropicClient generates completions with Claude
type AnthropicClient struct {
	messages anthropic.MessageService
	model    string
	opts     Options
	limiter  *rate.Limiter
}

// NewAnthropicClient creates a Claude completion client
func NewAnthropicClient(config AnthropicConfig) (*AnthropicClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		// retries are handled by util.Do
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(config.BaseURL))
	}

	model := config.Model
	if model == "" {
		model = DefaultClaudeModel
	}

	client := anthropic.NewClient(reqOpts...)
	return &AnthropicClient{
		messages: client.Messages,
		model:    model,
		opts:     config.Options,
		limiter:  config.Options.limiter(),
	}, nil
}

// Model names the Claude model in use
func (c *AnthropicClient) Model() string {
	return c.model
}

// Complete sends the system prompt and user message to Claude
func (c *AnthropicClient) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	return call(ctx, c.limiter, c.opts, func(ctx context.Context) (string, error) {
		resp, err := c.messages.New(ctx, params)
		if err != nil {
			var apiErr *anthropic.Error
			if errors.As(err, &apiErr) && permanentStatus(apiErr.StatusCode) {
				return "", util.Permanent(err)
			}
			return "", err
		}

		var out strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				out.WriteString(block.Text)
			}
		}
		if out.Len() == 0 {
			return "", ErrNoContent
		}
		return out.String(), nil
	})
}
