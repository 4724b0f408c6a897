// ABOUTME: OpenAI client for embeddings and grounded chat completions
// ABOUTME: Uses text-embedding-3-small for embeddings and gpt-4o-mini for generation (configurable)
package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/harper/ragdoc/internal/models"
	"github.com/harper/ragdoc/internal/util"
)

const (
	// DefaultChatModel is the default model for chat completions
	DefaultChatModel = "gpt-4o-mini"
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = string(openai.SmallEmbedding3)
)

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	Options
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:         apiKey,
		ChatModel:      DefaultChatModel,
		EmbeddingModel: DefaultEmbeddingModel,
		Options:        DefaultOptions(),
	}
}

// OpenAIClient wraps the OpenAI API client with retry and rate limiting
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
	opts           Options
	limiter        *rate.Limiter
}

// NewOpenAIClient creates an OpenAI client from config
func NewOpenAIClient(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	oc := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		oc.BaseURL = config.BaseURL
	}

	chatModel := config.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	embeddingModel := config.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(oc),
		chatModel:      chatModel,
		embeddingModel: openai.EmbeddingModel(embeddingModel),
		opts:           config.Options,
		limiter:        config.Options.limiter(),
	}, nil
}

// Model names the chat model used for completions
func (c *OpenAIClient) Model() string {
	return c.chatModel
}

// Embed returns the embedding vector for one text
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	cleaned := cleanText(text)
	if cleaned == "" {
		return nil, ErrEmptyText
	}

	vectors, err := c.embed(ctx, []string{cleaned})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in one request; blank texts get a nil vector at their position
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	positions, cleaned := prepareBatch(texts)
	if len(cleaned) == 0 {
		return nil, ErrAllEmpty
	}

	vectors, err := c.embed(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	return scatter(len(texts), positions, vectors), nil
}

func (c *OpenAIClient) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	return call(ctx, c.limiter, c.opts, func(ctx context.Context) ([][]float32, error) {
		resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: inputs,
			Model: c.embeddingModel,
		})
		if err != nil {
			return nil, classify(err)
		}
		if len(resp.Data) != len(inputs) {
			return nil, fmt.Errorf("expected %d embeddings, got %d", len(inputs), len(resp.Data))
		}

		data := resp.Data
		sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })
		vectors := make([][]float32, len(data))
		for i, d := range data {
			vectors[i] = d.Embedding
		}
		return vectors, nil
	})
}

// Complete runs one system+user chat completion
func (c *OpenAIClient) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	return call(ctx, c.limiter, c.opts, func(ctx context.Context) (string, error) {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.chatModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: req.System},
				{Role: openai.ChatMessageRoleUser, Content: req.User},
			},
			Temperature: float32(req.Temperature),
			MaxTokens:   req.MaxTokens,
		})
		if err != nil {
			return "", classify(err)
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			return "", ErrNoContent
		}
		return resp.Choices[0].Message.Content, nil
	})
}

// classify marks client errors the API will keep rejecting as permanent
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && permanentStatus(apiErr.HTTPStatusCode) {
		return util.Permanent(err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && permanentStatus(reqErr.HTTPStatusCode) {
		return util.Permanent(err)
	}
	return err
}
