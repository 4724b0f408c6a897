// ABOUTME: Google Gemini client for embeddings and content generation
// ABOUTME: Batch embeddings send all non-empty texts in one EmbedContent call
package llm

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/harper/ragdoc/internal/models"
)

const (
	DefaultGeminiChatModel      = "gemini-2.0-flash"
	DefaultGeminiEmbeddingModel = "gemini-embedding-001"
)

// GeminiConfig configures the Gemini client
type GeminiConfig struct {
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	// Dimension requests a reduced output dimensionality when non-zero
	Dimension int
	Options
}

// GeminiClient embeds and completes through the Gemini API
type GeminiClient struct {
	models         *genai.Models
	chatModel      string
	embeddingModel string
	dimension      int
	opts           Options
	limiter        *rate.Limiter
}

// NewGeminiClient creates a Gemini client
func NewGeminiClient(ctx context.Context, config GeminiConfig) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	chat := config.ChatModel
	if chat == "" {
		chat = DefaultGeminiChatModel
	}
	embed := config.EmbeddingModel
	if embed == "" {
		embed = DefaultGeminiEmbeddingModel
	}

	return &GeminiClient{
		models:         client.Models,
		chatModel:      chat,
		embeddingModel: embed,
		dimension:      config.Dimension,
		opts:           config.Options,
		limiter:        config.Options.limiter(),
	}, nil
}

// Model names the Gemini chat model
func (c *GeminiClient) Model() string {
	return c.chatModel
}

// Embed returns the embedding vector for one text
func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
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

// EmbedBatch embeds texts; blank texts get a nil vector at their position
func (c *GeminiClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
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

func (c *GeminiClient) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(inputs))
	for i, in := range inputs {
		contents[i] = genai.NewContentFromText(in, genai.RoleUser)
	}

	cfg := &genai.EmbedContentConfig{}
	if c.dimension > 0 {
		dim := int32(c.dimension)
		cfg.OutputDimensionality = &dim
	}

	return call(ctx, c.limiter, c.opts, func(ctx context.Context) ([][]float32, error) {
		result, err := c.models.EmbedContent(ctx, c.embeddingModel, contents, cfg)
		if err != nil {
			return nil, err
		}
		if result == nil || len(result.Embeddings) != len(inputs) {
			return nil, fmt.Errorf("expected %d embeddings from Gemini", len(inputs))
		}
		vectors := make([][]float32, len(result.Embeddings))
		for i, e := range result.Embeddings {
			vectors[i] = e.Values
		}
		return vectors, nil
	})
}

// Complete generates content with the system prompt as the system instruction
func (c *GeminiClient) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	contents := []*genai.Content{genai.NewContentFromText(req.User, genai.RoleUser)}

	return call(ctx, c.limiter, c.opts, func(ctx context.Context) (string, error) {
		resp, err := c.models.GenerateContent(ctx, c.chatModel, contents, cfg)
		if err != nil {
			return "", err
		}
		return candidateText(resp)
	})
}

// candidateText returns the text of the first candidate that has any
func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrNoContent
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		var out strings.Builder
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" {
				out.WriteString(part.Text)
			}
		}
		if out.Len() > 0 {
			return out.String(), nil
		}
	}
	return "", ErrNoContent
}
