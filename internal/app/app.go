// ABOUTME: Builds the ragdoc service graph from configuration
// ABOUTME: Wires providers, the vector index, chunking, ingestion, generation, and the document library
package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/harper/ragdoc/internal/config"
	"github.com/harper/ragdoc/internal/core"
	"github.com/harper/ragdoc/internal/extract"
	"github.com/harper/ragdoc/internal/index"
	"github.com/harper/ragdoc/internal/index/memory"
	"github.com/harper/ragdoc/internal/index/qdrant"
	"github.com/harper/ragdoc/internal/index/sqlite"
	"github.com/harper/ragdoc/internal/llm"
	"github.com/harper/ragdoc/internal/logging"
	"github.com/harper/ragdoc/internal/models"
	"github.com/harper/ragdoc/internal/tokenizer"
)

// Services is everything a command or MCP handler needs
type Services struct {
	Config    *config.Config
	Logger    *log.Logger
	Index     index.Index
	Chunker   *core.ChunkEngine
	Processor *core.Processor
	Generator *core.Generator
	Library   *core.Library

	embeddingModel  string
	completionModel string
}

// embedCompleter is satisfied by providers that can both embed and complete
type embedCompleter interface {
	core.BatchEmbedder
	core.Completer
}

// Build constructs the service graph. The caller owns Close.
func Build(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Services, error) {
	logger = logging.OrDiscard(logger)
	if err := cfg.RequireKeys(); err != nil {
		return nil, err
	}

	embedder, completer, err := providers(ctx, cfg)
	if err != nil {
		return nil, err
	}

	chunker, err := NewChunker(cfg)
	if err != nil {
		return nil, err
	}

	idx, err := OpenIndex(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gcfg := core.GeneratorConfig{
		TopK:                cfg.TopK,
		SimilarityThreshold: cfg.SimilarityThreshold,
		Temperature:         cfg.Temperature,
		MaxTokens:           cfg.MaxTokens,
	}

	logger.Debug("services ready",
		"llm", cfg.LLMProvider, "embeddings", cfg.EmbeddingProvider,
		"index", cfg.IndexBackend, "tokenizer", cfg.Tokenizer)

	return &Services{
		Config:  cfg,
		Logger:  logger,
		Index:   idx,
		Chunker: chunker,
		Processor: core.NewProcessor(chunker, embedder, idx, extract.Default(),
			core.WithWorkers(cfg.IngestWorkers), core.WithLogger(logger)),
		Generator:       core.NewGenerator(embedder, idx, completer, gcfg, logger),
		Library:         core.NewLibrary(idx),
		embeddingModel:  cfg.EmbeddingProvider,
		completionModel: cfg.LLMProvider + "/" + completer.Model(),
	}, nil
}

// NewChunker builds the chunk engine for the configured tokenizer and sizes
func NewChunker(cfg *config.Config) (*core.ChunkEngine, error) {
	counter, err := tokenizer.New(cfg.Tokenizer, TokenizerModel(cfg))
	if err != nil {
		return nil, err
	}
	return core.NewChunkEngine(counter, core.PunctuationSegmenter{}, cfg.ChunkSize, cfg.ChunkOverlap)
}

// TokenizerModel is the model whose BPE scheme sizes chunks. Only an OpenAI chat
// model overrides the default; other providers keep gpt-4o-mini boundaries.
func TokenizerModel(cfg *config.Config) string {
	if cfg.LLMProvider == config.ProviderOpenAI && cfg.ChatModel != "" {
		return cfg.ChatModel
	}
	return llm.DefaultChatModel
}

// OpenIndex opens the configured vector index backend
func OpenIndex(ctx context.Context, cfg *config.Config) (index.Index, error) {
	switch cfg.IndexBackend {
	case config.BackendMemory:
		return memory.New(cfg.EmbeddingDimension), nil
	case config.BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = sqlite.DefaultDBPath()
		}
		db, err := sqlite.Open(path, cfg.EmbeddingDimension)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite index: %w", err)
		}
		return db, nil
	case config.BackendQdrant:
		q, err := qdrant.Open(ctx, qdrant.Config{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.QdrantCollection,
			Dimension:  cfg.EmbeddingDimension,
			Timeout:    cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
		}
		return q, nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.IndexBackend)
	}
}

func providers(ctx context.Context, cfg *config.Config) (core.BatchEmbedder, core.Completer, error) {
	opts := llm.Options{
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.EmbedRateLimit,
	}

	// one client per provider, shared when embeddings and completions agree
	cache := map[string]embedCompleter{}
	dual := func(name string) (embedCompleter, error) {
		if c, ok := cache[name]; ok {
			return c, nil
		}
		var (
			c   embedCompleter
			err error
		)
		switch name {
		case config.ProviderOpenAI:
			c, err = llm.NewOpenAIClient(&llm.ClientConfig{
				APIKey:         cfg.OpenAIKey,
				BaseURL:        cfg.OpenAIBaseURL,
				ChatModel:      modelFor(name, cfg.LLMProvider, cfg.ChatModel),
				EmbeddingModel: modelFor(name, cfg.EmbeddingProvider, cfg.EmbeddingModel),
				Options:        opts,
			})
		case config.ProviderGemini:
			c, err = llm.NewGeminiClient(ctx, llm.GeminiConfig{
				APIKey:         cfg.GeminiKey,
				ChatModel:      modelFor(name, cfg.LLMProvider, cfg.ChatModel),
				EmbeddingModel: modelFor(name, cfg.EmbeddingProvider, cfg.EmbeddingModel),
				Dimension:      cfg.EmbeddingDimension,
				Options:        opts,
			})
		case config.ProviderOffline:
			c = offline{llm.NewHashEmbedder(cfg.EmbeddingDimension)}
		default:
			return nil, fmt.Errorf("provider %q cannot embed", name)
		}
		if err != nil {
			return nil, err
		}
		cache[name] = c
		return c, nil
	}

	embedder, err := dual(cfg.EmbeddingProvider)
	if err != nil {
		return nil, nil, fmt.Errorf("embedding provider: %w", err)
	}

	var completer core.Completer
	if cfg.LLMProvider == config.ProviderAnthropic {
		completer, err = llm.NewAnthropicClient(llm.AnthropicConfig{
			APIKey:  cfg.AnthropicKey,
			Model:   cfg.ChatModel,
			Options: opts,
		})
	} else {
		completer, err = dual(cfg.LLMProvider)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("completion provider: %w", err)
	}
	return embedder, completer, nil
}

// modelFor applies a configured model name only to the provider it was meant for
func modelFor(provider, configured, model string) string {
	if provider != configured {
		return ""
	}
	return model
}

// offline pairs the hashing embedder with the extractive completer
type offline struct {
	*llm.HashEmbedder
}

func (offline) Model() string {
	return llm.ExtractiveCompleter{}.Model()
}

func (offline) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	return llm.ExtractiveCompleter{}.Complete(ctx, req)
}

// Status reports index size and provider configuration. Index failures yield
// a "degraded" status rather than an error.
func (s *Services) Status(ctx context.Context) models.IndexStatus {
	st := models.IndexStatus{
		Status:             "healthy",
		IndexBackend:       s.Config.IndexBackend,
		IndexConnected:     true,
		EmbeddingProvider:  s.embeddingModel,
		CompletionProvider: s.completionModel,
	}
	docs, chunks, err := s.Library.Stats(ctx)
	if err != nil {
		s.Logger.Warn("index status unavailable", "err", err)
		st.Status = "degraded"
		st.IndexConnected = false
		return st
	}
	st.TotalDocuments = docs
	st.TotalChunks = chunks
	return st
}

// Close releases the index
func (s *Services) Close() error {
	if s == nil || s.Index == nil {
		return nil
	}
	if err := s.Index.Close(); err != nil {
		return fmt.Errorf("failed to close index: %w", err)
	}
	return nil
}
