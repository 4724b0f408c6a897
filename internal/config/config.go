// ABOUTME: Centralized configuration for the ragdoc CLI and MCP server
// ABOUTME: Loads from environment variables over an optional YAML/TOML file, with validation and defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Provider and backend names accepted by the configuration
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOffline   = "offline"

	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendQdrant = "qdrant"
)

// ConfigFileEnv names the variable that points at a config file
const ConfigFileEnv = "RAGDOC_CONFIG"

// Config holds all configuration for ragdoc
type Config struct {
	// Providers
	LLMProvider       string
	EmbeddingProvider string
	OpenAIKey         string
	OpenAIBaseURL     string
	AnthropicKey      string
	GeminiKey         string
	ChatModel         string
	EmbeddingModel    string
	// EmbeddingDimension is the vector size the index is created with
	EmbeddingDimension int

	// Index
	IndexBackend     string
	SQLitePath       string
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string

	// Chunking and retrieval
	Tokenizer           string
	ChunkSize           int
	ChunkOverlap        int
	TopK                int
	SimilarityThreshold float64
	Temperature         float64
	MaxTokens           int

	// Throughput and resilience
	IngestWorkers  int
	EmbedRateLimit float64
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	LogLevel string
	// Source is the config file that was read, if any
	Source string
}

// Load reads configuration from environment variables layered over an optional
// config file. An empty path falls back to $RAGDOC_CONFIG.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(ConfigFileEnv)
	}

	src := source{}
	if path != "" {
		values, err := readFile(path)
		if err != nil {
			return nil, err
		}
		src.file = values
	}

	cfg := &Config{
		LLMProvider:         strings.ToLower(src.getEnv("LLM_PROVIDER", ProviderOpenAI)),
		OpenAIKey:           src.getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       src.getEnv("OPENAI_BASE_URL", ""),
		AnthropicKey:        src.getEnv("ANTHROPIC_API_KEY", ""),
		GeminiKey:           src.getEnv("GEMINI_API_KEY", ""),
		ChatModel:           src.getEnv("LLM_MODEL", ""),
		EmbeddingModel:      src.getEnv("EMBEDDING_MODEL", ""),
		IndexBackend:        strings.ToLower(src.getEnv("INDEX_BACKEND", BackendSQLite)),
		SQLitePath:          src.getEnv("SQLITE_PATH", ""),
		QdrantURL:           src.getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:        src.getEnv("QDRANT_API_KEY", ""),
		QdrantCollection:    src.getEnv("QDRANT_COLLECTION", "documents"),
		Tokenizer:           strings.ToLower(src.getEnv("TOKENIZER", "tiktoken")),
		ChunkSize:           src.getEnvInt("CHUNK_SIZE", 500),
		ChunkOverlap:        src.getEnvInt("CHUNK_OVERLAP", 50),
		TopK:                src.getEnvInt("TOP_K", 5),
		SimilarityThreshold: src.getEnvFloat("SIMILARITY_THRESHOLD", 0.3),
		Temperature:         src.getEnvFloat("TEMPERATURE", 0.3),
		MaxTokens:           src.getEnvInt("MAX_TOKENS", 2000),
		IngestWorkers:       src.getEnvInt("INGEST_WORKERS", 4),
		EmbedRateLimit:      src.getEnvFloat("EMBED_RATE_LIMIT", 0),
		Timeout:             src.getEnvDuration("PROVIDER_TIMEOUT", 30*time.Second),
		MaxRetries:          src.getEnvInt("PROVIDER_MAX_RETRIES", 3),
		RetryDelay:          src.getEnvDuration("PROVIDER_RETRY_DELAY", 2*time.Second),
		LogLevel:            strings.ToLower(src.getEnv("LOG_LEVEL", "")),
		Source:              path,
	}

	// Claude has no embedding endpoint, so embeddings default to OpenAI
	defaultEmbedding := cfg.LLMProvider
	if defaultEmbedding == ProviderAnthropic {
		defaultEmbedding = ProviderOpenAI
	}
	cfg.EmbeddingProvider = strings.ToLower(src.getEnv("EMBEDDING_PROVIDER", defaultEmbedding))
	cfg.EmbeddingDimension = src.getEnvInt("EMBEDDING_DIMENSION", defaultDimension(cfg.EmbeddingProvider))

	return cfg, cfg.Validate()
}

func defaultDimension(provider string) int {
	switch provider {
	case ProviderGemini:
		return 768
	case ProviderOffline:
		return 256
	default:
		return 1536
	}
}

// Validate checks ranges and provider/backend names
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOffline:
	default:
		return fmt.Errorf("LLM_PROVIDER must be one of openai, anthropic, gemini, offline; got %q", c.LLMProvider)
	}
	switch c.EmbeddingProvider {
	case ProviderOpenAI, ProviderGemini, ProviderOffline:
	default:
		return fmt.Errorf("EMBEDDING_PROVIDER must be one of openai, gemini, offline; got %q", c.EmbeddingProvider)
	}
	switch c.IndexBackend {
	case BackendMemory, BackendSQLite, BackendQdrant:
	default:
		return fmt.Errorf("INDEX_BACKEND must be one of memory, sqlite, qdrant; got %q", c.IndexBackend)
	}
	switch c.Tokenizer {
	case "tiktoken", "words", "approx":
	default:
		return fmt.Errorf("TOKENIZER must be one of tiktoken, words, approx; got %q", c.Tokenizer)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be 0 to CHUNK_SIZE-1, got %d", c.ChunkOverlap)
	}
	if c.TopK < 1 || c.TopK > 50 {
		return fmt.Errorf("TOP_K must be 1-50, got %d", c.TopK)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be 0-1, got %f", c.SimilarityThreshold)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("TEMPERATURE must be 0-2, got %f", c.Temperature)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("MAX_TOKENS must be positive, got %d", c.MaxTokens)
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSION must be positive, got %d", c.EmbeddingDimension)
	}
	if c.IngestWorkers < 1 {
		return fmt.Errorf("INGEST_WORKERS must be at least 1, got %d", c.IngestWorkers)
	}
	if c.EmbedRateLimit < 0 {
		return fmt.Errorf("EMBED_RATE_LIMIT must not be negative, got %f", c.EmbedRateLimit)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("PROVIDER_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	return nil
}

// RequireKeys reports a missing API key for the configured providers
func (c *Config) RequireKeys() error {
	need := map[string]bool{c.LLMProvider: true, c.EmbeddingProvider: true}
	if need[ProviderOpenAI] && c.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
	}
	if need[ProviderAnthropic] && c.AnthropicKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
	}
	if need[ProviderGemini] && c.GeminiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
	}
	return nil
}

// readFile parses a flat YAML or TOML file into upper-cased keys
func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	raw := map[string]any{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("unsupported config file extension %q (use .yaml, .yml, or .toml)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		values[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return values, nil
}

// source resolves a key from the environment first, then the config file
type source struct {
	file map[string]string
}

func (s source) lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return s.file[key]
}

// Helper functions
func (s source) getEnv(key, defaultVal string) string {
	if v := s.lookup(key); v != "" {
		return v
	}
	return defaultVal
}

func (s source) getEnvInt(key string, defaultVal int) int {
	if v := s.lookup(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func (s source) getEnvFloat(key string, defaultVal float64) float64 {
	if v := s.lookup(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func (s source) getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := s.lookup(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
