// ABOUTME: Collaborator interfaces consumed by the ingestion and generation services
// ABOUTME: Embedding, completion, retrieval, and extraction are injected, never global
package core

import (
	"context"

	"github.com/harper/ragdoc/internal/index"
	"github.com/harper/ragdoc/internal/models"
)

// QueryEmbedder embeds a single text
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder embeds many texts, preserving input order.
// Empty inputs yield a nil vector at their position.
type BatchEmbedder interface {
	QueryEmbedder
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer calls a generation model
type Completer interface {
	Complete(ctx context.Context, req models.CompletionRequest) (string, error)
	Model() string
}

// Searcher is the read side of the vector index
type Searcher interface {
	Search(ctx context.Context, vector []float32, limit int, threshold float64, filter index.Filter) ([]index.Hit, error)
}

// Extractor turns uploaded bytes into plain text
type Extractor interface {
	Supports(filename string) bool
	Extract(filename string, data []byte) (string, error)
}
