// ABOUTME: Offline provider that needs no API key: hashed bag-of-words embeddings and an extractive completer
// ABOUTME: Deterministic, so ingestion and generation can be exercised without network access
package llm

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/harper/ragdoc/internal/models"
)

// DefaultOfflineDimension is the vector size of HashEmbedder when none is configured
const DefaultOfflineDimension = 256

// HashEmbedder maps each lowercased word to a bucket with FNV-1a and L2-normalizes the counts.
// Texts sharing vocabulary get high cosine similarity.
type HashEmbedder struct {
	dimension int
}

// NewHashEmbedder creates an offline embedder of the given dimension
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = DefaultOfflineDimension
	}
	return &HashEmbedder{dimension: dimension}
}

// Dimension is the length of every vector produced
func (h *HashEmbedder) Dimension() int {
	return h.dimension
}

// Embed hashes one text
func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	cleaned := cleanText(text)
	if cleaned == "" {
		return nil, ErrEmptyText
	}
	return h.vector(cleaned), nil
}

// EmbedBatch hashes texts; blank texts get a nil vector at their position
func (h *HashEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	positions, cleaned := prepareBatch(texts)
	if len(cleaned) == 0 {
		return nil, ErrAllEmpty
	}
	vectors := make([][]float32, len(cleaned))
	for i, t := range cleaned {
		vectors[i] = h.vector(t)
	}
	return scatter(len(texts), positions, vectors), nil
}

func (h *HashEmbedder) vector(text string) []float32 {
	v := make([]float32, h.dimension)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		f := fnv.New32a()
		_, _ = f.Write([]byte(w))
		v[f.Sum32()%uint32(h.dimension)]++
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}

// ExtractiveCompleter answers by quoting the source blocks it was given
type ExtractiveCompleter struct{}

// Model names the offline completer
func (ExtractiveCompleter) Model() string {
	return "offline-extractive"
}

// Complete returns the text of each source block, one paragraph per source
func (ExtractiveCompleter) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var paragraphs []string
	for _, line := range strings.Split(req.User, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "---" || strings.HasPrefix(trimmed, "[Source ") {
			continue
		}
		if strings.HasPrefix(trimmed, "INSTRUCTIONS:") {
			break
		}
		paragraphs = append(paragraphs, trimmed)
	}

	// drop the request line and the section header that precede the sources
	if len(paragraphs) > 0 && strings.HasPrefix(paragraphs[0], "Based on the following source documents") {
		paragraphs = paragraphs[1:]
	}
	if len(paragraphs) > 0 && paragraphs[0] == "SOURCE DOCUMENTS:" {
		paragraphs = paragraphs[1:]
	}
	if len(paragraphs) == 0 {
		return "", ErrNoContent
	}
	return strings.Join(paragraphs, "\n\n"), nil
}
