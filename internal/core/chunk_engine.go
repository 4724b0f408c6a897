// ABOUTME: ChunkEngine groups sentences into token-bounded chunks with sentence overlap
// ABOUTME: Oversized sentences are split by words into standalone chunks
package core

import (
	"fmt"
	"strings"

	"github.com/harper/ragdoc/internal/models"
	"github.com/harper/ragdoc/internal/tokenizer"
)

// ChunkEngine handles token-aware text chunking
type ChunkEngine struct {
	counter   tokenizer.Counter
	segmenter Segmenter
	chunkSize int
	overlap   int
}

// NewChunkEngine creates a ChunkEngine. A nil segmenter uses PunctuationSegmenter.
func NewChunkEngine(counter tokenizer.Counter, segmenter Segmenter, chunkSize, overlap int) (*ChunkEngine, error) {
	if counter == nil {
		return nil, fmt.Errorf("token counter is required")
	}
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", chunkSize, overlap)
	}
	if segmenter == nil {
		segmenter = PunctuationSegmenter{}
	}

	return &ChunkEngine{
		counter:   counter,
		segmenter: segmenter,
		chunkSize: chunkSize,
		overlap:   overlap,
	}, nil
}

// ChunkSize returns the token budget per chunk
func (ce *ChunkEngine) ChunkSize() int { return ce.chunkSize }

// Overlap returns the overlap budget in tokens
func (ce *ChunkEngine) Overlap() int { return ce.overlap }

// Chunk splits text into ordered chunks
func (ce *ChunkEngine) Chunk(text string) []string {
	return ce.chunkSentences(ce.segmenter.Split(text))
}

// Preview chunks text and reports token counts per chunk
func (ce *ChunkEngine) Preview(filename, text string) models.ChunkPreview {
	sentences := ce.segmenter.Split(text)
	chunks := ce.chunkSentences(sentences)

	preview := models.ChunkPreview{
		Filename:     filename,
		ChunkSize:    ce.chunkSize,
		ChunkOverlap: ce.overlap,
		Sentences:    len(sentences),
		Chunks:       make([]models.Chunk, len(chunks)),
	}
	for i, c := range chunks {
		preview.Chunks[i] = models.Chunk{Index: i, Text: c, Tokens: ce.counter.Count(c)}
	}
	return preview
}

func (ce *ChunkEngine) chunkSentences(sentences []string) []string {
	var (
		chunks  []string
		current []string
		tokens  int
	)

	for _, sentence := range sentences {
		sentenceTokens := ce.counter.Count(sentence)

		if sentenceTokens > ce.chunkSize {
			if len(current) > 0 {
				chunks = append(chunks, strings.Join(current, " "))
			}
			chunks = append(chunks, ce.splitWords(sentence)...)
			// word fragments never seed the next chunk
			current, tokens = nil, 0
			continue
		}

		if tokens+sentenceTokens > ce.chunkSize {
			if len(current) > 0 {
				chunks = append(chunks, strings.Join(current, " "))
			}
			seed, seedTokens := ce.overlapSeed(current, ce.chunkSize-sentenceTokens)
			current = append(seed, sentence)
			tokens = seedTokens + sentenceTokens
			continue
		}

		current = append(current, sentence)
		tokens += sentenceTokens
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// overlapSeed returns the longest suffix of whole sentences whose tokens fit
// within both the overlap budget and room (the space left beside the next sentence)
func (ce *ChunkEngine) overlapSeed(previous []string, room int) ([]string, int) {
	budget := ce.overlap
	if room < budget {
		budget = room
	}
	if budget <= 0 {
		return nil, 0
	}

	start, total := len(previous), 0
	for i := len(previous) - 1; i >= 0; i-- {
		t := ce.counter.Count(previous[i])
		if total+t > budget {
			break
		}
		total += t
		start = i
	}

	seed := make([]string, len(previous)-start, len(previous)-start+1)
	copy(seed, previous[start:])
	return seed, total
}

// splitWords packs the words of one oversized sentence into chunks
func (ce *ChunkEngine) splitWords(sentence string) []string {
	var (
		chunks []string
		words  []string
		tokens int
	)

	for _, word := range strings.Fields(sentence) {
		wordTokens := ce.counter.Count(word + " ")
		if tokens+wordTokens > ce.chunkSize {
			if len(words) > 0 {
				chunks = append(chunks, strings.Join(words, " "))
			}
			words, tokens = []string{word}, wordTokens
			continue
		}
		words = append(words, word)
		tokens += wordTokens
	}

	if len(words) > 0 {
		chunks = append(chunks, strings.Join(words, " "))
	}
	return chunks
}
