// ABOUTME: Tests for the generation orchestrator with substitute collaborators
// ABOUTME: Covers the no-source short-circuit, low-relevance warning, stage errors, and filters
package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/ragdoc/internal/index"
	"github.com/harper/ragdoc/internal/models"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.vector != nil {
		return f.vector, nil
	}
	return []float32{1, 0}, nil
}

// EmbedBatch does not count calls so concurrent ingestion stays race-free
func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) != "" {
			out[i] = []float32{1, 0}
		}
	}
	return out, nil
}

type fakeSearcher struct {
	hits       []index.Hit
	err        error
	gotLimit   int
	gotThresh  float64
	gotFilter  index.Filter
	searchCall int
}

func (f *fakeSearcher) Search(_ context.Context, _ []float32, limit int, threshold float64, filter index.Filter) ([]index.Hit, error) {
	f.searchCall++
	f.gotLimit, f.gotThresh, f.gotFilter = limit, threshold, filter
	return f.hits, f.err
}

type fakeCompleter struct {
	reply string
	err   error
	calls int
	last  models.CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req models.CompletionRequest) (string, error) {
	f.calls++
	f.last = req
	return f.reply, f.err
}

func (f *fakeCompleter) Model() string { return "fake-model" }

const query = "Create a FAQ about the remote work policy"

func newTestGenerator(s *fakeSearcher, c *fakeCompleter, e *fakeEmbedder) *Generator {
	g := NewGenerator(e, s, c, DefaultGeneratorConfig(), nil)
	g.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }
	return g
}

func TestGenerate_NoSourcesNeverCallsModel(t *testing.T) {
	searcher := &fakeSearcher{}
	completer := &fakeCompleter{reply: "should not appear"}
	g := newTestGenerator(searcher, completer, &fakeEmbedder{})

	var stages []Stage
	g.OnStage = func(s Stage) { stages = append(stages, s) }

	res, err := g.Generate(context.Background(), models.GenerateRequest{Query: query})
	require.NoError(t, err)

	assert.Equal(t, 0, completer.calls)
	assert.Empty(t, res.Sources)
	assert.NotNil(t, res.Sources, "sources serialize as an empty list")
	require.NotNil(t, res.Warning)
	assert.Equal(t, NoSourcesWarning, *res.Warning)
	assert.Contains(t, res.GeneratedContent, "I cannot generate this content")
	assert.Equal(t, []Stage{StageEmbedding, StageRetrieving, StageTerminatedNoSources}, stages)
}

func TestGenerate_TwoHitsNoWarning(t *testing.T) {
	searcher := &fakeSearcher{hits: []index.Hit{
		hit("policy.txt", "Employees may work remotely.", 0.9),
		hit("handbook.pdf", "Remote days need approval.", 0.5),
	}}
	completer := &fakeCompleter{reply: "Q: Can I work remotely?\nA: Yes."}
	g := newTestGenerator(searcher, completer, &fakeEmbedder{})

	var stages []Stage
	g.OnStage = func(s Stage) { stages = append(stages, s) }

	res, err := g.Generate(context.Background(), models.GenerateRequest{
		Query:          query,
		GenerationType: models.GenerationFAQ,
	})
	require.NoError(t, err)

	assert.Nil(t, res.Warning)
	assert.Equal(t, "Q: Can I work remotely?\nA: Yes.", res.GeneratedContent)
	require.Len(t, res.Sources, 2)
	assert.Equal(t, "very high", res.Sources[0].Relevance)
	assert.Equal(t, "policy.txt", res.Sources[0].Filename)
	assert.Equal(t, "moderate", res.Sources[1].Relevance)

	assert.Equal(t, 1, completer.calls)
	assert.Equal(t, SystemPrompt(models.GenerationFAQ), completer.last.System)
	assert.Contains(t, completer.last.User, "[Source 1: policy.txt]\nEmployees may work remotely.\n")
	assert.Contains(t, completer.last.User, "\n---\n[Source 2: handbook.pdf]")
	assert.Equal(t, 0.3, completer.last.Temperature)
	assert.Equal(t, 2000, completer.last.MaxTokens)

	md := res.Metadata
	assert.Equal(t, query, md.Query)
	assert.Equal(t, models.GenerationFAQ, md.GenerationType)
	assert.Equal(t, 2, md.TotalSourcesUsed)
	assert.InDelta(t, 0.7, md.AverageRelevance, 1e-9)
	assert.Equal(t, "fake-model", md.ModelUsed)
	assert.Equal(t, "2026-03-04T05:06:07Z", md.GeneratedAt)

	assert.Equal(t, []Stage{StageEmbedding, StageRetrieving, StageGenerating, StageDone}, stages)
}

func TestGenerate_LowRelevanceWarningStillGenerates(t *testing.T) {
	searcher := &fakeSearcher{hits: []index.Hit{hit("a.txt", "x", 0.35), hit("b.txt", "y", 0.31)}}
	completer := &fakeCompleter{reply: "content"}
	g := newTestGenerator(searcher, completer, &fakeEmbedder{})

	res, err := g.Generate(context.Background(), models.GenerateRequest{Query: query})
	require.NoError(t, err)

	require.NotNil(t, res.Warning)
	assert.Equal(t, "Source documents have low relevance (avg: 33%). Generated content may not fully address your query.", *res.Warning)
	assert.Equal(t, "content", res.GeneratedContent)
	assert.Equal(t, 1, completer.calls)
	assert.Equal(t, "low", res.Sources[0].Relevance)
}

func TestGenerate_UnknownTypeFallsBackToGeneral(t *testing.T) {
	searcher := &fakeSearcher{hits: []index.Hit{hit("a.txt", "x", 0.9)}}
	completer := &fakeCompleter{reply: "ok"}
	g := newTestGenerator(searcher, completer, &fakeEmbedder{})

	res, err := g.Generate(context.Background(), models.GenerateRequest{Query: query, GenerationType: "limerick"})
	require.NoError(t, err)
	assert.Equal(t, models.GenerationGeneral, res.Metadata.GenerationType)
	assert.Equal(t, SystemPrompt(models.GenerationGeneral), completer.last.System)
}

func TestGenerate_PassesTopKThresholdAndFilter(t *testing.T) {
	searcher := &fakeSearcher{}
	g := newTestGenerator(searcher, &fakeCompleter{}, &fakeEmbedder{})

	topK := 8
	_, err := g.Generate(context.Background(), models.GenerateRequest{
		Query:   query,
		TopK:    &topK,
		Filters: &models.MetadataFilter{DocumentIDs: []string{"d1", ""}, Filenames: []string{"policy"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 8, searcher.gotLimit)
	assert.Equal(t, 0.3, searcher.gotThresh)
	assert.Equal(t, []string{"d1"}, searcher.gotFilter.DocumentIDs)
	assert.Equal(t, []string{"policy"}, searcher.gotFilter.Filenames)

	_, err = g.Generate(context.Background(), models.GenerateRequest{Query: query})
	require.NoError(t, err)
	assert.Equal(t, 5, searcher.gotLimit, "configured default applies without override")
	assert.True(t, searcher.gotFilter.IsEmpty())
}

func TestGenerate_StageErrors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("embedding", func(t *testing.T) {
		searcher := &fakeSearcher{}
		g := newTestGenerator(searcher, &fakeCompleter{}, &fakeEmbedder{err: boom})
		_, err := g.Generate(context.Background(), models.GenerateRequest{Query: query})

		var se *StageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, StageEmbedding, se.Stage)
		assert.Equal(t, query, se.Query)
		assert.ErrorIs(t, err, ErrEmbedding)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrRetrieval)
		assert.Equal(t, 0, searcher.searchCall)
	})

	t.Run("retrieval", func(t *testing.T) {
		completer := &fakeCompleter{}
		g := newTestGenerator(&fakeSearcher{err: boom}, completer, &fakeEmbedder{})
		_, err := g.Generate(context.Background(), models.GenerateRequest{Query: query})

		assert.ErrorIs(t, err, ErrRetrieval)
		assert.NotErrorIs(t, err, ErrGeneration)
		assert.Equal(t, 0, completer.calls)
	})

	t.Run("generation", func(t *testing.T) {
		g := newTestGenerator(
			&fakeSearcher{hits: []index.Hit{hit("a.txt", "x", 0.9)}},
			&fakeCompleter{err: boom},
			&fakeEmbedder{},
		)
		_, err := g.Generate(context.Background(), models.GenerateRequest{Query: query})

		assert.ErrorIs(t, err, ErrGeneration)
		assert.NotErrorIs(t, err, ErrRetrieval)
		assert.Contains(t, err.Error(), "GENERATING")
	})
}

func TestGenerate_InvalidRequest(t *testing.T) {
	embedder := &fakeEmbedder{}
	g := newTestGenerator(&fakeSearcher{}, &fakeCompleter{}, embedder)

	_, err := g.Generate(context.Background(), models.GenerateRequest{Query: "short"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, 0, embedder.calls)
}
