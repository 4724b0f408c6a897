// ABOUTME: Generation orchestrator: embed query, retrieve, short-circuit or generate, attribute
// ABOUTME: Stage failures surface as StageError values wrapping a per-stage sentinel
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/ragdoc/internal/index"
	"github.com/harper/ragdoc/internal/logging"
	"github.com/harper/ragdoc/internal/models"
)

// Stage names a step of one generation request
type Stage string

const (
	StageEmbedding           Stage = "EMBEDDING"
	StageRetrieving          Stage = "RETRIEVING"
	StageGenerating          Stage = "GENERATING"
	StageTerminatedNoSources Stage = "TERMINATED_NO_SOURCES"
	StageDone                Stage = "DONE"
)

var (
	ErrInvalidRequest = errors.New("invalid generation request")
	ErrEmbedding      = errors.New("query embedding failed")
	ErrRetrieval      = errors.New("retrieval failed")
	ErrGeneration     = errors.New("generation failed")
)

// StageError carries the failing stage and the query that triggered it
type StageError struct {
	Stage Stage
	Query string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed for query %q: %v", e.Stage, e.Query, e.Err)
}

// Unwrap exposes both the stage sentinel and the cause to errors.Is/As
func (e *StageError) Unwrap() []error {
	var sentinel error
	switch e.Stage {
	case StageEmbedding:
		sentinel = ErrEmbedding
	case StageRetrieving:
		sentinel = ErrRetrieval
	default:
		sentinel = ErrGeneration
	}
	return []error{sentinel, e.Err}
}

// GeneratorConfig holds retrieval and completion settings
type GeneratorConfig struct {
	TopK                int
	SimilarityThreshold float64
	Temperature         float64
	MaxTokens           int
}

// DefaultGeneratorConfig mirrors the configuration defaults
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		TopK:                5,
		SimilarityThreshold: 0.3,
		Temperature:         0.3,
		MaxTokens:           2000,
	}
}

// Generator answers generation requests from indexed documents
type Generator struct {
	embedder  QueryEmbedder
	searcher  Searcher
	completer Completer
	cfg       GeneratorConfig
	logger    *log.Logger
	now       func() time.Time

	// OnStage, when set, observes every stage transition
	OnStage func(Stage)
}

// NewGenerator wires the orchestrator's collaborators
func NewGenerator(embedder QueryEmbedder, searcher Searcher, completer Completer, cfg GeneratorConfig, logger *log.Logger) *Generator {
	return &Generator{
		embedder:  embedder,
		searcher:  searcher,
		completer: completer,
		cfg:       cfg,
		logger:    logging.OrDiscard(logger),
		now:       time.Now,
	}
}

func (g *Generator) enter(s Stage) {
	g.logger.Debug("generation stage", "stage", s)
	if g.OnStage != nil {
		g.OnStage(s)
	}
}

// Generate runs one request through EMBEDDING → RETRIEVING → (TERMINATED_NO_SOURCES | GENERATING) → DONE
func (g *Generator) Generate(ctx context.Context, req models.GenerateRequest) (*models.GenerationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	genType := req.GenerationType.OrGeneral()
	topK := g.cfg.TopK
	if req.TopK != nil {
		topK = *req.TopK
	}

	g.enter(StageEmbedding)
	vector, err := g.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, &StageError{Stage: StageEmbedding, Query: req.Query, Err: err}
	}

	g.enter(StageRetrieving)
	filter := index.Filter{}
	if req.Filters != nil {
		filter = index.NewFilter(req.Filters.DocumentIDs, req.Filters.Filenames)
	}
	start := time.Now()
	hits, err := g.searcher.Search(ctx, vector, topK, g.cfg.SimilarityThreshold, filter)
	searchTime := roundTo(time.Since(start).Seconds(), 4)
	if err != nil {
		return nil, &StageError{Stage: StageRetrieving, Query: req.Query, Err: err}
	}

	result := &models.GenerationResult{
		Sources:      []models.SourceAttribution{},
		DBSearchTime: searchTime,
		Metadata: models.GenerationMetadata{
			Query:          req.Query,
			GenerationType: genType,
			GeneratedAt:    g.now().UTC().Format(time.RFC3339),
		},
	}

	if len(hits) == 0 {
		g.enter(StageTerminatedNoSources)
		g.logger.Warn("no sources retrieved", "query", req.Query, "top_k", topK)
		warning := NoSourcesWarning
		result.GeneratedContent = NoSourcesContent
		result.Warning = &warning
		return result, nil
	}

	avg := AverageScore(hits)
	if avg < LowRelevanceThreshold {
		warning := fmt.Sprintf(lowRelevanceWarning, FormatPercent(avg))
		result.Warning = &warning
		g.logger.Info("low relevance sources", "query", req.Query, "average", avg)
	}

	g.enter(StageGenerating)
	content, err := g.completer.Complete(ctx, models.CompletionRequest{
		System:      SystemPrompt(genType),
		User:        BuildUserPrompt(req.Query, BuildContext(hits)),
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	})
	if err != nil {
		return nil, &StageError{Stage: StageGenerating, Query: req.Query, Err: err}
	}

	result.GeneratedContent = content
	result.Sources = Attribute(hits)
	result.Metadata.TotalSourcesUsed = len(hits)
	result.Metadata.AverageRelevance = roundTo(avg, 4)
	result.Metadata.ModelUsed = g.completer.Model()

	g.enter(StageDone)
	g.logger.Info("generated content", "type", genType, "sources", len(hits), "search_seconds", searchTime)
	return result, nil
}
