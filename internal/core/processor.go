// ABOUTME: Document ingestion: extract, chunk, embed, and index uploaded files
// ABOUTME: Files in a batch run concurrently; each reports its own success or failure
package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/harper/ragdoc/internal/index"
	"github.com/harper/ragdoc/internal/logging"
	"github.com/harper/ragdoc/internal/models"
)

// TimestampFormat is fixed-width so upload times sort lexically
const TimestampFormat = "2006-01-02T15:04:05.000000Z07:00"

// Upload is one file submitted for ingestion
type Upload struct {
	Filename string
	Data     []byte
}

// Processor ingests documents into the index
type Processor struct {
	chunker   *ChunkEngine
	embedder  BatchEmbedder
	idx       index.Index
	extractor Extractor
	workers   int
	logger    *log.Logger
	now       func() time.Time
	newID     func() string
}

// ProcessorOption customizes a Processor
type ProcessorOption func(*Processor)

// WithWorkers bounds how many files are ingested at once
func WithWorkers(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets the processor logger
func WithLogger(l *log.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = logging.OrDiscard(l) }
}

// WithClock overrides the upload timestamp source
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) { p.now = now }
}

// NewProcessor creates a Processor
func NewProcessor(chunker *ChunkEngine, embedder BatchEmbedder, idx index.Index, extractor Extractor, opts ...ProcessorOption) *Processor {
	p := &Processor{
		chunker:   chunker,
		embedder:  embedder,
		idx:       idx,
		extractor: extractor,
		workers:   4,
		logger:    logging.Discard(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessDocument chunks, embeds, and indexes text under filename
func (p *Processor) ProcessDocument(ctx context.Context, filename, text string) models.ProcessingResult {
	if strings.TrimSpace(text) == "" {
		return models.Failed(filename, "File is empty")
	}

	exists, err := index.FilenameExists(ctx, p.idx, filename)
	if err != nil {
		return models.Failed(filename, "Failed to check for existing document: %v", err)
	}
	if exists {
		return duplicate(filename)
	}

	documentID := p.newID()
	uploadedAt := p.now().UTC().Format(TimestampFormat)

	chunks := p.chunker.Chunk(text)
	if len(chunks) == 0 {
		return models.Failed(filename, "Document produced no valid chunks")
	}

	vectors, err := p.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		p.logger.Error("embedding failed", "filename", filename, "err", err)
		return models.Failed(filename, "Failed to generate embeddings: %v", err)
	}

	var (
		texts []string
		kept  [][]float32
	)
	for i, v := range vectors {
		if i < len(chunks) && v != nil {
			texts = append(texts, chunks[i])
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return models.Failed(filename, "No valid embeddings generated")
	}

	points := make([]index.Point, len(kept))
	for i := range kept {
		points[i] = index.Point{
			ID:     p.newID(),
			Vector: kept[i],
			Payload: index.Payload{
				DocumentID:  documentID,
				Filename:    filename,
				ChunkIndex:  i,
				TotalChunks: len(kept),
				ChunkText:   texts[i],
				UploadedAt:  uploadedAt,
			},
		}
	}

	if err := p.idx.Upsert(ctx, points); err != nil {
		if errors.Is(err, index.ErrDuplicateFilename) {
			return duplicate(filename)
		}
		p.logger.Error("index write failed", "filename", filename, "err", err)
		return models.Failed(filename, "Failed to store in vector database: %v", err)
	}

	p.logger.Info("indexed document", "filename", filename, "document_id", documentID, "chunks", len(points))
	return models.ProcessingResult{
		Success:       true,
		Filename:      filename,
		DocumentID:    documentID,
		ChunksCreated: len(points),
		UploadedAt:    uploadedAt,
	}
}

// IngestFiles validates, extracts, and processes each upload concurrently.
// Results keep input order; one file's failure never affects another.
func (p *Processor) IngestFiles(ctx context.Context, uploads []Upload) models.UploadSummary {
	results := make([]models.ProcessingResult, len(uploads))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, up := range uploads {
		g.Go(func() error {
			results[i] = p.ingest(ctx, up)
			return nil
		})
	}
	_ = g.Wait()

	return models.NewUploadSummary(results)
}

func (p *Processor) ingest(ctx context.Context, up Upload) models.ProcessingResult {
	name := up.Filename
	if name == "" {
		name = "unknown"
	}
	if p.extractor == nil || !p.extractor.Supports(name) {
		return models.Failed(name, "Unsupported file type. Supported types: .txt, .pdf, .docx")
	}

	text, err := p.extractor.Extract(name, up.Data)
	if err != nil {
		return models.Failed(name, "Could not read file - %v", err)
	}
	if strings.TrimSpace(text) == "" {
		return models.Failed(name, "File is empty")
	}

	return p.ProcessDocument(ctx, name, text)
}

func duplicate(filename string) models.ProcessingResult {
	return models.Failed(filename, "Document '%s' already exists. Delete it first to re-upload.", filename)
}
