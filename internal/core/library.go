// ABOUTME: Document library: list indexed documents and delete them with their chunks
// ABOUTME: Listing scrolls the whole index and collapses chunks into documents
package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/harper/ragdoc/internal/index"
	"github.com/harper/ragdoc/internal/models"
)

// ErrDocumentNotFound is returned when deleting an unknown document
var ErrDocumentNotFound = errors.New("document not found")

const scrollPageSize = 100

// Library manages the set of indexed documents
type Library struct {
	idx index.Index
}

// NewLibrary creates a Library over idx
func NewLibrary(idx index.Index) *Library {
	return &Library{idx: idx}
}

// ListDocuments returns every document, newest upload first
func (l *Library) ListDocuments(ctx context.Context) (models.DocumentList, error) {
	payloads, err := index.ScrollAll(ctx, l.idx, index.Filter{}, scrollPageSize)
	if err != nil {
		return models.DocumentList{}, fmt.Errorf("failed to list documents: %w", err)
	}

	seen := make(map[string]bool)
	docs := []models.Document{}
	for _, p := range payloads {
		if seen[p.DocumentID] {
			continue
		}
		seen[p.DocumentID] = true
		docs = append(docs, models.Document{
			DocumentID:  p.DocumentID,
			Filename:    p.Filename,
			TotalChunks: p.TotalChunks,
			UploadedAt:  p.UploadedAt,
		})
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UploadedAt > docs[j].UploadedAt
	})

	return models.DocumentList{TotalDocuments: len(docs), Documents: docs}, nil
}

// DeleteDocument removes a document and all of its chunks
func (l *Library) DeleteDocument(ctx context.Context, documentID string) error {
	filter := index.ForDocument(documentID)

	page, err := l.idx.Scroll(ctx, filter, "", 1)
	if err != nil {
		return fmt.Errorf("failed to look up document %s: %w", documentID, err)
	}
	if len(page.Payloads) == 0 {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
	}

	if err := l.idx.Delete(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", documentID, err)
	}
	return nil
}

// Stats counts documents and chunks in the index
func (l *Library) Stats(ctx context.Context) (documents, chunks int, err error) {
	chunks, err = l.idx.Count(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	list, err := l.ListDocuments(ctx)
	if err != nil {
		return 0, 0, err
	}
	return list.TotalDocuments, chunks, nil
}
