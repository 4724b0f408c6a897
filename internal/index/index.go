// ABOUTME: Vector index contract shared by the memory, SQLite, and Qdrant backends
// ABOUTME: Defines chunk points, payloads, search hits, scroll pages, and index errors
package index

import (
	"context"
	"errors"
)

var (
	// ErrDuplicateFilename is returned by Upsert when another document already owns the filename
	ErrDuplicateFilename = errors.New("filename already indexed by another document")
	// ErrEmptyFilter guards Delete against wiping the whole index
	ErrEmptyFilter = errors.New("refusing to delete with an empty filter")
	// ErrDimensionMismatch is returned when a vector does not fit the collection
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Payload is the metadata stored with every chunk vector
type Payload struct {
	DocumentID  string `json:"document_id"`
	Filename    string `json:"filename"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
	ChunkText   string `json:"chunk_text"`
	UploadedAt  string `json:"uploaded_at"`
}

// Point is one indexed chunk
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// Hit is a search result: payload plus similarity in descending-score order
type Hit struct {
	ID      string
	Score   float64
	Payload Payload
}

// Page is one batch of a scroll; NextOffset is empty when the scroll is complete
type Page struct {
	Payloads   []Payload
	NextOffset string
}

// Index stores chunk vectors and answers filtered similarity queries
type Index interface {
	// Upsert writes points. All points of one call belong to one document;
	// backends that can do so reject a filename owned by a different document.
	Upsert(ctx context.Context, points []Point) error
	// Search returns up to limit hits scoring at least threshold, best first
	Search(ctx context.Context, vector []float32, limit int, threshold float64, filter Filter) ([]Hit, error)
	// Scroll pages through payloads matching filter, starting at offset ("" for the beginning)
	Scroll(ctx context.Context, filter Filter, offset string, limit int) (Page, error)
	// Delete removes every point matching a non-empty filter
	Delete(ctx context.Context, filter Filter) error
	// Count returns the number of stored points
	Count(ctx context.Context) (int, error)
	Close() error
}

// FilenameExists reports whether any point carries exactly this filename
func FilenameExists(ctx context.Context, idx Index, filename string) (bool, error) {
	page, err := idx.Scroll(ctx, Filter{Filename: filename}, "", 1)
	if err != nil {
		return false, err
	}
	return len(page.Payloads) > 0, nil
}

// ScrollAll drains a scroll in batches of pageSize
func ScrollAll(ctx context.Context, idx Index, filter Filter, pageSize int) ([]Payload, error) {
	if pageSize <= 0 {
		pageSize = 100
	}

	var (
		all    []Payload
		offset string
	)
	for {
		page, err := idx.Scroll(ctx, filter, offset, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Payloads...)
		if page.NextOffset == "" || len(page.Payloads) == 0 {
			return all, nil
		}
		offset = page.NextOffset
	}
}
