// ABOUTME: In-memory vector index using brute-force cosine similarity
// ABOUTME: Enforces one document per filename atomically under its write lock
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/harper/ragdoc/internal/index"
)

// Index keeps points in insertion order; point IDs are unique
type Index struct {
	mu        sync.RWMutex
	dimension int
	points    []index.Point
	byID      map[string]int
	owners    map[string]string // filename -> document id
}

// New creates an empty index. A dimension of 0 accepts any vector length.
func New(dimension int) *Index {
	return &Index{
		dimension: dimension,
		byID:      make(map[string]int),
		owners:    make(map[string]string),
	}
}

// Upsert stores points, replacing any with the same ID
func (s *Index) Upsert(_ context.Context, points []index.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		if s.dimension > 0 && len(p.Vector) != s.dimension {
			return fmt.Errorf("%w: expected %d, got %d", index.ErrDimensionMismatch, s.dimension, len(p.Vector))
		}
		if owner, ok := s.owners[p.Payload.Filename]; ok && owner != p.Payload.DocumentID {
			return fmt.Errorf("%w: %s", index.ErrDuplicateFilename, p.Payload.Filename)
		}
	}

	for _, p := range points {
		p.Vector = append([]float32(nil), p.Vector...)
		if i, ok := s.byID[p.ID]; ok {
			s.points[i] = p
		} else {
			s.byID[p.ID] = len(s.points)
			s.points = append(s.points, p)
		}
		s.owners[p.Payload.Filename] = p.Payload.DocumentID
	}
	return nil
}

// Search scores every matching point against vector
func (s *Index) Search(_ context.Context, vector []float32, limit int, threshold float64, filter index.Filter) ([]index.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []index.Hit
	for _, p := range s.points {
		if !filter.Matches(p.Payload) {
			continue
		}
		hits = append(hits, index.Hit{
			ID:      p.ID,
			Score:   index.CosineSimilarity(vector, p.Vector),
			Payload: p.Payload,
		})
	}
	return index.Rank(hits, limit, threshold), nil
}

// Scroll pages through matching payloads; the offset is a position in insertion order
func (s *Index) Scroll(_ context.Context, filter index.Filter, offset string, limit int) (index.Page, error) {
	start := 0
	if offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			return index.Page{}, fmt.Errorf("invalid scroll offset %q", offset)
		}
		start = n
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var page index.Page
	for i := start; i < len(s.points); i++ {
		if !filter.Matches(s.points[i].Payload) {
			continue
		}
		if limit > 0 && len(page.Payloads) == limit {
			page.NextOffset = strconv.Itoa(i)
			break
		}
		page.Payloads = append(page.Payloads, s.points[i].Payload)
	}
	return page, nil
}

// Delete removes matching points and releases their filenames
func (s *Index) Delete(_ context.Context, filter index.Filter) error {
	if filter.IsEmpty() {
		return index.ErrEmptyFilter
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.points[:0]
	for _, p := range s.points {
		if filter.Matches(p.Payload) {
			delete(s.owners, p.Payload.Filename)
			continue
		}
		kept = append(kept, p)
	}
	s.points = kept

	s.byID = make(map[string]int, len(kept))
	for i, p := range kept {
		s.byID[p.ID] = i
		s.owners[p.Payload.Filename] = p.Payload.DocumentID
	}
	return nil
}

// Count returns the number of stored points
func (s *Index) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points), nil
}

// Close is a no-op
func (s *Index) Close() error { return nil }

var _ index.Index = (*Index)(nil)
