// ABOUTME: Qdrant vector index over the REST API
// ABOUTME: Creates the collection and payload indices, renders filters as must/should clauses
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/harper/ragdoc/internal/index"
)

// Config holds connection settings for a Qdrant collection
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Dimension  int
	Timeout    time.Duration
}

// Index is a Qdrant-backed vector index.
// Filename ownership is only pre-checked; two concurrent uploads of one filename can both land.
type Index struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

// Open connects to Qdrant, creating the collection and keyword indices when missing
func Open(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.Dimension <= 0 {
		return nil, errors.New("qdrant: invalid dimension")
	}
	if cfg.Collection == "" {
		cfg.Collection = "documents"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	s := &Index{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		client:     &http.Client{Timeout: timeout},
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Index) ensureCollection(ctx context.Context) error {
	err := s.do(ctx, http.MethodGet, s.collectionPath(""), nil, nil)
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		return fmt.Errorf("failed to inspect collection: %w", err)
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimension,
			"distance": "Cosine",
		},
	}
	if err := s.do(ctx, http.MethodPut, s.collectionPath(""), body, nil); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	for _, field := range []string{"document_id", "filename"} {
		idx := map[string]any{"field_name": field, "field_schema": "keyword"}
		if err := s.do(ctx, http.MethodPut, s.collectionPath("/index?wait=true"), idx, nil); err != nil {
			return fmt.Errorf("failed to index payload field %s: %w", field, err)
		}
	}
	return nil
}

type point struct {
	ID      string        `json:"id"`
	Vector  []float32     `json:"vector"`
	Payload index.Payload `json:"payload"`
}

// Upsert writes points after checking that no other document owns their filename
func (s *Index) Upsert(ctx context.Context, points []index.Point) error {
	if len(points) == 0 {
		return nil
	}

	checked := make(map[string]bool)
	for _, p := range points {
		if s.dimension > 0 && len(p.Vector) != s.dimension {
			return fmt.Errorf("%w: expected %d, got %d", index.ErrDimensionMismatch, s.dimension, len(p.Vector))
		}
		if checked[p.Payload.Filename] {
			continue
		}
		checked[p.Payload.Filename] = true

		page, err := s.Scroll(ctx, index.Filter{Filename: p.Payload.Filename}, "", 1)
		if err != nil {
			return err
		}
		if len(page.Payloads) > 0 && page.Payloads[0].DocumentID != p.Payload.DocumentID {
			return fmt.Errorf("%w: %s", index.ErrDuplicateFilename, p.Payload.Filename)
		}
	}

	body := struct {
		Points []point `json:"points"`
	}{Points: make([]point, len(points))}
	for i, p := range points {
		body.Points[i] = point{ID: p.ID, Vector: p.Vector, Payload: p.Payload}
	}

	if err := s.do(ctx, http.MethodPut, s.collectionPath("/points?wait=true"), body, nil); err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	return nil
}

// Search queries the collection with a score threshold and the rendered filter
func (s *Index) Search(ctx context.Context, vector []float32, limit int, threshold float64, filter index.Filter) ([]index.Hit, error) {
	if limit <= 0 {
		limit = 5
	}
	req := map[string]any{
		"vector":          vector,
		"limit":           limit,
		"with_payload":    true,
		"score_threshold": threshold,
	}
	if f := renderFilter(filter); f != nil {
		req["filter"] = f
	}

	var resp struct {
		Result []struct {
			ID      json.RawMessage `json:"id"`
			Score   float64         `json:"score"`
			Payload index.Payload   `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/search"), req, &resp); err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	hits := make([]index.Hit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, index.Hit{ID: rawID(r.ID), Score: r.Score, Payload: r.Payload})
	}
	return hits, nil
}

// Scroll pages through payloads; the offset is Qdrant's next_page_offset in raw JSON form
func (s *Index) Scroll(ctx context.Context, filter index.Filter, offset string, limit int) (index.Page, error) {
	if limit <= 0 {
		limit = 100
	}
	req := map[string]any{
		"limit":        limit,
		"with_payload": true,
		"with_vector":  false,
	}
	if offset != "" {
		req["offset"] = json.RawMessage(offset)
	}
	if f := renderFilter(filter); f != nil {
		req["filter"] = f
	}

	var resp struct {
		Result struct {
			Points []struct {
				Payload index.Payload `json:"payload"`
			} `json:"points"`
			NextPageOffset json.RawMessage `json:"next_page_offset"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/scroll"), req, &resp); err != nil {
		return index.Page{}, fmt.Errorf("failed to scroll: %w", err)
	}

	page := index.Page{Payloads: make([]index.Payload, 0, len(resp.Result.Points))}
	for _, p := range resp.Result.Points {
		page.Payloads = append(page.Payloads, p.Payload)
	}
	if next := strings.TrimSpace(string(resp.Result.NextPageOffset)); next != "" && next != "null" {
		page.NextOffset = next
	}
	return page, nil
}

// Delete removes every point matching filter
func (s *Index) Delete(ctx context.Context, filter index.Filter) error {
	if filter.IsEmpty() {
		return index.ErrEmptyFilter
	}
	req := map[string]any{"filter": renderFilter(filter)}
	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/delete?wait=true"), req, nil); err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}
	return nil
}

// Count returns the exact number of points in the collection
func (s *Index) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/count"), map[string]any{"exact": true}, &resp); err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return resp.Result.Count, nil
}

// Close releases idle connections
func (s *Index) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// renderFilter maps the retrieval filter onto Qdrant's condition language
func renderFilter(f index.Filter) map[string]any {
	var must []any

	if len(f.DocumentIDs) > 0 {
		must = append(must, map[string]any{
			"key":   "document_id",
			"match": map[string]any{"any": f.DocumentIDs},
		})
	}
	if len(f.Filenames) > 0 {
		should := make([]any, 0, len(f.Filenames))
		for _, name := range f.Filenames {
			should = append(should, map[string]any{
				"key":   "filename",
				"match": map[string]any{"text": name},
			})
		}
		must = append(must, map[string]any{"should": should})
	}
	if f.Filename != "" {
		must = append(must, map[string]any{
			"key":   "filename",
			"match": map[string]any{"value": f.Filename},
		})
	}

	if len(must) == 0 {
		return nil
	}
	return map[string]any{"must": must}
}

func rawID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func (s *Index) collectionPath(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

// APIError is a non-2xx response from Qdrant
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("qdrant %s %s failed: %d %s", e.Method, e.URL, e.StatusCode, e.Message)
}

func (s *Index) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		var envelope struct {
			Status struct {
				Error string `json:"error"`
			} `json:"status"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		msg := resp.Status
		if json.Unmarshal(data, &envelope) == nil && envelope.Status.Error != "" {
			msg = envelope.Status.Error
		}
		return &APIError{Method: method, URL: url, StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

var _ index.Index = (*Index)(nil)
