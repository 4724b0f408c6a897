// ABOUTME: Vector index operations for SQLite
// ABOUTME: Stores vectors as BLOBs, filters in SQL, and ranks by cosine similarity in Go
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/harper/ragdoc/internal/index"
)

const (
	chunkColumns = `c.rowid, c.id, d.id, d.filename, c.chunk_index, c.total_chunks, c.chunk_text, d.uploaded_at`
	fromChunks   = ` FROM chunks c JOIN documents d ON d.id = c.document_id`
)

// Upsert writes points inside one transaction. A filename held by another
// document fails with index.ErrDuplicateFilename; the UNIQUE constraint
// settles concurrent writers.
func (db *DB) Upsert(ctx context.Context, points []index.Point) error {
	if len(points) == 0 {
		return nil
	}
	for _, p := range points {
		if db.dimension > 0 && len(p.Vector) != db.dimension {
			return fmt.Errorf("%w: expected %d, got %d", index.ErrDimensionMismatch, db.dimension, len(p.Vector))
		}
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	seen := make(map[string]bool)
	for _, p := range points {
		if seen[p.Payload.DocumentID] {
			continue
		}
		seen[p.Payload.DocumentID] = true
		if err := claimFilename(ctx, tx, p.Payload); err != nil {
			return err
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, chunk_index, total_chunks, chunk_text, vector)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			chunk_index = excluded.chunk_index,
			total_chunks = excluded.total_chunks,
			chunk_text = excluded.chunk_text,
			vector = excluded.vector
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, p.ID, p.Payload.DocumentID, p.Payload.ChunkIndex,
			p.Payload.TotalChunks, p.Payload.ChunkText, vectorToBlob(p.Vector)); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", index.ErrDuplicateFilename, points[0].Payload.Filename)
		}
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	return nil
}

// claimFilename inserts the document row, or confirms the caller already owns it
func claimFilename(ctx context.Context, tx *sql.Tx, p index.Payload) error {
	var owner string
	err := tx.QueryRowContext(ctx, `SELECT id FROM documents WHERE filename = ?`, p.Filename).Scan(&owner)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return fmt.Errorf("failed to check filename: %w", err)
	case owner != p.DocumentID:
		return fmt.Errorf("%w: %s", index.ErrDuplicateFilename, p.Filename)
	default:
		return nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (id, filename, uploaded_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET filename = excluded.filename, uploaded_at = excluded.uploaded_at
	`, p.DocumentID, p.Filename, p.UploadedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", index.ErrDuplicateFilename, p.Filename)
		}
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// Search performs cosine similarity search over the rows the filter admits
func (db *DB) Search(ctx context.Context, vector []float32, limit int, threshold float64, filter index.Filter) ([]index.Hit, error) {
	where, args := whereClause(filter)
	rows, err := db.conn.QueryContext(ctx, "SELECT c.vector, "+chunkColumns+fromChunks+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var hits []index.Hit
	for rows.Next() {
		var (
			blob  []byte
			rowID int64
			hit   index.Hit
		)
		if err := rows.Scan(&blob, &rowID, &hit.ID, &hit.Payload.DocumentID, &hit.Payload.Filename,
			&hit.Payload.ChunkIndex, &hit.Payload.TotalChunks, &hit.Payload.ChunkText, &hit.Payload.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		hit.Score = index.CosineSimilarity(vector, blobToVector(blob))
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunks: %w", err)
	}

	return index.Rank(hits, limit, threshold), nil
}

// Scroll pages through payloads in rowid order; the offset is the next rowid
func (db *DB) Scroll(ctx context.Context, filter index.Filter, offset string, limit int) (index.Page, error) {
	var from int64
	if offset != "" {
		n, err := strconv.ParseInt(offset, 10, 64)
		if err != nil {
			return index.Page{}, fmt.Errorf("invalid scroll offset %q", offset)
		}
		from = n
	}
	if limit <= 0 {
		limit = 100
	}

	where, args := whereClause(filter)
	if where == "" {
		where = " WHERE c.rowid >= ?"
	} else {
		where += " AND c.rowid >= ?"
	}
	args = append(args, from, limit+1)

	rows, err := db.conn.QueryContext(ctx, "SELECT "+chunkColumns+fromChunks+where+" ORDER BY c.rowid LIMIT ?", args...)
	if err != nil {
		return index.Page{}, fmt.Errorf("failed to scroll chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var page index.Page
	for rows.Next() {
		var (
			rowID int64
			id    string
			p     index.Payload
		)
		if err := rows.Scan(&rowID, &id, &p.DocumentID, &p.Filename, &p.ChunkIndex,
			&p.TotalChunks, &p.ChunkText, &p.UploadedAt); err != nil {
			return index.Page{}, fmt.Errorf("failed to scan chunk: %w", err)
		}
		if len(page.Payloads) == limit {
			page.NextOffset = strconv.FormatInt(rowID, 10)
			break
		}
		page.Payloads = append(page.Payloads, p)
	}
	if err := rows.Err(); err != nil {
		return index.Page{}, fmt.Errorf("error iterating chunks: %w", err)
	}
	return page, nil
}

// Delete removes matching chunks and any document left without chunks
func (db *DB) Delete(ctx context.Context, filter index.Filter) error {
	if filter.IsEmpty() {
		return index.ErrEmptyFilter
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	where, args := whereClause(filter)
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM chunks WHERE id IN (SELECT c.id`+fromChunks+where+`)`,
		args...); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM documents WHERE id NOT IN (SELECT DISTINCT document_id FROM chunks)`); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

// Count returns the number of stored chunks
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

// whereClause renders a filter as SQL over the c (chunks) and d (documents) aliases
func whereClause(f index.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if len(f.DocumentIDs) > 0 {
		conds = append(conds, "d.id IN ("+placeholders(len(f.DocumentIDs))+")")
		for _, id := range f.DocumentIDs {
			args = append(args, id)
		}
	}
	if len(f.Filenames) > 0 {
		var ors []string
		for _, name := range f.Filenames {
			ors = append(ors, "instr(d.filename, ?) > 0")
			args = append(args, name)
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}
	if f.Filename != "" {
		conds = append(conds, "d.filename = ?")
		args = append(args, f.Filename)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// vectorToBlob encodes a float32 vector as little-endian bytes
func vectorToBlob(vector []float32) []byte {
	buf := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// blobToVector decodes a little-endian float32 BLOB
func blobToVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}

var _ index.Index = (*DB)(nil)
