package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

// UpsertTextRows stores text chunks with their embeddings. Rows are
// keyed by id; an existing id is overwritten in place.
func (db *DB) UpsertTextRows(ctx context.Context, rows []TextRow, vectors []pgvector.Vector) error {
	if len(rows) == 0 {
		return nil
	}
	if len(rows) != len(vectors) {
		return fmt.Errorf("rows and vectors length mismatch: %d != %d", len(rows), len(vectors))
	}
	if err := db.ensureSchema(ctx); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i, row := range rows {
		batch.Queue(
			`INSERT INTO text_chunks (id, doc_id, title, page, section, content, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (id) DO UPDATE SET
			   doc_id = EXCLUDED.doc_id, title = EXCLUDED.title, page = EXCLUDED.page,
			   section = EXCLUDED.section, content = EXCLUDED.content, embedding = EXCLUDED.embedding`,
			row.ID, row.DocID, row.Title, row.Page, row.Section, row.Content, vectors[i],
		)
	}
	br := db.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < len(rows); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to upsert text chunk %d: %w", i, err)
		}
	}
	return nil
}

// UpsertImageRows stores image records with their caption embeddings.
func (db *DB) UpsertImageRows(ctx context.Context, rows []ImageRow, vectors []pgvector.Vector) error {
	if len(rows) == 0 {
		return nil
	}
	if len(rows) != len(vectors) {
		return fmt.Errorf("rows and vectors length mismatch: %d != %d", len(rows), len(vectors))
	}
	if err := db.ensureSchema(ctx); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i, row := range rows {
		batch.Queue(
			`INSERT INTO image_chunks (id, doc_id, page, url, caption, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO UPDATE SET
			   doc_id = EXCLUDED.doc_id, page = EXCLUDED.page, url = EXCLUDED.url,
			   caption = EXCLUDED.caption, embedding = EXCLUDED.embedding`,
			row.ID, row.DocID, row.Page, row.URL, row.Caption, vectors[i],
		)
	}
	br := db.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < len(rows); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to upsert image %d: %w", i, err)
		}
	}
	return nil
}

// QueryText returns the k nearest text chunks by cosine distance,
// ascending.
func (db *DB) QueryText(ctx context.Context, vector pgvector.Vector, k int) ([]TextHit, error) {
	if err := db.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, doc_id, title, page, section, content, embedding <=> $1 AS distance
		 FROM text_chunks
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vector, k,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query text chunks: %w", err)
	}
	defer rows.Close()

	var hits []TextHit
	for rows.Next() {
		var h TextHit
		if err := rows.Scan(&h.ID, &h.DocID, &h.Title, &h.Page, &h.Section, &h.Content, &h.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan text hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// QueryImages returns the k nearest image records by caption distance.
func (db *DB) QueryImages(ctx context.Context, vector pgvector.Vector, k int) ([]ImageHit, error) {
	if err := db.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, doc_id, page, url, embedding <=> $1 AS distance
		 FROM image_chunks
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vector, k,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var hits []ImageHit
	for rows.Next() {
		var h ImageHit
		if err := rows.Scan(&h.ID, &h.DocID, &h.Page, &h.URL, &h.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan image hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// UpsertMemory stores one conversation turn for a user.
func (db *DB) UpsertMemory(ctx context.Context, id, userID, role string, ts int64, content string, vector pgvector.Vector) error {
	if err := db.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO memories (id, user_id, role, ts, content, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
		   role = EXCLUDED.role, content = EXCLUDED.content, embedding = EXCLUDED.embedding`,
		id, userID, role, ts, content, vector,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert memory: %w", err)
	}
	return nil
}

// QueryMemories returns up to n stored turns for one user, nearest first.
func (db *DB) QueryMemories(ctx context.Context, userID string, vector pgvector.Vector, n int) ([]string, error) {
	if err := db.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := db.pool.Query(ctx,
		`SELECT content
		 FROM memories
		 WHERE user_id = $1
		 ORDER BY embedding <=> $2
		 LIMIT $3`,
		userID, vector, n,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
