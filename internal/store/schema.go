package store

import (
	"context"
	"fmt"
)

// Collection tables. text_chunks and image_chunks back document
// retrieval; memories backs per-user conversational recall.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS text_chunks (
		id         TEXT PRIMARY KEY,
		doc_id     TEXT NOT NULL,
		title      TEXT NOT NULL DEFAULT '',
		page       INT  NOT NULL,
		section    TEXT NOT NULL DEFAULT '',
		content    TEXT NOT NULL,
		embedding  vector NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS image_chunks (
		id         TEXT PRIMARY KEY,
		doc_id     TEXT NOT NULL,
		page       INT  NOT NULL,
		url        TEXT NOT NULL,
		caption    TEXT NOT NULL,
		embedding  vector NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS memories (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		role       TEXT NOT NULL,
		ts         BIGINT NOT NULL,
		content    TEXT NOT NULL,
		embedding  vector NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS memories_user_idx ON memories (user_id)`,
}

// ensureSchema creates the collections on first access. The result is
// cached; a failed first attempt fails every later call, matching
// initialize-once semantics.
func (db *DB) ensureSchema(ctx context.Context) error {
	db.schemaOnce.Do(func() {
		for _, stmt := range schemaStatements {
			if _, err := db.pool.Exec(ctx, stmt); err != nil {
				db.schemaErr = fmt.Errorf("failed to ensure schema: %w", err)
				return
			}
		}
	})
	return db.schemaErr
}
