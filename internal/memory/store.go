package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/jarvis-docs/server/internal/logger"
	"github.com/jarvis-docs/server/internal/store"
)

// Backend is the slice of the vector store the memory log needs.
// *store.DB satisfies it.
type Backend interface {
	UpsertMemory(ctx context.Context, id, userID, role string, ts int64, content string, vector pgvector.Vector) error
	QueryMemories(ctx context.Context, userID string, vector pgvector.Vector, n int) ([]string, error)
}

// Store is a per-user append-only log of conversation turns, indexed by
// embedding for recall. Memory is an enrichment of the chat path, never
// a hard dependency: recall failures degrade to empty results.
type Store struct {
	db  Backend
	emb store.Embedder
}

// NewStore creates a new memory store
func NewStore(db Backend, emb store.Embedder) *Store {
	return &Store{db: db, emb: emb}
}

// Remember appends one conversation turn for a user. Identity is
// {userID}:{unix seconds}, so a replayed turn overwrites itself.
func (s *Store) Remember(ctx context.Context, userID, role, text string) error {
	ts := time.Now().Unix()
	display := fmt.Sprintf("[%s @ %d] %s", role, ts, text)

	vectors, err := s.emb.Embed(ctx, []string{display}, true)
	if err != nil {
		return fmt.Errorf("failed to embed memory: %w", err)
	}

	id := fmt.Sprintf("%s:%d", userID, ts)
	return s.db.UpsertMemory(ctx, id, userID, role, ts, display, pgvector.NewVector(vectors[0]))
}

// Recall returns up to n stored turns nearest to the query, in rank
// order. Any backing failure is swallowed and an empty slice returned.
func (s *Store) Recall(ctx context.Context, userID, query string, n int) []string {
	vectors, err := s.emb.Embed(ctx, []string{query}, true)
	if err != nil {
		logger.Warn("Memory recall embedding failed for user %s: %v", userID, err)
		return nil
	}

	out, err := s.db.QueryMemories(ctx, userID, pgvector.NewVector(vectors[0]), n)
	if err != nil {
		logger.Warn("Memory recall failed for user %s: %v", userID, err)
		return nil
	}
	return out
}
