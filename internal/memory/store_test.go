package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pgvector/pgvector-go"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string, normalize bool) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.5, 0.5}
	}
	return out, nil
}

type fakeBackend struct {
	upserts  []string // id
	contents []string
	queryOut []string
	queryErr error
	upErr    error
}

func (f *fakeBackend) UpsertMemory(ctx context.Context, id, userID, role string, ts int64, content string, vector pgvector.Vector) error {
	f.upserts = append(f.upserts, id)
	f.contents = append(f.contents, content)
	return f.upErr
}

func (f *fakeBackend) QueryMemories(ctx context.Context, userID string, vector pgvector.Vector, n int) ([]string, error) {
	return f.queryOut, f.queryErr
}

func TestRememberFormatsEntry(t *testing.T) {
	b := &fakeBackend{}
	s := NewStore(b, &fakeEmbedder{})

	before := time.Now().Unix()
	if err := s.Remember(context.Background(), "alex", "user", "hello"); err != nil {
		t.Fatalf("Remember failed: %v", err)
	}
	after := time.Now().Unix()

	if len(b.upserts) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(b.upserts))
	}
	var ts int64
	if _, err := fmt.Sscanf(b.upserts[0], "alex:%d", &ts); err != nil {
		t.Fatalf("unexpected id shape: %q", b.upserts[0])
	}
	if ts < before || ts > after {
		t.Errorf("timestamp %d outside call window [%d, %d]", ts, before, after)
	}
	want := fmt.Sprintf("[user @ %d] hello", ts)
	if b.contents[0] != want {
		t.Errorf("stored %q, want %q", b.contents[0], want)
	}
}

func TestRememberEmbedFailure(t *testing.T) {
	s := NewStore(&fakeBackend{}, &fakeEmbedder{err: errors.New("embeddings down")})
	if err := s.Remember(context.Background(), "alex", "user", "hello"); err == nil {
		t.Fatal("expected embedding failure to be returned")
	}
}

func TestRecall(t *testing.T) {
	b := &fakeBackend{queryOut: []string{"[user @ 1] hi", "[assistant @ 2] hello"}}
	s := NewStore(b, &fakeEmbedder{})

	got := s.Recall(context.Background(), "alex", "greeting", 6)
	if len(got) != 2 || !strings.HasPrefix(got[0], "[user @ 1]") {
		t.Errorf("unexpected recall: %v", got)
	}
}

func TestRecallSwallowsFailures(t *testing.T) {
	// A missing table, a dead connection or a failed embedding must all
	// degrade to an empty recall, never an error surfaced to chat.
	s := NewStore(&fakeBackend{queryErr: errors.New("relation does not exist")}, &fakeEmbedder{})
	if got := s.Recall(context.Background(), "alex", "greeting", 6); got != nil {
		t.Errorf("expected nil on query failure, got %v", got)
	}

	s = NewStore(&fakeBackend{}, &fakeEmbedder{err: errors.New("embeddings down")})
	if got := s.Recall(context.Background(), "alex", "greeting", 6); got != nil {
		t.Errorf("expected nil on embed failure, got %v", got)
	}
}
