package rag

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jarvis-docs/server/internal/store"
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
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

type fakeQueryer struct {
	textHits  []store.TextHit
	imageHits []store.ImageHit
	textErr   error
	imageErr  error
	imageK    int
}

func (f *fakeQueryer) QueryText(ctx context.Context, vector []float32, k int) ([]store.TextHit, error) {
	return f.textHits, f.textErr
}

func (f *fakeQueryer) QueryImages(ctx context.Context, vector []float32, k int) ([]store.ImageHit, error) {
	f.imageK = k
	return f.imageHits, f.imageErr
}

func TestSearchScoresAndSnippets(t *testing.T) {
	long := strings.Repeat("z", 900)
	q := &fakeQueryer{textHits: []store.TextHit{
		{DocID: "d1", Title: "Manual", Page: 3, Content: "short passage", Distance: 0.1},
		{DocID: "d1", Title: "Manual", Page: 7, Content: long, Distance: 0.4},
	}}
	r := NewRetriever(&fakeEmbedder{}, q)

	hits, _, err := r.Search(context.Background(), "query", 6, false)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if math.Abs(hits[0].Score-0.9) > 1e-9 {
		t.Errorf("expected score 0.9, got %v", hits[0].Score)
	}
	if hits[0].Score <= hits[1].Score {
		t.Error("scores must decrease with distance")
	}
	if len(hits[1].Snippet) != SnippetChars {
		t.Errorf("expected snippet capped at %d chars, got %d", SnippetChars, len(hits[1].Snippet))
	}
	if hits[0].Snippet != "short passage" {
		t.Errorf("short content must pass through untouched: %q", hits[0].Snippet)
	}
}

func TestSearchSnippetRuneBoundary(t *testing.T) {
	// A multi-byte rune straddling the cap must not be split into a
	// dangling continuation byte.
	content := strings.Repeat("a", SnippetChars-1) + "é" + strings.Repeat("b", 100)
	q := &fakeQueryer{textHits: []store.TextHit{
		{DocID: "d1", Title: "Manual", Page: 1, Content: content, Distance: 0.2},
	}}
	r := NewRetriever(&fakeEmbedder{}, q)

	hits, _, err := r.Search(context.Background(), "query", 6, false)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	snippet := hits[0].Snippet
	if !utf8.ValidString(snippet) {
		t.Fatalf("snippet is invalid UTF-8: %q", snippet)
	}
	if got := utf8.RuneCountInString(snippet); got != SnippetChars {
		t.Errorf("expected %d characters, got %d", SnippetChars, got)
	}
	if !strings.HasSuffix(snippet, "é") {
		t.Errorf("expected the full rune at the boundary, snippet ends %q", snippet[len(snippet)-4:])
	}
}

func TestSearchImageCap(t *testing.T) {
	q := &fakeQueryer{imageHits: []store.ImageHit{
		{URL: "http://minio/a.png"}, {URL: "http://minio/b.png"},
	}}
	r := NewRetriever(&fakeEmbedder{}, q)

	_, urls, err := r.Search(context.Background(), "query", 10, true)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if q.imageK != 4 {
		t.Errorf("expected image query capped at 4, got %d", q.imageK)
	}
	if len(urls) != 2 || urls[0] != "http://minio/a.png" {
		t.Errorf("unexpected urls: %v", urls)
	}

	// k below the cap passes through.
	if _, _, err := r.Search(context.Background(), "query", 2, true); err != nil {
		t.Fatal(err)
	}
	if q.imageK != 2 {
		t.Errorf("expected image query k=2, got %d", q.imageK)
	}
}

func TestSearchSkipsImagesWhenNotWanted(t *testing.T) {
	q := &fakeQueryer{imageHits: []store.ImageHit{{URL: "http://minio/a.png"}}}
	r := NewRetriever(&fakeEmbedder{}, q)

	_, urls, err := r.Search(context.Background(), "query", 6, false)
	if err != nil {
		t.Fatal(err)
	}
	if urls != nil {
		t.Errorf("expected no image urls, got %v", urls)
	}
}

func TestSearchStoreFailureDegrades(t *testing.T) {
	q := &fakeQueryer{textErr: errors.New("db down"), imageErr: errors.New("db down")}
	r := NewRetriever(&fakeEmbedder{}, q)

	hits, urls, err := r.Search(context.Background(), "query", 6, true)
	if err != nil {
		t.Fatalf("store failures must degrade, not fail: %v", err)
	}
	if len(hits) != 0 || len(urls) != 0 {
		t.Errorf("expected empty results, got %v / %v", hits, urls)
	}
}

func TestSearchEmbedFailureIsFatal(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{err: errors.New("embeddings down")}, &fakeQueryer{})
	if _, _, err := r.Search(context.Background(), "query", 6, false); err == nil {
		t.Fatal("expected embedding failure to fail the search")
	}
}
