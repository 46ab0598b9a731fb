package rag

import (
	"context"
	"unicode/utf8"

	"github.com/jarvis-docs/server/internal/logger"
	"github.com/jarvis-docs/server/internal/store"
)

// SnippetChars caps the text carried back per hit.
const SnippetChars = 600

// maxImageResults caps the image list independently of k.
const maxImageResults = 4

// SearchHit is one retrieved passage, scored for presentation.
// Score is 1 - distance, so it decreases with index-native distance.
type SearchHit struct {
	DocID   string  `json:"doc_id"`
	Title   string  `json:"title"`
	Page    int     `json:"page"`
	Section string  `json:"section,omitempty"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Queryer is the slice of the vector index retrieval needs.
type Queryer interface {
	QueryText(ctx context.Context, vector []float32, k int) ([]store.TextHit, error)
	QueryImages(ctx context.Context, vector []float32, k int) ([]store.ImageHit, error)
}

// Retriever embeds a query once and fans it out over the text and
// image collections. Text hits and image URLs stay two independent
// ranked lists: caption relevance is a weaker signal than content
// similarity and merging their scores would mislead.
type Retriever struct {
	emb   store.Embedder
	index Queryer
}

// NewRetriever creates a new retriever
func NewRetriever(emb store.Embedder, index Queryer) *Retriever {
	return &Retriever{emb: emb, index: index}
}

// Search returns the top-k scored text hits and, when requested, up to
// min(4, k) image URLs. Store read failures degrade to empty results
// rather than failing the request.
func (r *Retriever) Search(ctx context.Context, query string, k int, wantImages bool) ([]SearchHit, []string, error) {
	vectors, err := r.emb.Embed(ctx, []string{query}, true)
	if err != nil {
		return nil, nil, err
	}
	qvec := vectors[0]

	var hits []SearchHit
	textHits, err := r.index.QueryText(ctx, qvec, k)
	if err != nil {
		logger.Warn("Text search failed, returning no hits: %v", err)
	}
	for _, h := range textHits {
		snippet := truncateSnippet(h.Content)
		hits = append(hits, SearchHit{
			DocID:   h.DocID,
			Title:   h.Title,
			Page:    h.Page,
			Section: h.Section,
			Snippet: snippet,
			Score:   1.0 - h.Distance,
		})
	}

	var urls []string
	if wantImages {
		n := k
		if n > maxImageResults {
			n = maxImageResults
		}
		imageHits, err := r.index.QueryImages(ctx, qvec, n)
		if err != nil {
			logger.Warn("Image search failed, returning no images: %v", err)
		}
		for _, h := range imageHits {
			urls = append(urls, h.URL)
		}
	}

	return hits, urls, nil
}

// truncateSnippet caps content at SnippetChars characters. The cut is
// by rune, never mid-sequence, so snippets stay valid UTF-8.
func truncateSnippet(content string) string {
	if utf8.RuneCountInString(content) <= SnippetChars {
		return content
	}
	return string([]rune(content)[:SnippetChars])
}
