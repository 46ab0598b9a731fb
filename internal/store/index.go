package store

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
)

// Embedder converts texts into fixed-length vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string, normalize bool) ([][]float32, error)
}

// Backend is the slice of DB the index needs. *DB satisfies it.
type Backend interface {
	UpsertTextRows(ctx context.Context, rows []TextRow, vectors []pgvector.Vector) error
	UpsertImageRows(ctx context.Context, rows []ImageRow, vectors []pgvector.Vector) error
	QueryText(ctx context.Context, vector pgvector.Vector, k int) ([]TextHit, error)
	QueryImages(ctx context.Context, vector pgvector.Vector, k int) ([]ImageHit, error)
}

// ImageRef identifies one extracted image to be indexed.
type ImageRef struct {
	DocID string
	Page  int
	URL   string
}

// Index is the document vector index: a text collection and an
// image-caption collection over one backing store.
type Index struct {
	db         Backend
	textEmb    Embedder
	captionEmb Embedder
}

// NewIndex creates a new vector index
func NewIndex(db Backend, textEmb, captionEmb Embedder) *Index {
	return &Index{db: db, textEmb: textEmb, captionEmb: captionEmb}
}

// UpsertText indexes the chunk texts of one page. Chunk identity is
// {docID}:{page}:{ordinal}, so re-ingesting the same document overwrites
// rather than duplicates.
func (ix *Index) UpsertText(ctx context.Context, docID, title string, page int, section string, chunks []string) error {
	if len(chunks) == 0 {
		return nil
	}

	vectors, err := ix.textEmb.Embed(ctx, chunks, true)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}

	rows := make([]TextRow, len(chunks))
	vecs := make([]pgvector.Vector, len(chunks))
	for i, text := range chunks {
		rows[i] = TextRow{
			ID:      fmt.Sprintf("%s:%d:%d", docID, page, i),
			DocID:   docID,
			Title:   title,
			Page:    page,
			Section: section,
			Content: text,
		}
		vecs[i] = pgvector.NewVector(vectors[i])
	}
	return ix.db.UpsertTextRows(ctx, rows, vecs)
}

// UpsertImages indexes extracted images under synthetic page-position
// captions. Identity is {docID}:img:{page}:{ordinal}.
func (ix *Index) UpsertImages(ctx context.Context, images []ImageRef) error {
	if len(images) == 0 {
		return nil
	}

	captions := make([]string, len(images))
	for i, img := range images {
		captions[i] = fmt.Sprintf("Figure p.%d", img.Page)
	}

	vectors, err := ix.captionEmb.Embed(ctx, captions, true)
	if err != nil {
		return fmt.Errorf("failed to embed captions: %w", err)
	}

	rows := make([]ImageRow, len(images))
	vecs := make([]pgvector.Vector, len(images))
	for i, img := range images {
		rows[i] = ImageRow{
			ID:      fmt.Sprintf("%s:img:%d:%d", img.DocID, img.Page, i),
			DocID:   img.DocID,
			Page:    img.Page,
			URL:     img.URL,
			Caption: captions[i],
		}
		vecs[i] = pgvector.NewVector(vectors[i])
	}
	return ix.db.UpsertImageRows(ctx, rows, vecs)
}

// QueryText runs a nearest-neighbor lookup against the text collection.
func (ix *Index) QueryText(ctx context.Context, vector []float32, k int) ([]TextHit, error) {
	return ix.db.QueryText(ctx, pgvector.NewVector(vector), k)
}

// QueryImages runs a nearest-neighbor lookup against the image collection.
func (ix *Index) QueryImages(ctx context.Context, vector []float32, k int) ([]ImageHit, error) {
	return ix.db.QueryImages(ctx, pgvector.NewVector(vector), k)
}
