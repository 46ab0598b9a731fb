package documents

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/jarvis-docs/server/internal/logger"
	"github.com/jarvis-docs/server/internal/store"
)

// ErrUnsupportedFormat rejects anything but the supported document
// container before any processing begins.
var ErrUnsupportedFormat = errors.New("only PDF files are supported")

var pdfMagic = []byte("%PDF-")

// DocParser turns document bytes into extracted pages.
type DocParser interface {
	Parse(ctx context.Context, data []byte, title, docID string) (*ParsedDocument, error)
}

// Indexer is the slice of the vector index ingestion needs.
type Indexer interface {
	UpsertText(ctx context.Context, docID, title string, page int, section string, chunks []string) error
	UpsertImages(ctx context.Context, images []store.ImageRef) error
}

// IngestResult reports what one ingest achieved.
type IngestResult struct {
	DocID  string `json:"doc_id"`
	Pages  int    `json:"pages"`
	Chunks int    `json:"chunks"`
}

// Processor ties extraction, chunking and indexing together.
type Processor struct {
	parser DocParser
	index  Indexer
}

// NewProcessor creates a new ingestion processor
func NewProcessor(parser DocParser, index Indexer) *Processor {
	return &Processor{parser: parser, index: index}
}

// DocID is the document identity: the first 16 hex characters of the
// sha256 digest of the raw bytes. Identical bytes always ingest under
// the same identifier.
func DocID(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))[:16]
}

// Ingest validates, extracts, chunks and indexes one document. Text
// indexing failures abort the ingest; image indexing failure only logs
// a warning, since text is the primary retrieval signal.
func (p *Processor) Ingest(ctx context.Context, data []byte, title string) (*IngestResult, error) {
	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, ErrUnsupportedFormat
	}

	docID := DocID(data)
	logger.Info("Processing document: %s (%d bytes)", title, len(data))

	parsed, err := p.parser.Parse(ctx, data, title, docID)
	if err != nil {
		return nil, fmt.Errorf("document processing failed: %w", err)
	}

	totalChunks := 0
	for _, page := range parsed.Pages {
		chunks := MergeSpans(page.Spans)
		if err := p.index.UpsertText(ctx, docID, title, page.Number, "", chunks); err != nil {
			return nil, fmt.Errorf("failed to index page %d: %w", page.Number, err)
		}
		totalChunks += len(chunks)
	}
	logger.Info("Processed %d pages, %d text chunks", len(parsed.Pages), totalChunks)

	refs := make([]store.ImageRef, len(parsed.Images))
	for i, img := range parsed.Images {
		refs[i] = store.ImageRef{DocID: img.DocID, Page: img.Page, URL: img.URL}
	}
	if err := p.index.UpsertImages(ctx, refs); err != nil {
		logger.Warn("Image indexing failed: %v", err)
	} else if len(refs) > 0 {
		logger.Info("Indexed %d images", len(refs))
	}

	return &IngestResult{DocID: docID, Pages: len(parsed.Pages), Chunks: totalChunks}, nil
}
