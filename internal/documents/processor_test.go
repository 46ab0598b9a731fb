package documents

import (
	"context"
	"errors"
	"testing"

	"github.com/jarvis-docs/server/internal/store"
)

type fakeParser struct {
	doc *ParsedDocument
	err error
}

func (f *fakeParser) Parse(ctx context.Context, data []byte, title, docID string) (*ParsedDocument, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.doc.DocID = docID
	f.doc.Title = title
	return f.doc, nil
}

type fakeIndexer struct {
	textCalls  int
	chunks     []string
	images     []store.ImageRef
	textErr    error
	imageErr   error
	imageCalls int
}

func (f *fakeIndexer) UpsertText(ctx context.Context, docID, title string, page int, section string, chunks []string) error {
	f.textCalls++
	f.chunks = append(f.chunks, chunks...)
	return f.textErr
}

func (f *fakeIndexer) UpsertImages(ctx context.Context, images []store.ImageRef) error {
	f.imageCalls++
	f.images = images
	return f.imageErr
}

var pdfBytes = []byte("%PDF-1.4 fake content")

func TestDocIDDeterministic(t *testing.T) {
	a := DocID([]byte("same bytes"))
	b := DocID([]byte("same bytes"))
	c := DocID([]byte("other bytes"))
	if a != b {
		t.Errorf("identical bytes produced different ids: %s vs %s", a, b)
	}
	if a == c {
		t.Error("different bytes produced the same id")
	}
	if len(a) != 16 {
		t.Errorf("expected 16 hex chars, got %d", len(a))
	}
}

func TestIngestRejectsNonPDF(t *testing.T) {
	p := NewProcessor(&fakeParser{}, &fakeIndexer{})
	_, err := p.Ingest(context.Background(), []byte("plain text file"), "notes.txt")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestIngestCountsPagesAndChunks(t *testing.T) {
	parser := &fakeParser{doc: &ParsedDocument{
		Pages: []Page{
			{Number: 1, Spans: []TextSpan{{Text: "one"}, {Text: "two"}}},
			{Number: 2, Spans: []TextSpan{{Text: "three"}}},
		},
	}}
	index := &fakeIndexer{}
	p := NewProcessor(parser, index)

	res, err := p.Ingest(context.Background(), pdfBytes, "doc.pdf")
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if res.DocID != DocID(pdfBytes) {
		t.Errorf("result doc id %s does not match content hash", res.DocID)
	}
	if res.Pages != 2 {
		t.Errorf("expected 2 pages, got %d", res.Pages)
	}
	if res.Chunks != 2 {
		t.Errorf("expected 2 merged chunks, got %d", res.Chunks)
	}
	if index.textCalls != 2 {
		t.Errorf("expected one upsert per page, got %d", index.textCalls)
	}
}

func TestIngestTextFailureIsFatal(t *testing.T) {
	parser := &fakeParser{doc: &ParsedDocument{
		Pages: []Page{{Number: 1, Spans: []TextSpan{{Text: "content"}}}},
	}}
	index := &fakeIndexer{textErr: errors.New("db down")}
	p := NewProcessor(parser, index)

	if _, err := p.Ingest(context.Background(), pdfBytes, "doc.pdf"); err == nil {
		t.Fatal("expected text indexing failure to abort the ingest")
	}
}

func TestIngestImageFailureDegrades(t *testing.T) {
	parser := &fakeParser{doc: &ParsedDocument{
		Pages:  []Page{{Number: 1, Spans: []TextSpan{{Text: "content"}}}},
		Images: []ImageAsset{{Page: 1, URL: "http://minio/img.png"}},
	}}
	index := &fakeIndexer{imageErr: errors.New("db down")}
	p := NewProcessor(parser, index)

	res, err := p.Ingest(context.Background(), pdfBytes, "doc.pdf")
	if err != nil {
		t.Fatalf("image indexing failure must not abort the ingest: %v", err)
	}
	if res.Chunks != 1 {
		t.Errorf("expected 1 chunk, got %d", res.Chunks)
	}
	if index.imageCalls != 1 {
		t.Errorf("expected image upsert to be attempted, got %d calls", index.imageCalls)
	}
}

func TestIngestParseFailure(t *testing.T) {
	p := NewProcessor(&fakeParser{err: errors.New("corrupt file")}, &fakeIndexer{})
	if _, err := p.Ingest(context.Background(), pdfBytes, "doc.pdf"); err == nil {
		t.Fatal("expected parse failure to abort the ingest")
	}
}
