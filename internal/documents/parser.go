package documents

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/jarvis-docs/server/internal/logger"
)

// ocrRenderDPI renders pages at 2x the PDF base resolution before
// recognition; small page text recognizes poorly at 72 dpi.
const ocrRenderDPI = 144

// ObjectPutter persists extracted images and returns durable URLs.
type ObjectPutter interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Recognizer is an optional text-recognition backend.
type Recognizer interface {
	Available() bool
	Recognize(ctx context.Context, imageBytes []byte) (text string, ok bool, err error)
}

// Parser extracts text spans and embedded images from document bytes.
type Parser struct {
	objects    ObjectPutter
	recognizer Recognizer
}

// NewParser creates a new document parser
func NewParser(objects ObjectPutter, recognizer Recognizer) *Parser {
	return &Parser{objects: objects, recognizer: recognizer}
}

// Parse extracts pages of text spans and raster images from the raw
// document bytes. Unreadable bytes fail the whole parse; a single
// image that cannot be decoded or stored is skipped with a warning.
func (p *Parser) Parse(ctx context.Context, data []byte, title, docID string) (*ParsedDocument, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer doc.Close()

	parsed := &ParsedDocument{DocID: docID, Title: title}
	seen := make(map[string]bool) // image content hashes, for intra-document dedup

	ocrAvailable := p.recognizer != nil && p.recognizer.Available()
	if ocrAvailable {
		logger.Info("Text recognition available - will enhance extraction")
	}

	for pno := 0; pno < doc.NumPage(); pno++ {
		pageNum := pno + 1

		pageHTML, err := doc.HTML(pno, false)
		if err != nil {
			return nil, fmt.Errorf("failed to extract page %d: %w", pageNum, err)
		}

		spans := extractTextSpans(pageHTML)
		if len(spans) == 0 {
			// Some producers emit no block structure; fall back to plain text.
			if text, terr := doc.Text(pno); terr == nil && strings.TrimSpace(text) != "" {
				spans = plainTextSpans(text)
			}
		}

		if ocrAvailable && hasText(spans) {
			spans = p.enhanceSpans(ctx, doc, pno, spans)
		}

		var pageImages []ImageAsset
		for _, img := range extractImageData(pageHTML) {
			sha := fmt.Sprintf("%x", sha256.Sum256(img.data))[:16]
			if seen[sha] {
				continue
			}
			seen[sha] = true

			key := fmt.Sprintf("%s/page_%d/%s.png", docID, pageNum, sha)
			url, err := p.objects.Put(ctx, key, img.data, img.contentType)
			if err != nil {
				logger.Warn("Failed to store image %s: %v", key, err)
				continue
			}
			pageImages = append(pageImages, ImageAsset{DocID: docID, Page: pageNum, URL: url})
		}

		parsed.Pages = append(parsed.Pages, Page{Number: pageNum, Spans: spans, Images: pageImages})
		parsed.Images = append(parsed.Images, pageImages...)
	}

	logger.Info("Parsed %s: %d pages, %d text spans, %d images",
		title, len(parsed.Pages), parsed.SpanCount(), len(parsed.Images))

	return parsed, nil
}

// enhanceSpans renders the page and runs recognition over it. The
// recognized text replaces the page's spans wholesale when it is more
// than 20% longer than what direct extraction produced; every failure
// falls back silently to the extracted spans.
func (p *Parser) enhanceSpans(ctx context.Context, doc *fitz.Document, pno int, spans []TextSpan) []TextSpan {
	png, err := doc.ImagePNG(pno, ocrRenderDPI)
	if err != nil {
		logger.Warn("Failed to render page %d for recognition: %v", pno+1, err)
		return spans
	}

	recognized, ok, err := p.recognizer.Recognize(ctx, png)
	if err != nil {
		logger.Warn("Recognition failed for page %d: %v", pno+1, err)
		return spans
	}
	if !ok {
		return spans
	}

	recognized = strings.TrimSpace(recognized)
	original := 0
	for _, s := range spans {
		original += len(s.Text)
	}
	if len(recognized)*10 > original*12 {
		logger.Debug("Adopting recognized text for page %d (%d chars over %d extracted)",
			pno+1, len(recognized), original)
		return []TextSpan{{Text: recognized}}
	}
	return spans
}

func hasText(spans []TextSpan) bool {
	for _, s := range spans {
		if strings.TrimSpace(s.Text) != "" {
			return true
		}
	}
	return false
}

// MuPDF positioned-HTML output: block paragraphs carry top/left offsets
// in their style attribute, embedded images appear as base64 data URIs.
var (
	blockRe = regexp.MustCompile(`(?s)<p\s+style="([^"]*)"[^>]*>(.*?)</p>`)
	imageRe = regexp.MustCompile(`<img[^>]+src="data:(image/[a-z]+);base64,([A-Za-z0-9+/=\s]+)"`)
	tagRe   = regexp.MustCompile(`<[^>]+>`)
	ptRe    = regexp.MustCompile(`(top|left):([0-9.]+)pt`)
)

// extractTextSpans pulls positioned text blocks out of a page's HTML
// rendering.
func extractTextSpans(pageHTML string) []TextSpan {
	var spans []TextSpan
	for _, m := range blockRe.FindAllStringSubmatch(pageHTML, -1) {
		text := strings.TrimSpace(html.UnescapeString(tagRe.ReplaceAllString(m[2], "")))
		if text == "" {
			continue
		}
		span := TextSpan{Text: text}
		for _, pt := range ptRe.FindAllStringSubmatch(m[1], -1) {
			v, err := strconv.ParseFloat(pt[2], 64)
			if err != nil {
				continue
			}
			switch pt[1] {
			case "top":
				span.BBox.Y0, span.BBox.Y1 = v, v
			case "left":
				span.BBox.X0, span.BBox.X1 = v, v
			}
		}
		spans = append(spans, span)
	}
	return spans
}

// plainTextSpans splits plain page text into paragraph spans with no
// position information.
func plainTextSpans(text string) []TextSpan {
	var spans []TextSpan
	for _, part := range strings.Split(text, "\n\n") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		spans = append(spans, TextSpan{Text: part})
	}
	return spans
}

type imageData struct {
	data        []byte
	contentType string
}

// extractImageData decodes the embedded raster images of a page.
// Undecodable payloads are skipped; they must not abort the page.
func extractImageData(pageHTML string) []imageData {
	var images []imageData
	for _, m := range imageRe.FindAllStringSubmatch(pageHTML, -1) {
		payload := strings.Map(func(r rune) rune {
			if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
				return -1
			}
			return r
		}, m[2])
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			logger.Warn("Failed to decode embedded image: %v", err)
			continue
		}
		images = append(images, imageData{data: raw, contentType: m[1]})
	}
	return images
}
