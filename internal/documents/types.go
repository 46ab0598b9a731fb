package documents

// Rect is a span origin/extent in page coordinates, as far as the
// extraction backend reports them.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// TextSpan is one extracted block of page text with its position.
type TextSpan struct {
	BBox Rect
	Text string
}

// ImageAsset is one extracted raster image persisted to object storage.
type ImageAsset struct {
	DocID string
	Page  int
	URL   string
}

// Page holds the finalized extraction output for one page. Pages are
// immutable after extraction; re-ingestion builds new ones.
type Page struct {
	Number int
	Spans  []TextSpan
	Images []ImageAsset
}

// ParsedDocument is the full extraction result for one document.
type ParsedDocument struct {
	DocID  string
	Title  string
	Pages  []Page
	Images []ImageAsset
}

// SpanCount returns the total number of text spans across pages.
func (d *ParsedDocument) SpanCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Spans)
	}
	return n
}
