package store

// TextRow is one indexed text chunk. Its id is a deterministic function
// of document, page and ordinal, so re-upserting overwrites.
type TextRow struct {
	ID      string
	DocID   string
	Title   string
	Page    int
	Section string
	Content string
}

// ImageRow is one indexed image record. The caption is synthetic
// ("Figure p.N"): image retrieval is driven by page position, not
// visual content.
type ImageRow struct {
	ID      string
	DocID   string
	Page    int
	URL     string
	Caption string
}

// TextHit is a nearest-neighbor match from the text collection,
// with the index-native distance (ascending rank order).
type TextHit struct {
	ID       string
	DocID    string
	Title    string
	Page     int
	Section  string
	Content  string
	Distance float64
}

// ImageHit is a nearest-neighbor match from the image collection.
type ImageHit struct {
	ID       string
	DocID    string
	Page     int
	URL      string
	Distance float64
}
