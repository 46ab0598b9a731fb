package documents

import (
	"strings"
	"testing"
)

func TestMergeSpansEmpty(t *testing.T) {
	if got := MergeSpans(nil); got != nil {
		t.Errorf("expected nil for no spans, got %v", got)
	}
	if got := MergeSpans([]TextSpan{{Text: "  "}, {Text: "\n"}}); got != nil {
		t.Errorf("expected nil for blank spans, got %v", got)
	}
}

func TestMergeSpansSingleChunk(t *testing.T) {
	spans := []TextSpan{{Text: "first"}, {Text: "second"}, {Text: "third"}}
	got := MergeSpans(spans)
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	if got[0] != "first\n\nsecond\n\nthird" {
		t.Errorf("unexpected chunk: %q", got[0])
	}
}

func TestMergeSpansFlushesAtCap(t *testing.T) {
	// Three 500-char spans plus a 50-char span: the first two merge
	// (1002 chars with separator), the third opens a new buffer and
	// the short span joins it.
	long := strings.Repeat("a", 500)
	spans := []TextSpan{{Text: long}, {Text: long}, {Text: long}, {Text: strings.Repeat("b", 50)}}
	got := MergeSpans(spans)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
	if len(got[0]) != 1002 {
		t.Errorf("first chunk: expected 1002 chars, got %d", len(got[0]))
	}
	if len(got[1]) != 552 {
		t.Errorf("second chunk: expected 552 chars, got %d", len(got[1]))
	}
}

func TestMergeSpansOversizeSpan(t *testing.T) {
	// A span at or above the cap is never split; it becomes a chunk of
	// its own without producing an empty chunk before it.
	huge := strings.Repeat("x", MaxChunkChars+100)
	got := MergeSpans([]TextSpan{{Text: huge}, {Text: "tail"}})
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
	if got[0] != huge {
		t.Errorf("oversize span was altered")
	}
	if got[1] != "tail" {
		t.Errorf("expected tail chunk, got %q", got[1])
	}
}

func TestMergeSpansTrimsWhitespace(t *testing.T) {
	got := MergeSpans([]TextSpan{{Text: "  hello  "}, {Text: "\tworld\n"}})
	if len(got) != 1 || got[0] != "hello\n\nworld" {
		t.Errorf("unexpected result: %v", got)
	}
}
