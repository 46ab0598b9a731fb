package documents

import "strings"

// MaxChunkChars caps the accumulation buffer while merging spans.
// Larger chunks trade retrieval granularity for fewer embedding calls.
const MaxChunkChars = 1200

// MergeSpans merges consecutive non-empty span texts of one page into
// bounded chunks. A span is appended (blank-line separated) while the
// buffer stays under the cap, otherwise the buffer is flushed and the
// span starts a new one. A single span longer than the cap becomes a
// chunk on its own; spans are never split.
func MergeSpans(spans []TextSpan) []string {
	var merged []string
	var buf string

	for _, span := range spans {
		text := strings.TrimSpace(span.Text)
		if text == "" {
			continue
		}
		if len(buf)+len(text) < MaxChunkChars {
			if buf != "" {
				buf += "\n\n" + text
			} else {
				buf = text
			}
		} else {
			if buf != "" {
				merged = append(merged, buf)
			}
			buf = text
		}
	}
	if buf != "" {
		merged = append(merged, buf)
	}
	return merged
}
