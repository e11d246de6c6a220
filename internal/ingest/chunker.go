// Package ingest loads insurance documents and indexes them into the
// vector store.
package ingest

import "strings"

// Chunker splits document text into overlapping pieces sized for
// embedding.
type Chunker struct {
	Size    int
	Overlap int
}

// NewChunker creates a chunker with the given window and overlap in
// characters. Invalid values fall back to 500/50.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 500
	}
	if overlap < 0 || overlap >= size {
		overlap = 50
	}
	return &Chunker{Size: size, Overlap: overlap}
}

// Split breaks text into chunks of at most Size characters, preferring
// to cut at a sentence or word boundary near the window edge. Adjacent
// chunks share Overlap characters of context.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= c.Size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + c.Size
		if end >= len(text) {
			chunk := strings.TrimSpace(text[start:])
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		cut := boundary(text, start, end)
		chunk := strings.TrimSpace(text[start:cut])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - c.Overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

// boundary finds the best cut point at or before end. Sentence ends
// win over word breaks, and only within the last fifth of the window
// so a boundary-free stretch still makes progress.
func boundary(text string, start, end int) int {
	limit := end - (end-start)/5

	for i := end; i > limit; i-- {
		if isSentenceEnd(text[i-1]) {
			return i
		}
	}
	for i := end; i > limit; i-- {
		if text[i-1] == ' ' || text[i-1] == '\n' {
			return i
		}
	}
	return end
}

func isSentenceEnd(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}
