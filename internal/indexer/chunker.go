// Package indexer turns documents into stored, searchable chunks.
package indexer

import "strings"

// DefaultChunkSize is the chunk size, in characters, used when none is given.
const DefaultChunkSize = 500

// Chunker splits text into sentence-aligned chunks of bounded size.
type Chunker struct {
	size int
}

// NewChunker creates a chunker producing chunks of at most size characters.
// A non-positive size selects DefaultChunkSize.
func NewChunker(size int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &Chunker{size: size}
}

// Size returns the maximum chunk length in characters.
func (c *Chunker) Size() int { return c.size }

// Split splits text with the chunker's size. See Split.
func (c *Chunker) Split(text string) []string {
	return Split(text, c.size)
}

// Split breaks text into trimmed, non-empty chunks of at most size characters.
// Each window [start, start+size) ends right after its last '.' located past start,
// or at the size boundary when there is none. Windows cover the text without gaps
// or overlaps; windows that are blank after trimming are dropped.
func Split(text string, size int) []string {
	var chunks []string
	for _, w := range windows(text, size) {
		if s := strings.TrimSpace(w); s != "" {
			chunks = append(chunks, s)
		}
	}
	return chunks
}

// windows returns the untrimmed windows of text; their concatenation equals text.
func windows(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else if p := lastPeriod(runes, start, end); p > start {
			end = p + 1
		}
		out = append(out, string(runes[start:end]))
		start = end
	}
	return out
}

// lastPeriod returns the index of the last '.' in runes[start:end], or -1.
func lastPeriod(runes []rune, start, end int) int {
	for i := end - 1; i >= start; i-- {
		if runes[i] == '.' {
			return i
		}
	}
	return -1
}
