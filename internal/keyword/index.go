// Package keyword provides full-text search over stored chunks.
package keyword

import "context"

// SearchOptions are optional parameters for keyword search. Nil means exact matching.
type SearchOptions struct {
	// FuzzyEnabled matches terms within Fuzziness edits of the query terms.
	FuzzyEnabled bool
	// Fuzziness is the maximum edit distance (1 or 2, default 1).
	Fuzziness int
}

// ChunkIndex indexes chunk texts by store position.
type ChunkIndex interface {
	// IndexChunks indexes texts at positions first, first+1, ... with the owning document title.
	IndexChunks(ctx context.Context, first int, texts []string, title string) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Hit, error)
	// DocCount returns the number of indexed chunks.
	DocCount() (uint64, error)
	Close() error
}

// Hit is a single keyword search result.
type Hit struct {
	Position  int
	Score     float64
	Title     string
	Fragments []string
}
