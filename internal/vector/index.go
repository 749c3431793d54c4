// Package vector provides positional inner-product vector indices.
package vector

import "context"

// Index stores fixed-dimension vectors addressed by insertion position and
// searches them by inner product. For unit vectors the score is cosine similarity.
type Index interface {
	// Add appends vectors; the first gets position Size() before the call.
	Add(ctx context.Context, vectors [][]float32) error
	// Search returns up to k hits in descending score order.
	Search(ctx context.Context, query []float32, k int) ([]Hit, error)
	Size() int
	Dimensions() int
	Type() string
	Close() error
}

// Hit is a single search result.
type Hit struct {
	Position int
	Score    float32
}
