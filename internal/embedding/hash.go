package embedding

import (
	"context"

	"github.com/hyperjump/qadesk/pkg/utils"
)

// HashEmbedder is a deterministic bag-of-words embedder. Each lower-cased word is
// hashed to a signed dimension (the hashing trick) and the result is unit-normalized,
// so texts sharing words score higher. Used in tests and when no model is available.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns a hash embedder with the given dimensions (default 384).
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns the unit-length embedding of text. Text without words is hashed whole.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	emb := make([]float32, e.dimensions)
	words := SplitWords(text)
	if len(words) == 0 {
		words = []string{text}
	}
	for _, w := range words {
		h := HashString(w)
		sign := float32(1)
		if h>>63 == 1 {
			sign = -1
		}
		emb[h%uint64(e.dimensions)] += sign
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, texts, e.Embed)
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Identity names the hashing scheme.
func (e *HashEmbedder) Identity() string { return "hash" }

// Close is a no-op for HashEmbedder.
func (e *HashEmbedder) Close() error {
	return nil
}
