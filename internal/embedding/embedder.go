// Package embedding turns text into fixed-dimension vectors.
package embedding

import "context"

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// Identifier is implemented by embedders that can name the model behind their
// vectors. Vectors from embedders with different identities are not comparable
// even when their dimensions agree.
type Identifier interface {
	Identity() string
}

// Identity returns e's model identity, or "" when e does not report one.
func Identity(e Embedder) string {
	if id, ok := e.(Identifier); ok {
		return id.Identity()
	}
	return ""
}

// embedEach calls embed for each text in order.
func embedEach(ctx context.Context, texts []string, embed func(context.Context, string) ([]float32, error)) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		emb, err := embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}
