// Package agent implements the scripted document analyzer and onboarding agents.
package agent

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hyperjump/qadesk/internal/models"
)

// ErrNoContext is returned when retrieval finds nothing to ground a generation step on.
var ErrNoContext = errors.New("no matching documents")

// ChunkSource exposes the stored chunk sequence.
type ChunkSource interface {
	Chunks() []string
}

// Retriever returns the k chunks most similar to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]models.Chunk, error)
}

// excerptSeparator joins retrieved chunks into a prompt.
const excerptSeparator = "\n\n---\n\n"

// JoinExcerpts joins chunk texts with the separator used in every prompt.
func JoinExcerpts(chunks []models.Chunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return strings.Join(texts, excerptSeparator)
}

type clock func() time.Time

func nowLocal() time.Time { return time.Now() }
