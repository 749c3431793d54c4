// Package storage defines the document catalog: which files were ingested and
// which store positions their chunks occupy.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/qadesk/internal/models"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Catalog defines document persistence operations.
type Catalog interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	FindByContentHash(ctx context.Context, hash string) (*models.Document, error)
	// DocumentForChunk returns the document whose chunk range contains pos.
	DocumentForChunk(ctx context.Context, pos int) (*models.Document, error)
	// ListDocuments returns documents in ingestion order. limit <= 0 means no limit.
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)

	CountDocuments(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)

	Close() error
}
