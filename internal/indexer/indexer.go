// Package indexer runs the ingestion pipeline: extract, chunk, embed and store,
// then record the document in the catalog and the keyword index.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/qadesk/internal/extract"
	"github.com/hyperjump/qadesk/internal/fileid"
	"github.com/hyperjump/qadesk/internal/keyword"
	"github.com/hyperjump/qadesk/internal/models"
	"github.com/hyperjump/qadesk/internal/storage"
	"github.com/hyperjump/qadesk/internal/store"
	"go.uber.org/zap"
)

// Indexer ingests files into the chunk store. The catalog and keyword index are optional.
type Indexer struct {
	store     *store.Store
	catalog   storage.Catalog
	keyword   keyword.ChunkIndex
	extractor *extract.Extractor
	chunkSize int
	logger    *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for ingestion events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithCatalog records every ingested file in c.
func WithCatalog(c storage.Catalog) IndexerOption {
	return func(idx *Indexer) { idx.catalog = c }
}

// WithKeywordIndex indexes every stored chunk in k.
func WithKeywordIndex(k keyword.ChunkIndex) IndexerOption {
	return func(idx *Indexer) { idx.keyword = k }
}

// WithChunkSize sets the chunk size used when a call passes size <= 0.
func WithChunkSize(size int) IndexerOption {
	return func(idx *Indexer) {
		if size > 0 {
			idx.chunkSize = size
		}
	}
}

// NewIndexer creates an indexer that writes into s.
func NewIndexer(s *store.Store, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		store:     s,
		extractor: extract.NewExtractor(),
		chunkSize: DefaultChunkSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Source names a file to ingest. Title defaults to the file's base name.
type Source struct {
	Path  string
	Title string
}

// IngestFile extracts, chunks, embeds and stores the file at path.
// size <= 0 uses the configured chunk size.
func (idx *Indexer) IngestFile(ctx context.Context, path string, size int) (*models.Document, error) {
	return idx.Ingest(ctx, Source{Path: path}, size)
}

// Ingest stores src and returns its catalog record. Store errors propagate; when
// the catalog or keyword update fails afterwards the chunks stay stored and the
// error is returned.
func (idx *Indexer) Ingest(ctx context.Context, src Source, size int) (*models.Document, error) {
	if size <= 0 {
		size = idx.chunkSize
	}
	absPath, err := filepath.Abs(src.Path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}
	hash, err := fileid.HashFile(absPath)
	if err != nil {
		return nil, err
	}
	pages, err := idx.extractor.Extract(absPath)
	if err != nil {
		return nil, fmt.Errorf("extract content: %w", err)
	}
	chunks := Split(JoinPages(pages), size)

	first, err := idx.store.EmbedAndStore(ctx, chunks)
	if err != nil {
		return nil, err
	}

	title := src.Title
	if title == "" {
		title = filepath.Base(absPath)
	}
	doc := &models.Document{
		ID:          uuid.New().String(),
		Title:       title,
		SourcePath:  absPath,
		ContentHash: hash,
		Pages:       len(pages),
		FirstChunk:  first,
		ChunkCount:  len(chunks),
		CreatedAt:   time.Now().UTC(),
	}
	idx.logger.Info("document ingested",
		zap.String("path", absPath),
		zap.String("title", title),
		zap.Int("pages", len(pages)),
		zap.Int("chunks", len(chunks)),
		zap.Int("first_chunk", first))

	if idx.catalog != nil {
		if err := idx.catalog.CreateDocument(ctx, doc); err != nil {
			return doc, fmt.Errorf("record document: %w", err)
		}
	}
	if idx.keyword != nil && len(chunks) > 0 {
		if err := idx.keyword.IndexChunks(ctx, first, chunks, title); err != nil {
			return doc, fmt.Errorf("index keywords: %w", err)
		}
	}
	return doc, nil
}

// IngestNew ingests path unless a document with the same content hash is
// already in the catalog, in which case it returns that document and skipped=true.
func (idx *Indexer) IngestNew(ctx context.Context, path string, size int) (doc *models.Document, skipped bool, err error) {
	if idx.catalog != nil {
		hash, err := fileid.HashFile(path)
		if err != nil {
			return nil, false, err
		}
		existing, err := idx.catalog.FindByContentHash(ctx, hash)
		switch {
		case err == nil:
			idx.logger.Debug("indexer skipping known content", zap.String("path", path), zap.String("doc_id", existing.ID))
			return existing, true, nil
		case !errors.Is(err, storage.ErrNotFound):
			return nil, false, err
		}
	}
	doc, err = idx.IngestFile(ctx, path, size)
	return doc, false, err
}

// IngestDirectory walks dir recursively and ingests each regular file whose extension
// is in allowedExts (all files when empty), skipping content already in the catalog.
// Returns the number of files ingested and the first error encountered.
func (idx *Indexer) IngestDirectory(ctx context.Context, dir string, allowedExts []string, size int) (n int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if !ExtensionAllowed(filepath.Ext(path), allowedExts) {
			return nil
		}
		// Resolve symlinks so only regular files are ingested
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		_, skipped, ingestErr := idx.IngestNew(ctx, path, size)
		if ingestErr != nil {
			return fmt.Errorf("%s: %w", path, ingestErr)
		}
		if !skipped {
			n++
		}
		return nil
	})
	return n, err
}

// ExtensionAllowed reports whether ext is in allowed, ignoring case and the leading dot.
// An empty list allows everything.
func ExtensionAllowed(ext string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	if extNorm == "" {
		return false
	}
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

// SyncKeywordIndex rebuilds k from the store when its document count differs
// from the store size. Chunk titles come from cat when it is non-nil.
func SyncKeywordIndex(ctx context.Context, s *store.Store, k *keyword.BleveIndex, cat storage.Catalog) (rebuilt bool, err error) {
	count, err := k.DocCount()
	if err != nil {
		return false, fmt.Errorf("keyword doc count: %w", err)
	}
	chunks := s.Chunks()
	if count == uint64(len(chunks)) {
		return false, nil
	}
	titles := make([]string, len(chunks))
	if cat != nil {
		docs, err := cat.ListDocuments(ctx, 0, 0)
		if err != nil {
			return false, fmt.Errorf("list documents: %w", err)
		}
		for _, d := range docs {
			for pos := d.FirstChunk; pos < d.FirstChunk+d.ChunkCount && pos < len(titles); pos++ {
				titles[pos] = d.Title
			}
		}
	}
	if err := k.Rebuild(ctx, chunks, titles); err != nil {
		return false, err
	}
	return true, nil
}
