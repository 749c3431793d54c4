// Package store keeps the ordered chunk texts, their unit embeddings and the vector
// index that searches them, and persists all three as one snapshot file.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/hyperjump/qadesk/internal/embedding"
	"github.com/hyperjump/qadesk/internal/models"
	"github.com/hyperjump/qadesk/internal/vector"
	"github.com/hyperjump/qadesk/pkg/utils"
	"go.uber.org/zap"
)

// DefaultK is the number of chunks Retrieve returns when k <= 0.
const DefaultK = 5

var (
	// ErrEmptyIndex is returned by Retrieve when nothing has been ingested yet.
	ErrEmptyIndex = errors.New("no documents have been indexed yet")
	// ErrDimensionMismatch is returned when embeddings do not match the index dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrEmbedderMismatch is returned by Open when the snapshot was built by a
	// different embedding model than the one configured.
	ErrEmbedderMismatch = errors.New("embedding model mismatch")
	// ErrLocked is returned by Open when another process holds the store.
	ErrLocked = errors.New("store is locked by another process")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store is closed")
)

// Store is the append-only chunk store. Writers are serialized; readers run
// concurrently with snapshot writes and see either the old or the new state.
type Store struct {
	path      string
	embedder  embedding.Embedder
	model     string // embedder identity recorded in snapshots
	indexType string
	defaultK  int
	logger    *zap.Logger
	lock      *flock.Flock

	writeMu sync.Mutex // serializes EmbedAndStore and Close

	mu      sync.RWMutex // guards the fields below
	dim     int
	chunks  []string
	vectors [][]float32
	index   vector.Index
	closed  bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a logger for ingestion and load events.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithIndexType selects the vector index implementation ("flat" or "faiss").
func WithIndexType(t string) Option {
	return func(s *Store) { s.indexType = t }
}

// WithDefaultK sets the result count used when Retrieve is called with k <= 0.
func WithDefaultK(k int) Option {
	return func(s *Store) {
		if k > 0 {
			s.defaultK = k
		}
	}
}

// Open locks the store at path, loads its snapshot if present and builds the
// vector index. Returns ErrLocked when another process holds the store, and
// ErrDimensionMismatch or ErrEmbedderMismatch when the snapshot was built by a
// different embedder.
func Open(path string, embedder embedding.Embedder, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("snapshot path is required")
	}
	s := &Store{
		path:      path,
		embedder:  embedder,
		model:     embedding.Identity(embedder),
		indexType: string(vector.IndexTypeFlat),
		defaultK:  DefaultK,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	s.lock = flock.New(path + ".lock")
	locked, err := s.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock store: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}
	if err := s.load(); err != nil {
		_ = s.lock.Unlock()
		return nil, err
	}
	s.logger.Info("store opened",
		zap.String("path", path),
		zap.Int("chunks", len(s.chunks)),
		zap.Int("dimensions", s.dim))
	return s, nil
}

func (s *Store) load() error {
	snap, err := readSnapshot(s.path)
	if err != nil {
		return err
	}
	dim, chunks, vectors := snap.dim, snap.chunks, snap.vectors
	if len(chunks) == 0 {
		return nil
	}
	// Snapshots from before the identity was recorded, and embedders that do
	// not report one, are checked on dimension only.
	if snap.model != "" && s.model != "" && snap.model != s.model {
		return fmt.Errorf("%w: snapshot was built with %q, configured embedder is %q",
			ErrEmbedderMismatch, snap.model, s.model)
	}
	if want := s.embedder.Dimensions(); want > 0 && want != dim {
		return fmt.Errorf("%w: snapshot has %d, embedder produces %d", ErrDimensionMismatch, dim, want)
	}
	idx, err := vector.NewIndex(s.indexType, dim)
	if err != nil {
		return fmt.Errorf("create vector index: %w", err)
	}
	if err := idx.Add(context.Background(), vectors); err != nil {
		_ = idx.Close()
		return fmt.Errorf("build vector index: %w", err)
	}
	s.dim, s.chunks, s.vectors, s.index = dim, chunks, vectors, idx
	return nil
}

// EmbedAndStore embeds texts, appends them to the store and persists the result.
// It returns the position of the first appended chunk. On error neither memory
// nor disk changes.
func (s *Store) EmbedAndStore(ctx context.Context, texts []string) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	closed, dim, chunks, vectors, idx := s.closed, s.dim, s.chunks, s.vectors, s.index
	s.mu.RUnlock()
	if closed {
		return 0, ErrClosed
	}
	first := len(chunks)
	if len(texts) == 0 {
		return first, nil
	}

	embedded, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(embedded) != len(texts) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d texts", len(embedded), len(texts))
	}
	if dim == 0 {
		dim = len(embedded[0])
	}
	staged := make([][]float32, len(embedded))
	for i, v := range embedded {
		if len(v) != dim || dim == 0 {
			return 0, fmt.Errorf("%w: chunk %d has %d, index has %d", ErrDimensionMismatch, i, len(v), dim)
		}
		staged[i] = unitCopy(v)
	}

	newIdx := idx == nil
	if newIdx {
		if idx, err = vector.NewIndex(s.indexType, dim); err != nil {
			return 0, fmt.Errorf("create vector index: %w", err)
		}
	}
	// Capacity equals length, so append always copies and published slices stay immutable.
	allChunks := append(chunks[:len(chunks):len(chunks)], texts...)
	allVectors := append(vectors[:len(vectors):len(vectors)], staged...)
	if err := writeSnapshot(s.path, snapshot{model: s.model, dim: dim, chunks: allChunks, vectors: allVectors}); err != nil {
		if newIdx {
			_ = idx.Close()
		}
		return 0, fmt.Errorf("persist store: %w", err)
	}

	s.mu.Lock()
	err = idx.Add(ctx, staged)
	if err == nil {
		s.dim, s.chunks, s.vectors, s.index = dim, allChunks, allVectors, idx
	}
	s.mu.Unlock()
	if err != nil {
		s.restoreSnapshot(dim, chunks, vectors)
		if newIdx {
			_ = idx.Close()
		}
		return 0, fmt.Errorf("index vectors: %w", err)
	}

	s.logger.Debug("chunks stored",
		zap.Int("first", first),
		zap.Int("count", len(texts)),
		zap.Int("total", len(allChunks)))
	return first, nil
}

// restoreSnapshot puts the previous state back on disk after a failed index update.
func (s *Store) restoreSnapshot(dim int, chunks []string, vectors [][]float32) {
	var err error
	if len(chunks) == 0 {
		err = os.Remove(s.path)
		if os.IsNotExist(err) {
			err = nil
		}
	} else {
		err = writeSnapshot(s.path, snapshot{model: s.model, dim: dim, chunks: chunks, vectors: vectors})
	}
	if err != nil {
		s.logger.Error("failed to restore snapshot", zap.String("path", s.path), zap.Error(err))
	}
}

// Retrieve returns the k chunks most similar to query in descending score order.
// k <= 0 selects the default; k larger than the store is clamped.
func (s *Store) Retrieve(ctx context.Context, query string, k int) ([]models.Chunk, error) {
	if k <= 0 {
		k = s.defaultK
	}
	s.mu.RLock()
	empty, closed := s.index == nil || len(s.chunks) == 0, s.closed
	s.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	if empty {
		return nil, ErrEmptyIndex
	}

	q, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	q = unitCopy(q)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	if len(q) != s.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(q), s.dim)
	}
	if k > len(s.chunks) {
		k = len(s.chunks)
	}
	hits, err := s.index.Search(ctx, q, k)
	if err != nil {
		return nil, fmt.Errorf("search vectors: %w", err)
	}
	out := make([]models.Chunk, 0, len(hits))
	for _, h := range hits {
		if h.Position < 0 || h.Position >= len(s.chunks) {
			continue
		}
		out = append(out, models.Chunk{Position: h.Position, Text: s.chunks[h.Position], Score: h.Score})
	}
	return out, nil
}

// Size returns the number of stored chunks.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// IndexSize returns the number of vectors in the vector index.
func (s *Store) IndexSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return 0
	}
	return s.index.Size()
}

// Dimensions returns the index dimension, or 0 before the first ingestion.
func (s *Store) Dimensions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dim
}

// IndexType returns the configured vector index type.
func (s *Store) IndexType() string {
	return s.indexType
}

// Path returns the snapshot path.
func (s *Store) Path() string {
	return s.path
}

// Chunk returns the text at position pos.
func (s *Store) Chunk(pos int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if pos < 0 || pos >= len(s.chunks) {
		return "", false
	}
	return s.chunks[pos], true
}

// Chunks returns all chunk texts in position order. The slice must not be modified.
func (s *Store) Chunks() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chunks
}

// Close releases the vector index and the store lock. It waits for an in-flight EmbedAndStore.
func (s *Store) Close() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	if s.index != nil {
		errs = append(errs, s.index.Close())
		s.index = nil
	}
	errs = append(errs, s.lock.Unlock())
	return errors.Join(errs...)
}

// unitCopy returns a unit-length copy of v. Zero vectors are copied unchanged.
func unitCopy(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	utils.NormalizeL2(out)
	return out
}
