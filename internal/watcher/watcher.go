// Package watcher ingests files dropped into an inbox directory.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hyperjump/qadesk/internal/indexer"
	"github.com/hyperjump/qadesk/internal/models"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Ingester stores a file unless its content was already ingested.
type Ingester interface {
	IngestNew(ctx context.Context, path string, size int) (*models.Document, bool, error)
}

// Inbox watches a directory tree and ingests new or changed files once their
// writes settle. Files whose content is already in the catalog are skipped.
type Inbox struct {
	dir        string
	extensions []string
	ingester   Ingester
	chunkSize  int
	debounce   time.Duration
	logger     *zap.Logger

	mu       sync.Mutex
	pending  map[string]*time.Timer
	fsw      *fsnotify.Watcher
	ctx      context.Context
	cancel   context.CancelFunc
	stopped  bool
	ingestMu sync.Mutex // one ingestion at a time so the content check stays valid
	wg       sync.WaitGroup
}

// Option configures an Inbox.
type Option func(*Inbox)

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) Option {
	return func(in *Inbox) { in.logger = l }
}

// WithDebounce sets how long a file must stay quiet before it is ingested.
func WithDebounce(d time.Duration) Option {
	return func(in *Inbox) {
		if d > 0 {
			in.debounce = d
		}
	}
}

// WithChunkSize sets the chunk size passed to the ingester.
func WithChunkSize(n int) Option {
	return func(in *Inbox) { in.chunkSize = n }
}

// NewInbox creates an inbox for dir. extensions filters files; empty accepts all.
func NewInbox(dir string, extensions []string, ing Ingester, opts ...Option) *Inbox {
	in := &Inbox{
		dir:        filepath.Clean(dir),
		extensions: extensions,
		ingester:   ing,
		debounce:   defaultDebounce,
		logger:     zap.NewNop(),
		pending:    make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Dir returns the watched directory.
func (in *Inbox) Dir() string { return in.dir }

// Start creates the directory if needed, watches it recursively and queues the
// files already present. It returns immediately; Stop or cancelling ctx ends it.
func (in *Inbox) Start(ctx context.Context) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.fsw != nil {
		return errors.New("inbox already started")
	}
	if err := os.MkdirAll(in.dir, 0755); err != nil {
		return err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := addTree(fsw, in.dir); err != nil {
		_ = fsw.Close()
		return err
	}
	in.fsw = fsw
	in.ctx, in.cancel = context.WithCancel(ctx)
	in.logger.Info("inbox watching", zap.String("dir", in.dir), zap.Strings("extensions", in.extensions))

	in.wg.Add(1)
	go in.run(fsw)
	in.queueTreeLocked(in.dir)
	return nil
}

// Stop stops watching, drops pending files and waits for a running ingestion.
func (in *Inbox) Stop() error {
	in.mu.Lock()
	if in.fsw == nil || in.stopped {
		in.mu.Unlock()
		return nil
	}
	in.stopped = true
	in.cancel()
	for path, t := range in.pending {
		t.Stop()
		delete(in.pending, path)
	}
	err := in.fsw.Close()
	in.mu.Unlock()
	in.wg.Wait()
	return err
}

func (in *Inbox) run(fsw *fsnotify.Watcher) {
	defer in.wg.Done()
	for {
		select {
		case <-in.ctx.Done():
			go func() { _ = in.Stop() }()
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			in.handleEvent(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			in.logger.Warn("inbox watch error", zap.Error(err))
		}
	}
}

func (in *Inbox) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
			in.mu.Lock()
			if t, ok := in.pending[ev.Name]; ok {
				t.Stop()
				delete(in.pending, ev.Name)
			}
			in.mu.Unlock()
		}
		return
	}
	info, err := os.Stat(ev.Name)
	if err != nil {
		return
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.stopped {
		return
	}
	if info.IsDir() {
		// Directory moved or created inside the inbox: watch it and queue its files.
		if err := addTree(fsw, ev.Name); err != nil {
			in.logger.Warn("inbox failed to watch directory", zap.String("path", ev.Name), zap.Error(err))
		}
		in.queueTreeLocked(ev.Name)
		return
	}
	if info.Mode().IsRegular() && indexer.ExtensionAllowed(filepath.Ext(ev.Name), in.extensions) {
		in.scheduleLocked(ev.Name)
	}
}

func (in *Inbox) queueTreeLocked(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() && indexer.ExtensionAllowed(filepath.Ext(path), in.extensions) {
			in.scheduleLocked(path)
		}
		return nil
	})
}

// scheduleLocked (re)starts the quiet timer for path.
func (in *Inbox) scheduleLocked(path string) {
	if t, ok := in.pending[path]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(in.debounce, func() {
		in.mu.Lock()
		if in.pending[path] != t || in.stopped {
			in.mu.Unlock()
			return
		}
		delete(in.pending, path)
		in.wg.Add(1)
		in.mu.Unlock()
		defer in.wg.Done()
		in.ingest(path)
	})
	in.pending[path] = t
}

func (in *Inbox) ingest(path string) {
	in.ingestMu.Lock()
	defer in.ingestMu.Unlock()
	if in.ctx.Err() != nil {
		return
	}
	doc, skipped, err := in.ingester.IngestNew(in.ctx, path, in.chunkSize)
	switch {
	case err != nil:
		in.logger.Error("inbox ingestion failed", zap.String("path", path), zap.Error(err))
	case skipped:
		in.logger.Debug("inbox file already ingested", zap.String("path", path), zap.String("doc_id", doc.ID))
	default:
		in.logger.Info("inbox file ingested", zap.String("path", path), zap.String("doc_id", doc.ID), zap.Int("chunks", doc.ChunkCount))
	}
}

func addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}
