package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/qadesk/internal/models"
)

type recordingIngester struct {
	mu    sync.Mutex
	paths []string
	seen  map[string]bool
}

func (r *recordingIngester) IngestNew(_ context.Context, path string, _ int) (*models.Document, bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen == nil {
		r.seen = make(map[string]bool)
	}
	doc := &models.Document{ID: string(content), SourcePath: path}
	if r.seen[string(content)] {
		return doc, true, nil
	}
	r.seen[string(content)] = true
	r.paths = append(r.paths, filepath.Base(path))
	return doc, false, nil
}

func (r *recordingIngester) ingested() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]string(nil), r.paths...)
	sort.Strings(out)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func startInbox(t *testing.T, dir string, ing Ingester) *Inbox {
	t.Helper()
	in := NewInbox(dir, []string{".txt"}, ing, WithDebounce(50*time.Millisecond))
	if err := in.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = in.Stop() })
	return in
}

func TestInbox_ingestsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha")
	writeFile(t, filepath.Join(dir, "skip.bin"), "binary")

	ing := &recordingIngester{}
	startInbox(t, dir, ing)

	waitFor(t, func() bool { return len(ing.ingested()) == 1 })
	if got := ing.ingested(); got[0] != "a.txt" {
		t.Errorf("ingested %v, want [a.txt]", got)
	}
}

func TestInbox_ingestsNewFilesAndSubdirectories(t *testing.T) {
	dir := t.TempDir()
	ing := &recordingIngester{}
	startInbox(t, dir, ing)

	writeFile(t, filepath.Join(dir, "new.txt"), "new content")
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher time to register the new directory before writing into it.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(sub, "nested.txt"), "nested content")

	waitFor(t, func() bool { return len(ing.ingested()) == 2 })
	got := ing.ingested()
	if got[0] != "nested.txt" || got[1] != "new.txt" {
		t.Errorf("ingested %v", got)
	}
}

func TestInbox_duplicateContentIngestedOnce(t *testing.T) {
	dir := t.TempDir()
	ing := &recordingIngester{}
	startInbox(t, dir, ing)

	writeFile(t, filepath.Join(dir, "one.txt"), "same")
	writeFile(t, filepath.Join(dir, "two.txt"), "same")
	time.Sleep(400 * time.Millisecond)
	if got := ing.ingested(); len(got) != 1 {
		t.Errorf("ingested %v, want one file", got)
	}
}

func TestInbox_createsDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "inbox")
	startInbox(t, dir, &recordingIngester{})
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("inbox dir not created: %v", err)
	}
}

func TestInbox_stopIsIdempotent(t *testing.T) {
	in := NewInbox(t.TempDir(), nil, &recordingIngester{})
	if err := in.Stop(); err != nil {
		t.Fatalf("Stop before Start: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := in.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := in.Start(ctx); err == nil {
		t.Error("second Start should fail")
	}
	cancel()
	if err := in.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if err := in.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}
