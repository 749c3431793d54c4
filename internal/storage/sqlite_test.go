package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/qadesk/internal/models"
)

func newTestCatalog(t *testing.T) *SQLiteCatalog {
	t.Helper()
	c, err := NewSQLiteCatalog(filepath.Join(t.TempDir(), "db", "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func seedDocuments(t *testing.T, c *SQLiteCatalog) []*models.Document {
	t.Helper()
	docs := []*models.Document{
		{ID: "a", Title: "handbook.pdf", SourcePath: "/up/a.pdf", ContentHash: "sha256:aa", Pages: 3, FirstChunk: 0, ChunkCount: 4},
		{ID: "b", Title: "safety.txt", SourcePath: "/up/b.txt", ContentHash: "sha256:bb", Pages: 1, FirstChunk: 4, ChunkCount: 2},
		{ID: "c", Title: "empty.txt", SourcePath: "/up/c.txt", ContentHash: "sha256:cc", FirstChunk: 6, ChunkCount: 0},
	}
	for _, d := range docs {
		if err := c.CreateDocument(context.Background(), d); err != nil {
			t.Fatal(err)
		}
		if d.CreatedAt.IsZero() {
			t.Error("CreatedAt should be set")
		}
	}
	return docs
}

func TestSQLiteCatalog_CreateGet(t *testing.T) {
	c := newTestCatalog(t)
	seedDocuments(t, c)
	ctx := context.Background()

	got, err := c.GetDocument(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "handbook.pdf" || got.Pages != 3 || got.ChunkCount != 4 {
		t.Errorf("got %+v", got)
	}
	if _, err := c.GetDocument(ctx, "zzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := c.CreateDocument(ctx, &models.Document{ID: "a", Title: "dup"}); err == nil {
		t.Error("expected error for duplicate id")
	}
}

func TestSQLiteCatalog_FindByContentHash(t *testing.T) {
	c := newTestCatalog(t)
	seedDocuments(t, c)
	got, err := c.FindByContentHash(context.Background(), "sha256:bb")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "b" {
		t.Errorf("got %s, want b", got.ID)
	}
	if _, err := c.FindByContentHash(context.Background(), "sha256:none"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteCatalog_DocumentForChunk(t *testing.T) {
	c := newTestCatalog(t)
	seedDocuments(t, c)
	tests := []struct {
		pos    int
		wantID string
	}{
		{0, "a"}, {3, "a"}, {4, "b"}, {5, "b"}, {6, ""}, {-1, ""},
	}
	for _, tt := range tests {
		got, err := c.DocumentForChunk(context.Background(), tt.pos)
		if tt.wantID == "" {
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("pos %d: err = %v, want ErrNotFound", tt.pos, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("pos %d: %v", tt.pos, err)
		}
		if got.ID != tt.wantID {
			t.Errorf("pos %d: got %s, want %s", tt.pos, got.ID, tt.wantID)
		}
	}
}

func TestSQLiteCatalog_ListAndCount(t *testing.T) {
	c := newTestCatalog(t)
	seedDocuments(t, c)
	ctx := context.Background()

	all, err := c.ListDocuments(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].ID != "a" || all[2].ID != "c" {
		t.Errorf("ListDocuments(0, 0) = %v", all)
	}
	page, err := c.ListDocuments(ctx, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].ID != "b" {
		t.Errorf("ListDocuments(1, 1) = %v", page)
	}

	n, err := c.CountDocuments(ctx)
	if err != nil || n != 3 {
		t.Errorf("CountDocuments = %d, %v", n, err)
	}
	chunks, err := c.CountChunks(ctx)
	if err != nil || chunks != 6 {
		t.Errorf("CountChunks = %d, %v", chunks, err)
	}
}

func TestSQLiteCatalog_persistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	c, err := NewSQLiteCatalog(path)
	if err != nil {
		t.Fatal(err)
	}
	seedDocuments(t, c)
	_ = c.Close()

	c2, err := NewSQLiteCatalog(path)
	if err != nil {
		t.Fatal(err)
	}
	defer c2.Close()
	n, err := c2.CountDocuments(context.Background())
	if err != nil || n != 3 {
		t.Errorf("CountDocuments after reopen = %d, %v", n, err)
	}
}
