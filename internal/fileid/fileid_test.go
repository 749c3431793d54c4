package fileid

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestContentHash(t *testing.T) {
	a := ContentHash([]byte("hello"))
	if a != ContentHash([]byte("hello")) {
		t.Error("same content should give same hash")
	}
	if a == ContentHash([]byte("hello!")) {
		t.Error("different content should give different hashes")
	}
	if !strings.HasPrefix(a, prefix) || len(a) != len(prefix)+64 {
		t.Errorf("unexpected hash format %q", a)
	}
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	if err := os.WriteFile(path, []byte("hello"), 0600); err != nil {
		t.Fatal(err)
	}
	got, err := HashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != ContentHash([]byte("hello")) {
		t.Errorf("HashFile = %q, want ContentHash of contents", got)
	}
	if _, err := HashFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
