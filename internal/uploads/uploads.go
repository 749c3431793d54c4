// Package uploads stages uploaded files on disk before ingestion.
package uploads

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Dir stores uploads under random names.
type Dir struct {
	path string
}

// NewDir creates the upload directory when missing.
func NewDir(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Dir{path: path}, nil
}

// Path returns the directory path.
func (d *Dir) Path() string { return d.path }

// StoredName returns a random hex name keeping the extension of original.
func StoredName(original string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	return strings.ReplaceAll(uuid.New().String(), "-", "") + ext
}

// Save copies r into a new file named after original's extension and returns its path.
// A partially written file is removed on error. maxBytes <= 0 means no limit.
func (d *Dir) Save(original string, r io.Reader, maxBytes int64) (string, error) {
	path := filepath.Join(d.path, StoredName(original))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if err == nil && maxBytes > 0 && n > maxBytes {
		err = fmt.Errorf("file exceeds %d bytes", maxBytes)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("save upload %q: %w", original, err)
	}
	return path, nil
}
