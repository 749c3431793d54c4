// Package extract provides text extraction from document formats.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SupportedExtensions lists the extensions with a dedicated extractor.
var SupportedExtensions = []string{".pdf", ".txt", ".md", ".rst", ".docx", ".xlsx", ".odt", ".rtf"}

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text page by page, in document order.
// Workbooks return one page per sheet; other formats without pages return a single page. Unknown extensions are read as plain text.
func (e *Extractor) Extract(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, strings.ToLower(filepath.Ext(path)))
}

// ExtractBytes extracts pages from content based on ext, which includes the leading dot.
func (e *Extractor) ExtractBytes(content []byte, ext string) ([]string, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(ext) {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		text, err = extractDOCX(content)
	case ".xlsx":
		return extractSheets(content)
	case ".odt", ".rtf":
		text, err = extractWithCat(content)
	default:
		text, err = extractPlain(content)
	}
	if err != nil {
		return nil, err
	}
	return []string{text}, nil
}

// Supported reports whether ext (with leading dot) has a dedicated extractor.
func Supported(ext string) bool {
	ext = strings.ToLower(ext)
	for _, s := range SupportedExtensions {
		if s == ext {
			return true
		}
	}
	return false
}
