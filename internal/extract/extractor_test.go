package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func singlePage(t *testing.T, pages []string, err error) string {
	t.Helper()
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	return pages[0]
}

func TestExtractBytes_plain(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		ext     string
		want    string
	}{
		{"text", []byte("Hello world\nLine 2"), ".txt", "Hello world\nLine 2"},
		{"utf8", []byte("caf\xc3\xa9"), ".md", "café"},
		{"invalid utf8", []byte("hello\x80world"), ".rst", "hello\uFFFDworld"},
		{"bom", []byte("\xEF\xBB\xBFbody"), ".txt", "body"},
		{"unknown extension", []byte("some content"), ".xyz", "some content"},
	}
	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages, err := e.ExtractBytes(tt.content, tt.ext)
			if got := singlePage(t, pages, err); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func excelBytes(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Title")
	f.SetCellValue("Sheet1", "A2", "Value 1")
	f.SetCellValue("Sheet1", "B2", "Value 2")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	return buf.Bytes()
}

func TestExtractBytes_excel(t *testing.T) {
	pages, err := NewExtractor().ExtractBytes(excelBytes(t), ".xlsx")
	got := singlePage(t, pages, err)
	if want := "Title.\nValue 1, Value 2."; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractBytes_excelSheetsArePages(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Week one")
	if _, err := f.NewSheet("Empty"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.NewSheet("Rooms"); err != nil {
		t.Fatal(err)
	}
	f.SetCellValue("Rooms", "A1", "Auditorium")
	f.SetCellValue("Rooms", "C1", "300 seats.")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}

	pages, err := NewExtractor().ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Week one.", "", "Auditorium, 300 seats."}
	if len(pages) != len(want) {
		t.Fatalf("got %d pages %q, want %d", len(pages), pages, len(want))
	}
	for i := range want {
		if pages[i] != want[i] {
			t.Errorf("page %d = %q, want %q", i, pages[i], want[i])
		}
	}
}

func TestExtract_files(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.TXT")
	if err := os.WriteFile(txt, []byte("plain notes"), 0600); err != nil {
		t.Fatal(err)
	}
	xlsx := filepath.Join(dir, "sheet.xlsx")
	if err := os.WriteFile(xlsx, excelBytes(t), 0600); err != nil {
		t.Fatal(err)
	}
	e := NewExtractor()
	pages, err := e.Extract(txt)
	if got := singlePage(t, pages, err); got != "plain notes" {
		t.Errorf("txt: got %q", got)
	}
	pages, err = e.Extract(xlsx)
	if got := singlePage(t, pages, err); got == "" {
		t.Error("xlsx: expected text")
	}
}

func TestExtract_nonexistent(t *testing.T) {
	if _, err := NewExtractor().Extract(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestExtractBytes_invalidPDF(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("not a pdf"), ".pdf"); err == nil {
		t.Error("expected error for invalid PDF")
	}
}

func TestExtract_pdfPagesInOrder(t *testing.T) {
	pages, err := NewExtractor().Extract(filepath.Join("testdata", "three_pages.pdf"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := []string{"\nHello first.", "", "\nThird page."}
	if len(pages) != len(want) {
		t.Fatalf("got %d pages %q, want %d", len(pages), pages, len(want))
	}
	for i := range want {
		if pages[i] != want[i] {
			t.Errorf("page %d = %q, want %q", i+1, pages[i], want[i])
		}
	}
}

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func docxBytes(files map[string]string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range files {
		fw, _ := w.Create(name)
		_, _ = fw.Write([]byte(body))
	}
	_ = w.Close()
	return buf.Bytes()
}

func documentXML(paragraphs ...string) string {
	body := ""
	for _, p := range paragraphs {
		body += `<w:p w:rsidR="00AB"><w:r><w:t xml:space="preserve">` + p + `</w:t></w:r></w:p>`
	}
	return `<w:document ` + wordNS + `><w:body>` + body + `</w:body></w:document>`
}

func contentTypesXML(attrs string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override ` + attrs + `/>
</Types>`
}

func TestExtractBytes_docx(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			"default document path",
			map[string]string{"word/document.xml": documentXML("Searchable docx content")},
			"Searchable docx content",
		},
		{
			"paragraphs become lines",
			map[string]string{"word/document.xml": documentXML("First.", "Second.")},
			"First.\nSecond.",
		},
		{
			"content types override",
			map[string]string{
				"[Content_Types].xml": contentTypesXML(`PartName="/word/document2.xml" ContentType="` + docxMainContentType + `"`),
				"word/document2.xml":  documentXML("Content from document2"),
			},
			"Content from document2",
		},
		{
			"content type before part name",
			map[string]string{
				"[Content_Types].xml": contentTypesXML(`ContentType="` + docxMainContentType + `" PartName="/word/document3.xml"`),
				"word/document3.xml":  documentXML("Reversed order test"),
			},
			"Reversed order test",
		},
	}
	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages, err := e.ExtractBytes(docxBytes(tt.files), ".docx")
			if got := singlePage(t, pages, err); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractBytes_docxErrors(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("not a zip"), ".docx"); err == nil {
		t.Error("expected error for non-zip docx")
	}
	if _, err := e.ExtractBytes(docxBytes(map[string]string{"other.xml": "<x/>"}), ".docx"); err == nil {
		t.Error("expected error when document part is missing")
	}
}

func TestSupported(t *testing.T) {
	for ext, want := range map[string]bool{".pdf": true, ".PDF": true, ".odt": true, ".pptx": false, "": false} {
		if got := Supported(ext); got != want {
			t.Errorf("Supported(%q) = %v, want %v", ext, got, want)
		}
	}
}
