// Package cli provides output formatting and the HTTP client used by the qadesk CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/qadesk/internal/models"
	"github.com/hyperjump/qadesk/internal/quiz"
	"github.com/hyperjump/qadesk/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const rule = "─────────────────────────────────────────────────────────"

// ParseFormat returns the OutputFormat named s.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputJSON:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteChunks writes retrieved chunks in descending score order.
func WriteChunks(w io.Writer, query string, chunks []models.Chunk, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, models.RetrieveResponse{Query: query, Chunks: chunks})
	}
	fmt.Fprintf(w, "\n%d chunk(s) for %q\n\n", len(chunks), query)
	for i, c := range chunks {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "Rank: %d | Chunk: %d | Score: %.4f\n\n", i+1, c.Position, c.Score)
		fmt.Fprintln(w, utils.Truncate(c.Text, 500))
		fmt.Fprintln(w)
	}
	return nil
}

// WriteAnswer writes a generated answer.
func WriteAnswer(w io.Writer, answer string, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]string{"answer": answer})
	}
	_, err := fmt.Fprintln(w, answer)
	return err
}

// WriteAnalysis writes an analyzer summary followed by its issues.
func WriteAnalysis(w io.Writer, rep *models.AnalysisReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, rep)
	}
	fmt.Fprintf(w, "Issues found: %d\n", rep.IssuesFound)
	fmt.Fprintf(w, "Report:       %s\n", rep.ReportPath)
	for _, is := range rep.Issues {
		doc := is.Document
		if doc == "" {
			doc = "-"
		}
		fmt.Fprintf(w, "  chunk %-5d %-9s %-28s %s\n", is.ChunkID, is.Issue, is.Detail, doc)
	}
	return nil
}

// WriteOnboarding writes the checklist and the quiz in its question/answer layout.
func WriteOnboarding(w io.Writer, res *models.OnboardingResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	fmt.Fprintf(w, "Checklist (%s)\n", res.Filename)
	for _, item := range res.Checklist {
		fmt.Fprintf(w, "  - %s\n", item)
	}
	fmt.Fprintf(w, "\nQuiz (%d questions)\n\n", len(res.Quiz))
	fmt.Fprint(w, quiz.Format(res.Quiz))
	return nil
}

// WriteStatus writes store and catalog status.
func WriteStatus(w io.Writer, st *models.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "chunks:             %d   # stored text chunks\n", st.Chunks)
	fmt.Fprintf(w, "vector_index_size:  %d   # vectors in the similarity index\n", st.VectorIndexSize)
	fmt.Fprintf(w, "vector_index_type:  %s\n", st.VectorIndexType)
	fmt.Fprintf(w, "dimensions:         %d\n", st.Dimensions)
	fmt.Fprintf(w, "documents:          %d   # ingested files\n", st.Documents)
	fmt.Fprintf(w, "keyword_docs:       %d   # chunks in the keyword index\n", st.KeywordDocs)
	fmt.Fprintf(w, "disk_usage_bytes:   %d\n", st.DiskUsageBytes)
	if len(st.Config) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		for _, key := range sortedKeys(st.Config) {
			fmt.Fprintf(w, "%-20s%v\n", key+":", st.Config[key])
		}
	}
	return nil
}

// WriteDocuments writes catalog entries, one per line in text mode.
func WriteDocuments(w io.Writer, docs []*models.Document, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]any{"documents": docs})
	}
	for _, d := range docs {
		fmt.Fprintf(w, "%s  %-40s chunks %d-%d  pages %d\n",
			d.ID, utils.Truncate(d.Title, 37), d.FirstChunk, d.FirstChunk+d.ChunkCount-1, d.Pages)
	}
	return nil
}

// WriteSearchHits writes keyword search hits.
func WriteSearchHits(w io.Writer, query string, hits []models.SearchHit, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]any{"query": query, "hits": hits})
	}
	fmt.Fprintf(w, "\n%d keyword match(es) for %q\n\n", len(hits), query)
	for _, h := range hits {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "Chunk: %d | Score: %.4f", h.Position, h.Score)
		if h.Document != "" {
			fmt.Fprintf(w, " | %s", h.Document)
		}
		fmt.Fprintln(w)
		text := h.Text
		if len(h.Fragments) > 0 {
			text = strings.Join(h.Fragments, " … ")
		}
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(text, 300))
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
