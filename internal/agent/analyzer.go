package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/hyperjump/qadesk/internal/models"
	"github.com/hyperjump/qadesk/internal/report"
	"github.com/hyperjump/qadesk/internal/storage"
	"github.com/hyperjump/qadesk/pkg/utils"
	"go.uber.org/zap"
)

// Analyzer defaults.
const (
	DefaultOutdatedBefore = 2022
	DefaultSnippetLength  = 200

	analysisPrefix = "doc_analysis"
)

var yearRe = regexp.MustCompile(`\b(19[0-9]{2}|20[0-9]{2})\b`)

// Analyzer flags outdated and duplicated chunks and writes them to a spreadsheet.
type Analyzer struct {
	chunks     ChunkSource
	catalog    storage.Catalog
	reportsDir string
	cutoff     int
	snippetLen int
	now        clock
	logger     *zap.Logger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithCatalog fills the document column from c.
func WithCatalog(c storage.Catalog) AnalyzerOption {
	return func(a *Analyzer) { a.catalog = c }
}

// WithOutdatedBefore flags years strictly below year.
func WithOutdatedBefore(year int) AnalyzerOption {
	return func(a *Analyzer) {
		if year > 0 {
			a.cutoff = year
		}
	}
}

// WithSnippetLength sets how many characters of each chunk go into the report.
func WithSnippetLength(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.snippetLen = n
		}
	}
}

// WithAnalyzerLogger sets a logger.
func WithAnalyzerLogger(l *zap.Logger) AnalyzerOption {
	return func(a *Analyzer) { a.logger = l }
}

// NewAnalyzer creates an analyzer over chunks that writes reports to reportsDir.
func NewAnalyzer(chunks ChunkSource, reportsDir string, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		chunks:     chunks,
		reportsDir: reportsDir,
		cutoff:     DefaultOutdatedBefore,
		snippetLen: DefaultSnippetLength,
		now:        nowLocal,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run scans every stored chunk, writes the report and returns its summary.
// Outdated rows come first in chunk order, then redundant rows in chunk order.
func (a *Analyzer) Run(ctx context.Context) (*models.AnalysisReport, error) {
	chunks := a.chunks.Chunks()
	issues := a.Scan(chunks)
	if err := a.attachTitles(ctx, issues); err != nil {
		return nil, err
	}

	filename := report.Filename(analysisPrefix, a.now())
	path := filepath.Join(a.reportsDir, filename)
	if err := report.WriteAnalysis(path, issues); err != nil {
		return nil, fmt.Errorf("write analysis report: %w", err)
	}
	a.logger.Info("analysis report written",
		zap.String("path", path),
		zap.Int("chunks", len(chunks)),
		zap.Int("issues", len(issues)))
	return &models.AnalysisReport{
		ReportPath:  path,
		Filename:    filename,
		IssuesFound: len(issues),
		Issues:      issues,
	}, nil
}

// Scan returns the issues found in chunks without document titles.
func (a *Analyzer) Scan(chunks []string) []models.Issue {
	var issues []models.Issue
	for i, text := range chunks {
		if year, ok := firstYearBefore(text, a.cutoff); ok {
			issues = append(issues, models.Issue{
				ChunkID: i,
				Issue:   models.IssueOutdated,
				Detail:  fmt.Sprintf("Found year %d", year),
				Snippet: utils.Prefix(text, a.snippetLen),
			})
		}
	}
	seen := make(map[string]int, len(chunks))
	for i, text := range chunks {
		first, dup := seen[text]
		if !dup {
			seen[text] = i
			continue
		}
		issues = append(issues, models.Issue{
			ChunkID: i,
			Issue:   models.IssueRedundant,
			Detail:  fmt.Sprintf("Duplicate of chunk_id %d", first),
			Snippet: utils.Prefix(text, a.snippetLen),
		})
	}
	return issues
}

func firstYearBefore(text string, cutoff int) (int, bool) {
	for _, m := range yearRe.FindAllString(text, -1) {
		year, err := strconv.Atoi(m)
		if err == nil && year < cutoff {
			return year, true
		}
	}
	return 0, false
}

func (a *Analyzer) attachTitles(ctx context.Context, issues []models.Issue) error {
	if a.catalog == nil || len(issues) == 0 {
		return nil
	}
	docs, err := a.catalog.ListDocuments(ctx, 0, 0)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	for i := range issues {
		for _, d := range docs {
			if d.Contains(issues[i].ChunkID) {
				issues[i].Document = d.Title
				break
			}
		}
	}
	return nil
}
