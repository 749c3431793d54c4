// Package report writes analysis and onboarding spreadsheets.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperjump/qadesk/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	// ChecklistSheet is the sheet holding the onboarding checklist.
	ChecklistSheet = "Week1 Checklist"
	// ChecklistHeader is the checklist column header.
	ChecklistHeader = "Week 1 Checklist"
	// AnalysisSheet is the sheet holding analyzer rows.
	AnalysisSheet = "Sheet1"

	timestampLayout = "20060102150405"
)

// AnalysisHeader lists the analyzer report columns.
var AnalysisHeader = []string{"chunk_id", "document", "issue", "detail", "snippet"}

// Filename returns "<prefix>_<YYYYmmddHHMMSS>.xlsx" for t.
func Filename(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", prefix, t.Format(timestampLayout))
}

// WriteAnalysis writes issues to path, one row per issue below a header row.
func WriteAnalysis(path string, issues []models.Issue) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeRow(f, AnalysisSheet, 1, toAny(AnalysisHeader)); err != nil {
		return err
	}
	for i, is := range issues {
		row := []any{is.ChunkID, is.Document, is.Issue, is.Detail, is.Snippet}
		if err := writeRow(f, AnalysisSheet, i+2, row); err != nil {
			return err
		}
	}
	return save(f, path)
}

// WriteChecklist writes items to path in a single-column sheet.
func WriteChecklist(path string, items []string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ChecklistSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRow(f, ChecklistSheet, 1, []any{ChecklistHeader}); err != nil {
		return err
	}
	for i, item := range items {
		if err := writeRow(f, ChecklistSheet, i+2, []any{item}); err != nil {
			return err
		}
	}
	return save(f, path)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

// save writes f next to path and renames it into place so readers never see a partial file.
func save(f *excelize.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.xlsx")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := f.Write(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename report: %w", err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
