// Package excel exports run summaries as spreadsheets for manual
// review of what the pipeline created and rejected.
package excel

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jandy1990/wwfm-platform-sub002/models"
)

const summarySheet = "Run Summary"

// ReportWriter writes expansion run summaries to an xlsx workbook, one
// sheet of run-level counters plus a per-stage rejection breakdown.
type ReportWriter struct {
	path string
}

func NewReportWriter(path string) *ReportWriter {
	return &ReportWriter{path: path}
}

// Write saves the workbook to the configured path, overwriting any
// previous report.
func (w *ReportWriter) Write(summaries []*models.RunSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), summarySheet)

	headers := []string{"Category", "Units", "Created", "Updated", "Skipped", "Rejected", "Stop Reason", "Started", "Duration"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(summarySheet, cell, h)
	}

	for row, summary := range summaries {
		values := []interface{}{
			summary.Category,
			summary.UnitsProcessed,
			summary.Created,
			summary.Updated,
			summary.Skipped,
			summary.TotalRejected(),
			summary.StopReason,
			summary.StartedAt.UTC().Format(time.RFC3339),
			summary.FinishedAt.Sub(summary.StartedAt).Round(time.Second).String(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(summarySheet, cell, v)
		}
	}

	if err := w.writeRejections(f, summaries); err != nil {
		return err
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving report to %s: %w", w.path, err)
	}
	return nil
}

// CoverageRow is one category's counters for the coverage workbook and
// the status command's JSON output.
type CoverageRow struct {
	Category        string  `json:"category"`
	Total           int     `json:"total"`
	WithConnections int     `json:"connected"`
	Pending         int     `json:"pending"`
	Coverage        float64 `json:"coverage"`
}

// WriteCoverage saves a one-sheet workbook of per-category expansion
// coverage, overwriting any previous file at the configured path.
func (w *ReportWriter) WriteCoverage(rows []CoverageRow) error {
	const sheet = "Coverage"
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"Category", "Solutions", "Connected", "Pending", "Coverage"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, r := range rows {
		values := []interface{}{
			r.Category,
			r.Total,
			r.WithConnections,
			r.Pending,
			fmt.Sprintf("%.1f%%", r.Coverage*100),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving coverage report to %s: %w", w.path, err)
	}
	return nil
}

func (w *ReportWriter) writeRejections(f *excelize.File, summaries []*models.RunSummary) error {
	const sheet = "Rejections"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	f.SetCellValue(sheet, "A1", "Category")
	f.SetCellValue(sheet, "B1", "Stage")
	f.SetCellValue(sheet, "C1", "Count")

	row := 2
	for _, summary := range summaries {
		stages := make([]string, 0, len(summary.Rejected))
		for stage := range summary.Rejected {
			stages = append(stages, stage)
		}
		sort.Strings(stages)
		for _, stage := range stages {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), summary.Category)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), stage)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), summary.Rejected[stage])
			row++
		}
	}
	return nil
}
