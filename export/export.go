// Package export renders reconstruction and reconciliation results as
// XLSX workbooks.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hayashi-antas/plan2table/reconcile"
)

// Writer produces XLSX workbooks for reconciled results and per-path
// schedules.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a Writer. A nil logger falls back to slog.Default().
func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

// ReconciledWorkbook builds a single-sheet workbook with the fixed
// 21-column header followed by one row per reconciled record. All
// judgment marks are written as plain text.
func (w *Writer) ReconciledWorkbook(rows []reconcile.ReconciledRecord) (*excelize.File, error) {
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = r.Columns()
	}

	f, err := buildSheet("Reconciled", reconcile.ColumnNames(), cells)
	if err != nil {
		return nil, err
	}

	// Widen the free-text columns; the judgment marks stay narrow.
	_ = f.SetColWidth("Reconciled", "F", "F", 40) // reason
	_ = f.SetColWidth("Reconciled", "G", "I", 22) // id, names
	_ = f.SetColWidth("Reconciled", "U", "U", 60) // audit trace

	return f, nil
}

// WriteReconciled writes the reconciled workbook to path.
func (w *Writer) WriteReconciled(path string, rows []reconcile.ReconciledRecord) error {
	start := time.Now()

	f, err := w.ReconciledWorkbook(rows)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}

	w.logger.Info("export.reconciled.ok",
		"path", path,
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// ScheduleWorkbook builds a single-sheet workbook from column headers
// and data rows, as reconstructed from one document path.
func (w *Writer) ScheduleWorkbook(headers []string, rows [][]string) (*excelize.File, error) {
	return buildSheet("Schedule", headers, rows)
}

// WriteSchedule writes a reconstructed schedule workbook to path.
func (w *Writer) WriteSchedule(path string, headers []string, rows [][]string) error {
	start := time.Now()

	f, err := w.ScheduleWorkbook(headers, rows)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}

	w.logger.Info("export.schedule.ok",
		"path", path,
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func buildSheet(sheet string, headers []string, rows [][]string) (*excelize.File, error) {
	f := excelize.NewFile()
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}
