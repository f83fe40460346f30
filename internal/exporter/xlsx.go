package exporter

import (
	"log/slog"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/mkguldan/empirical/internal/errors"
	"github.com/mkguldan/empirical/internal/table"
)

// DefaultSheet is used when no sheet name is given.
const DefaultSheet = "Data"

// XLSXWriter writes tables as Excel workbooks.
type XLSXWriter struct {
	logger *slog.Logger
}

// NewXLSXWriter creates an Excel writer.
func NewXLSXWriter(logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{logger: logger}
}

// Write streams t into a single-sheet workbook. Cells that parse as numbers
// are stored as numbers, everything else as text.
func (w *XLSXWriter) Write(path string, t *table.Table, sheet string) error {
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return apperrors.NewStorageError("failed to name sheet", err).WithContext("sheet", sheet)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return apperrors.NewStorageError("failed to create stream writer", err).WithContext("sheet", sheet)
	}

	header := t.Columns()
	row := make([]interface{}, len(header))
	for j, h := range header {
		row[j] = h
	}
	if err := sw.SetRow("A1", row); err != nil {
		return apperrors.NewStorageError("failed to write header", err).WithContext("path", path)
	}

	for i := 0; i < t.Len(); i++ {
		row := make([]interface{}, len(header))
		for j, h := range header {
			cell := t.Get(i, h)
			if v, ok := table.ParseFloat(cell); ok {
				row[j] = v
			} else {
				row[j] = cell
			}
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperrors.NewStorageError("failed to address row", err).WithContext("row", i+2)
		}
		if err := sw.SetRow(axis, row); err != nil {
			return apperrors.NewStorageError("failed to write row", err).WithContext("row", i+2)
		}
	}

	if err := sw.Flush(); err != nil {
		return apperrors.NewStorageError("failed to flush workbook", err).WithContext("path", path)
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return apperrors.NewStorageError("failed to save workbook", err).WithContext("path", path)
	}

	w.logger.Debug("Wrote workbook",
		slog.String("path", path),
		slog.String("sheet", sheet),
		slog.Int("rows", t.Len()))
	return nil
}
