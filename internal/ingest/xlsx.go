package ingest

import (
	"context"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/mkguldan/empirical/internal/errors"
	"github.com/mkguldan/empirical/internal/table"
)

func (l *Loader) loadXLSX(ctx context.Context, path string, src *Source) (*table.Table, error) {
	src.Format = FormatXLSX

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	sheet := l.opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewParsingError("workbook has no sheets", nil).WithContext("path", path)
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, apperrors.NewNotFoundError("sheet "+sheet).WithContext("path", path)
	}
	src.Sheet = sheet

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read sheet", err).WithContext("sheet", sheet)
	}
	defer rows.Close()

	var header []string
	var records [][]string
	for n := 0; rows.Next(); n++ {
		if n%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		cols, err := rows.Columns()
		if err != nil {
			return nil, apperrors.NewParsingError("failed to read row", err).
				WithContext("sheet", sheet).
				WithContext("row", n+1)
		}
		if header == nil {
			if isBlank(cols) {
				continue
			}
			header = cleanHeader(cols)
			continue
		}
		if isBlank(cols) {
			continue
		}
		records = append(records, cols)
	}
	if err := rows.Error(); err != nil {
		return nil, apperrors.NewParsingError("failed to read sheet", err).WithContext("sheet", sheet)
	}
	if header == nil {
		return nil, apperrors.NewParsingError("sheet has no header", nil).WithContext("sheet", sheet)
	}
	return table.FromRecords(header, records), nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
