package ingest

import (
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/kshedden/datareader"

	apperrors "github.com/mkguldan/empirical/internal/errors"
	"github.com/mkguldan/empirical/internal/table"
)

func (l *Loader) loadDTA(path string, src *Source) (*table.Table, error) {
	src.Format = FormatDTA

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open input file", err).WithContext("path", path)
	}
	defer f.Close()

	rdr, err := datareader.NewStataReader(f)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read Stata header", err).WithContext("path", path)
	}
	names := rdr.ColumnNames()

	series, err := rdr.Read(-1)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read Stata data", err).WithContext("path", path)
	}
	if len(series) == 0 {
		return table.New(names...), nil
	}

	cols := make([][]string, len(series))
	for j, s := range series {
		cols[j] = seriesCells(s.UpcastNumeric())
	}

	nrow := series[0].Length()
	records := make([][]string, nrow)
	for i := range records {
		rec := make([]string, len(cols))
		for j := range cols {
			rec[j] = cols[j][i]
		}
		records[i] = rec
	}
	return table.FromRecords(names, records), nil
}

// seriesCells renders a column as cells. Missing values become "".
func seriesCells(s *datareader.Series) []string {
	missing := s.Missing()
	isMissing := func(i int) bool { return missing != nil && missing[i] }

	out := make([]string, s.Length())
	switch data := s.Data().(type) {
	case []float64:
		for i, v := range data {
			if !isMissing(i) {
				out[i] = table.FormatFloat(v)
			}
		}
	case []string:
		for i, v := range data {
			if !isMissing(i) {
				out[i] = v
			}
		}
	case []time.Time:
		for i, v := range data {
			if !isMissing(i) {
				out[i] = v.Format("2006-01-02")
			}
		}
	default:
		v := reflect.ValueOf(data)
		for i := range out {
			if !isMissing(i) && i < v.Len() {
				out[i] = fmt.Sprint(v.Index(i).Interface())
			}
		}
	}
	return out
}
