package exporter

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kshedden/datareader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "github.com/mkguldan/empirical/internal/errors"
	"github.com/mkguldan/empirical/internal/report"
	"github.com/mkguldan/empirical/internal/table"
)

func sampleTable() *table.Table {
	return table.FromRecords(
		[]string{"CompanyID", "Deal Size", "Region"},
		[][]string{
			{"C1", "1.5", "West"},
			{"C2", "", "South"},
			{"C3", "20", ""},
		},
	)
}

func TestCSVWriter_Write(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		bom     bool
		wantBOM bool
	}{
		{name: "with BOM", bom: true, wantBOM: true},
		{name: "without BOM", bom: false, wantBOM: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "nested", strings.ReplaceAll(tt.name, " ", "_")+".csv")
			require.NoError(t, NewCSVWriter(nil).Write(path, sampleTable(), tt.bom))

			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBOM, bytes.HasPrefix(content, utf8BOM))

			text := strings.TrimPrefix(string(content), string(utf8BOM))
			lines := strings.Split(strings.TrimSpace(text), "\n")
			require.Len(t, lines, 4)
			assert.Equal(t, "CompanyID,Deal Size,Region", lines[0])
			assert.Equal(t, "C2,,South", lines[2])
		})
	}
}

func TestCSVWriter_StreamWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.csv")
	sw, err := NewCSVWriter(nil).CreateStreamWriter(path, []string{"File", "Rows"}, false)
	require.NoError(t, err)
	require.NoError(t, sw.WriteRecord([]string{"a.csv", "10"}))
	require.NoError(t, sw.WriteRecord([]string{"b, c.csv", "2"}))
	require.NoError(t, sw.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "File,Rows\na.csv,10\n\"b, c.csv\",2\n", string(content))
}

func TestStataNames(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   []string
	}{
		{
			name:   "valid names kept",
			header: []string{"CompanyID", "log_DealSize"},
			want:   []string{"CompanyID", "log_DealSize"},
		},
		{
			name:   "spaces and punctuation",
			header: []string{"University US Rank", "Deal-Size ($)"},
			want:   []string{"University_US_Rank", "Deal_Size____"},
		},
		{
			name:   "leading digit and reserved words",
			header: []string{"2022_Employees", "if", "str12", ""},
			want:   []string{"_2022_Employees", "_if", "_str12", "var"},
		},
		{
			name:   "collisions get suffixes",
			header: []string{"a b", "a_b", "a-b"},
			want:   []string{"a_b", "a_b_2", "a_b_3"},
		},
		{
			name:   "truncated to 32 bytes",
			header: []string{strings.Repeat("x", 40), strings.Repeat("x", 40)},
			want:   []string{strings.Repeat("x", 32), strings.Repeat("x", 30) + "_2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StataNames(tt.header))
		})
	}
}

func TestTruncateBytes(t *testing.T) {
	assert.Equal(t, "abc", truncateBytes("abc", 5))
	assert.Equal(t, "ab", truncateBytes("abc", 2))
	// "é" is two bytes; cutting inside it drops the whole rune
	assert.Equal(t, "a", truncateBytes("aé", 2))
	assert.Equal(t, "aé", truncateBytes("aéb", 3))
}

func readDTA(t *testing.T, path string) ([]string, []*datareader.Series) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rdr, err := datareader.NewStataReader(f)
	require.NoError(t, err)
	series, err := rdr.Read(-1)
	require.NoError(t, err)
	return rdr.ColumnNames(), series
}

func TestDTAWriter_RoundTrip(t *testing.T) {
	long := strings.Repeat("n", 3000)
	tbl := table.FromRecords(
		[]string{"CompanyID", "Deal Size", "Notes"},
		[][]string{
			{"C1", "1.5", long},
			{"Company Two", "", ""},
			{"C3", "-20", "short"},
		},
	)

	path := filepath.Join(t.TempDir(), "out", "panel.dta")
	w := NewDTAWriter(nil)
	w.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC) }
	require.NoError(t, w.Write(path, tbl, "Deal-level panel"))

	names, series := readDTA(t, path)
	assert.Equal(t, []string{"CompanyID", "Deal_Size", "Notes"}, names)
	require.Len(t, series, 3)

	ids, ok := series[0].Data().([]string)
	require.True(t, ok)
	assert.Equal(t, []string{"C1", "Company Two", "C3"}, ids)

	sizes, ok := series[1].Data().([]float64)
	require.True(t, ok)
	missing := series[1].Missing()
	assert.Equal(t, 1.5, sizes[0])
	assert.True(t, missing[1])
	assert.Equal(t, -20.0, sizes[2])
	assert.False(t, missing[0])

	notes, ok := series[2].Data().([]string)
	require.True(t, ok)
	assert.Equal(t, []string{long, "", "short"}, notes)
}

func TestDTAWriter_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.dta")
	require.NoError(t, NewDTAWriter(nil).Write(path, table.New("a", "b"), ""))

	names, series := readDTA(t, path)
	assert.Equal(t, []string{"a", "b"}, names)
	assert.Nil(t, series)
}

func TestXLSXWriter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, NewXLSXWriter(nil).Write(path, sampleTable(), ""))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DefaultSheet}, f.GetSheetList())
	rows, err := f.GetRows(DefaultSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"CompanyID", "Deal Size", "Region"}, rows[0])
	assert.Equal(t, "C1", rows[1][0])
	assert.Equal(t, "1.5", rows[1][1])

	cellType, err := f.GetCellType(DefaultSheet, "B2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, cellType)
	assert.NotEqual(t, excelize.CellTypeInlineString, cellType)
}

func TestMarkdownWriter_Write(t *testing.T) {
	s := report.NewSummary("Data Preparation Log")
	s.AddMetric("Deals", "12")

	path := filepath.Join(t.TempDir(), "log.md")
	require.NoError(t, NewMarkdownWriter(nil).Write(path, s))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "## Data Preparation Log")
	assert.Contains(t, string(content), "Deals")
}

func TestExporter_WriteAll(t *testing.T) {
	base := filepath.Join(t.TempDir(), "deal_level_analysis")
	exp := New(Options{BOM: true, DatasetLabel: "deals"}, nil)

	paths, err := exp.WriteAll(context.Background(), base, sampleTable(), []string{FormatCSV, FormatDTA, FormatXLSX})
	require.NoError(t, err)
	assert.Equal(t, []string{base + ".csv", base + ".dta", base + ".xlsx"}, paths)
	for _, p := range paths {
		assert.FileExists(t, p)
	}

	summary := report.NewSummary("Deals")
	summary.AddMetric("Rows", "3")
	sp, err := exp.WriteSummary(base, summary)
	require.NoError(t, err)
	assert.Equal(t, base+"_summary.csv", sp)
	content, err := os.ReadFile(sp)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Summary,Rows,3")
}

func TestExporter_WriteAllRejectsUnknownFormat(t *testing.T) {
	base := filepath.Join(t.TempDir(), "x")
	_, err := New(Options{}, nil).WriteAll(context.Background(), base, sampleTable(), []string{"csv", "parquet"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}
