package table

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mkguldan/empirical/internal/errors"
)

func sample() *Table {
	return FromRecords(
		[]string{"DealID", "PersonID", "Gender", "Size"},
		[][]string{
			{"D1", "P1", "Female", "1.5"},
			{"D1", "P2", "Male", "1.5"},
			{"D2", "P3", "Male", ""},
			{"D3", "P4", "", "nan"},
			{"D2", "P3", "Male", ""},
		},
	)
}

func TestFromRecords(t *testing.T) {
	tests := []struct {
		name       string
		header     []string
		records    [][]string
		wantHeader []string
		wantRows   [][]string
	}{
		{
			name:       "pads short and truncates long rows",
			header:     []string{"a", "b"},
			records:    [][]string{{"1"}, {"1", "2", "3"}},
			wantHeader: []string{"a", "b"},
			wantRows:   [][]string{{"1", ""}, {"1", "2"}},
		},
		{
			name:       "duplicate header names get suffixes",
			header:     []string{"x", "x", "y", "x"},
			records:    nil,
			wantHeader: []string{"x", "x.1", "y", "x.2"},
			wantRows:   [][]string{},
		},
		{
			name:       "literal header matching a generated name",
			header:     []string{"a", "a", "a.1"},
			records:    [][]string{{"1", "2", "3"}},
			wantHeader: []string{"a", "a.1", "a.1.1"},
			wantRows:   [][]string{{"1", "2", "3"}},
		},
		{
			name:       "generated name skips an earlier literal",
			header:     []string{"a", "a.1", "a"},
			records:    [][]string{{"1", "2", "3"}},
			wantHeader: []string{"a", "a.1", "a.2"},
			wantRows:   [][]string{{"1", "2", "3"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := FromRecords(tt.header, tt.records)
			assert.Equal(t, tt.wantHeader, tbl.Columns())
			assert.Equal(t, tt.wantRows, tbl.Records())
			for r, rec := range tt.wantRows {
				for i, col := range tt.wantHeader {
					assert.Equal(t, rec[i], tbl.Get(r, col), col)
				}
			}
		})
	}
}

func TestRowAccess(t *testing.T) {
	tbl := sample()

	assert.Equal(t, 5, tbl.Len())
	assert.True(t, tbl.Has("Gender"))
	assert.False(t, tbl.Has("gender"))
	assert.Equal(t, "P2", tbl.Get(1, "PersonID"))
	assert.Equal(t, "", tbl.Get(1, "Missing"))

	row := tbl.Row(0)
	v, ok := row.Float("Size")
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)

	_, ok = tbl.Row(2).Float("Size")
	assert.False(t, ok)
	_, ok = tbl.Row(3).Float("Size")
	assert.False(t, ok, "nan is missing")
	assert.True(t, tbl.Row(3).Empty("Gender"))

	tbl.Set(0, "New", "x")
	assert.Equal(t, "x", tbl.Get(0, "New"))
	assert.Equal(t, "", tbl.Get(4, "New"))
}

func TestRequire(t *testing.T) {
	tbl := sample()
	assert.NoError(t, tbl.Require("DealID", "Size"))

	err := tbl.Require("DealID", "CompanyID")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
	assert.Contains(t, err.Error(), "CompanyID")

	assert.Equal(t, "Size", tbl.FirstPresent("Deal_DealSize", "Size"))
	assert.Equal(t, "", tbl.FirstPresent("nope"))
}

func TestFilterDoesNotMutate(t *testing.T) {
	tbl := sample()
	males := tbl.Filter(func(r Row) bool { return r.Get("Gender") == "Male" })

	assert.Equal(t, 3, males.Len())
	assert.Equal(t, 5, tbl.Len())

	males.Set(0, "Gender", "changed")
	assert.Equal(t, "Male", tbl.Get(1, "Gender"))
}

func TestAddColumnAndApply(t *testing.T) {
	tbl := sample()
	tbl.AddColumn("Tag", func(r Row) string { return r.Get("DealID") + "-" + r.Get("PersonID") })
	assert.Equal(t, "D1-P2", tbl.Get(1, "Tag"))

	tbl.AddColumn("Tag", func(r Row) string { return "again" })
	assert.Equal(t, []string{"DealID", "PersonID", "Gender", "Size", "Tag"}, tbl.Columns())
	assert.Equal(t, "again", tbl.Get(0, "Tag"))

	tbl.Apply("Gender", strings.ToUpper)
	assert.Equal(t, "FEMALE", tbl.Get(0, "Gender"))
	tbl.Apply("Unknown", strings.ToUpper)
}

func TestSelectDropRename(t *testing.T) {
	tbl := sample()

	sel := tbl.Select("Size", "DealID", "Nope")
	assert.Equal(t, []string{"Size", "DealID"}, sel.Columns())
	assert.Equal(t, []string{"1.5", "D1"}, sel.Records()[0])

	dropped := tbl.Drop("Gender", "Nope")
	assert.Equal(t, []string{"DealID", "PersonID", "Size"}, dropped.Columns())

	tbl.Rename(map[string]string{"Gender": "Person_Gender"})
	assert.Equal(t, []string{"DealID", "PersonID", "Person_Gender", "Size"}, tbl.Columns())
	assert.Equal(t, "Female", tbl.Get(0, "Person_Gender"))

	tbl.Rename(map[string]string{"Size": "DealID"})
	assert.Equal(t, []string{"PersonID", "Person_Gender", "DealID"}, tbl.Columns())
	assert.Equal(t, "1.5", tbl.Get(0, "DealID"))
}

func TestCounts(t *testing.T) {
	tbl := sample()

	assert.Equal(t, 4, tbl.NonEmpty("Gender"))
	assert.Equal(t, 3, tbl.NUnique("DealID"))
	assert.Equal(t, 2, tbl.NUnique("Gender"))
	assert.Equal(t, 0, tbl.NUnique("Nope"))

	blanks := FromRecords([]string{"v"}, [][]string{{"a"}, {" a "}, {"  "}, {""}, {"b"}})
	assert.Equal(t, 2, blanks.NUnique("v"))
	assert.Equal(t, blanks.NonEmpty("v")-1, blanks.NUnique("v"))

	assert.Equal(t, []ValueCount{
		{Value: "Male", Count: 3},
		{Value: "Female", Count: 1},
	}, tbl.ValueCounts("Gender"))

	ties := FromRecords([]string{"v"}, [][]string{{"b"}, {"a"}, {"a"}, {"b"}, {"c"}})
	assert.Equal(t, []ValueCount{
		{Value: "b", Count: 2},
		{Value: "a", Count: 2},
		{Value: "c", Count: 1},
	}, ties.ValueCounts("v"))

	assert.Equal(t, []float64{1.5, 1.5}, tbl.Floats("Size"))
}

func TestDropDuplicates(t *testing.T) {
	tbl := sample()

	assert.Equal(t, 4, tbl.DropDuplicates().Len())
	byDeal := tbl.DropDuplicates("DealID")
	assert.Equal(t, []string{"P1", "P3", "P4"}, byDeal.Column("PersonID"))
}

func TestSortStableBy(t *testing.T) {
	tbl := sample()
	sorted := tbl.SortStableBy(func(a, b Row) bool { return a.Get("DealID") > b.Get("DealID") })

	assert.Equal(t, []string{"D3", "D2", "D2", "D1", "D1"}, sorted.Column("DealID"))
	assert.Equal(t, []string{"P4", "P3", "P3", "P1", "P2"}, sorted.Column("PersonID"))
	assert.Equal(t, "D1", tbl.Get(0, "DealID"))
}

func TestGroupBy(t *testing.T) {
	groups := sample().GroupBy("DealID")
	require.Len(t, groups, 3)

	assert.Equal(t, []string{"D1"}, groups[0].Keys)
	assert.Equal(t, 2, groups[0].Table.Len())
	assert.Equal(t, []string{"D2"}, groups[1].Keys)
	assert.Equal(t, 2, groups[1].Table.Len())
	assert.Equal(t, []string{"D3"}, groups[2].Keys)

	multi := sample().GroupBy("DealID", "Gender")
	assert.Len(t, multi, 4)
}

func TestLeftJoin(t *testing.T) {
	left := FromRecords([]string{"DealID", "Size"}, [][]string{
		{"D1", "1"},
		{"D2", "2"},
		{"D3", "3"},
		{"", "4"},
	})
	right := FromRecords([]string{"DealID", "Name", "School"}, [][]string{
		{"D1", "Ann", "Yale"},
		{"D2", "Bob", "MIT"},
		{"D2", "Bea", "Brown"},
		{"", "Ghost", "None"},
	})

	tests := []struct {
		name       string
		cols       []string
		wantHeader []string
		wantRows   [][]string
	}{
		{
			name:       "selected columns",
			cols:       []string{"Name"},
			wantHeader: []string{"DealID", "Size", "Name"},
			wantRows: [][]string{
				{"D1", "1", "Ann"},
				{"D2", "2", "Bob"},
				{"D2", "2", "Bea"},
				{"D3", "3", ""},
				{"", "4", ""},
			},
		},
		{
			name:       "all right columns",
			wantHeader: []string{"DealID", "Size", "Name", "School"},
			wantRows: [][]string{
				{"D1", "1", "Ann", "Yale"},
				{"D2", "2", "Bob", "MIT"},
				{"D2", "2", "Bea", "Brown"},
				{"D3", "3", "", ""},
				{"", "4", "", ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			joined, err := left.LeftJoin(right, "DealID", tt.cols...)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHeader, joined.Columns())
			assert.Equal(t, tt.wantRows, joined.Records())
		})
	}
}

func TestLeftJoinErrors(t *testing.T) {
	left := FromRecords([]string{"DealID", "Name"}, [][]string{{"D1", "x"}})
	right := FromRecords([]string{"DealID", "Name"}, [][]string{{"D1", "y"}})

	_, err := left.LeftJoin(right, "DealID", "Name")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))

	_, err = left.LeftJoin(right, "CompanyID")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))

	_, err = left.LeftJoinOn(right, "DealID", "DealID", "Missing")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
}

func TestLookup(t *testing.T) {
	tbl := sample()
	assert.Equal(t, map[string]string{"D1": "P1", "D2": "P3", "D3": "P4"}, tbl.Lookup("DealID", "PersonID"))
}

func TestParseAndFormat(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{input: " 42 ", want: 42, ok: true},
		{input: "-1.25", want: -1.25, ok: true},
		{input: "1e3", want: 1000, ok: true},
		{input: "", ok: false},
		{input: "NaN", ok: false},
		{input: "inf", ok: false},
		{input: "$5", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseFloat(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}

	assert.Equal(t, "0.1", FormatFloat(0.1))
	assert.Equal(t, "3", FormatFloat(3))
	assert.Equal(t, "1", Bool(true))
	assert.Equal(t, "0", Bool(false))
	assert.Equal(t, "12", FormatInt(12))
}
