package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "github.com/mkguldan/empirical/internal/errors"
)

// Table is an ordered set of named string columns. The empty string is the
// missing value.
type Table struct {
	header []string
	index  map[string]int
	rows   [][]string
}

// New creates an empty table with the given columns.
func New(header ...string) *Table {
	return FromRecords(header, nil)
}

// FromRecords builds a table from a header and raw records. Short records are
// padded with empty cells and long ones truncated. Repeated header names get
// ".1", ".2" suffixes so every column stays addressable.
func FromRecords(header []string, records [][]string) *Table {
	t := &Table{index: make(map[string]int, len(header))}
	seen := make(map[string]int, len(header))
	for _, name := range header {
		unique := name
		if _, taken := t.index[unique]; taken {
			n := seen[name]
			for taken {
				n++
				unique = fmt.Sprintf("%s.%d", name, n)
				_, taken = t.index[unique]
			}
			seen[name] = n
		}
		t.index[unique] = len(t.header)
		t.header = append(t.header, unique)
	}

	t.rows = make([][]string, 0, len(records))
	for _, rec := range records {
		t.Append(rec...)
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Columns returns a copy of the header.
func (t *Table) Columns() []string {
	return append([]string(nil), t.header...)
}

// Has reports whether the column exists.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Require returns a schema error naming the first absent column.
func (t *Table) Require(cols ...string) error {
	for _, c := range cols {
		if !t.Has(c) {
			return apperrors.NewMissingColumnError(c, t.header)
		}
	}
	return nil
}

// FirstPresent returns the first of cols present in the table, or "".
func (t *Table) FirstPresent(cols ...string) string {
	for _, c := range cols {
		if t.Has(c) {
			return c
		}
	}
	return ""
}

// Row returns a read view of row i.
func (t *Table) Row(i int) Row {
	return Row{index: t.index, cells: t.rows[i], Index: i}
}

// Get returns the cell at row i, column col. Unknown columns read as "".
func (t *Table) Get(i int, col string) string {
	j, ok := t.index[col]
	if !ok {
		return ""
	}
	return t.rows[i][j]
}

// Set writes the cell at row i, adding the column when it does not exist.
func (t *Table) Set(i int, col, value string) {
	j, ok := t.index[col]
	if !ok {
		j = t.addEmptyColumn(col)
	}
	t.rows[i][j] = value
}

// Append adds a row, padding or truncating it to the header width.
func (t *Table) Append(cells ...string) {
	row := make([]string, len(t.header))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// AppendMap adds a row from column/value pairs. Unknown columns are ignored.
func (t *Table) AppendMap(values map[string]string) {
	row := make([]string, len(t.header))
	for col, v := range values {
		if j, ok := t.index[col]; ok {
			row[j] = v
		}
	}
	t.rows = append(t.rows, row)
}

// Column returns a copy of one column's values.
func (t *Table) Column(col string) []string {
	j, ok := t.index[col]
	if !ok {
		return nil
	}
	out := make([]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[j]
	}
	return out
}

// Floats returns the parseable values of a column, skipping missing cells.
func (t *Table) Floats(col string) []float64 {
	j, ok := t.index[col]
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(t.rows))
	for _, r := range t.rows {
		if v, ok := ParseFloat(r[j]); ok {
			out = append(out, v)
		}
	}
	return out
}

// Records returns a deep copy of the rows.
func (t *Table) Records() [][]string {
	out := make([][]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	return FromRecords(t.header, t.rows)
}

// Head returns a copy of the first n rows.
func (t *Table) Head(n int) *Table {
	if n > len(t.rows) {
		n = len(t.rows)
	}
	return FromRecords(t.header, t.rows[:n])
}

func (t *Table) addEmptyColumn(col string) int {
	j := len(t.header)
	t.header = append(t.header, col)
	t.index[col] = j
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], "")
	}
	return j
}

// withRows creates a table sharing the header shape but holding the given
// rows. Rows are copied.
func (t *Table) withRows(rows [][]string) *Table {
	out := &Table{
		header: append([]string(nil), t.header...),
		index:  make(map[string]int, len(t.index)),
		rows:   make([][]string, len(rows)),
	}
	for k, v := range t.index {
		out.index[k] = v
	}
	for i, r := range rows {
		out.rows[i] = append([]string(nil), r...)
	}
	return out
}

// Row is a read-only view of one table row.
type Row struct {
	index map[string]int
	cells []string
	// Index is the row position in the table it was read from.
	Index int
}

// Get returns the cell for col, or "" when the column does not exist.
func (r Row) Get(col string) string {
	if j, ok := r.index[col]; ok {
		return r.cells[j]
	}
	return ""
}

// Has reports whether the row's table has the column.
func (r Row) Has(col string) bool {
	_, ok := r.index[col]
	return ok
}

// Empty reports whether the cell is missing.
func (r Row) Empty(col string) bool {
	return strings.TrimSpace(r.Get(col)) == ""
}

// Float parses the cell as a number.
func (r Row) Float(col string) (float64, bool) {
	return ParseFloat(r.Get(col))
}

// ParseFloat parses a numeric cell. Empty, NaN and infinite values are
// reported as missing.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FormatFloat renders a number in the shortest form that round-trips.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatInt renders an integer cell.
func FormatInt(v int) string {
	return strconv.Itoa(v)
}

// Bool renders a 0/1 dummy.
func Bool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
