package table

import (
	"sort"
	"strings"
)

// Filter returns a new table holding the rows for which keep returns true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	rows := make([][]string, 0, len(t.rows))
	for i, r := range t.rows {
		if keep(Row{index: t.index, cells: r, Index: i}) {
			rows = append(rows, r)
		}
	}
	return t.withRows(rows)
}

// AddColumn computes a column from each row, replacing it when it exists.
// The table is modified in place and returned.
func (t *Table) AddColumn(name string, fn func(Row) string) *Table {
	values := make([]string, len(t.rows))
	for i, r := range t.rows {
		values[i] = fn(Row{index: t.index, cells: r, Index: i})
	}
	j, ok := t.index[name]
	if !ok {
		j = t.addEmptyColumn(name)
	}
	for i := range t.rows {
		t.rows[i][j] = values[i]
	}
	return t
}

// Apply rewrites every cell of an existing column in place.
func (t *Table) Apply(col string, fn func(string) string) *Table {
	j, ok := t.index[col]
	if !ok {
		return t
	}
	for i := range t.rows {
		t.rows[i][j] = fn(t.rows[i][j])
	}
	return t
}

// Drop returns a copy without the named columns. Unknown names are ignored.
func (t *Table) Drop(cols ...string) *Table {
	drop := make(map[string]bool, len(cols))
	for _, c := range cols {
		drop[c] = true
	}
	keep := make([]string, 0, len(t.header))
	for _, c := range t.header {
		if !drop[c] {
			keep = append(keep, c)
		}
	}
	return t.Select(keep...)
}

// Select returns a copy with the named columns in the given order. Unknown
// names are ignored.
func (t *Table) Select(cols ...string) *Table {
	idx := make([]int, 0, len(cols))
	header := make([]string, 0, len(cols))
	for _, c := range cols {
		if j, ok := t.index[c]; ok {
			idx = append(idx, j)
			header = append(header, c)
		}
	}
	records := make([][]string, len(t.rows))
	for i, r := range t.rows {
		rec := make([]string, len(idx))
		for k, j := range idx {
			rec[k] = r[j]
		}
		records[i] = rec
	}
	return FromRecords(header, records)
}

// Rename renames columns in place. A rename onto an existing column replaces
// that column. Chained renames (a to b, b to c) are not supported.
func (t *Table) Rename(mapping map[string]string) *Table {
	for from, to := range mapping {
		if from == to || !t.Has(from) {
			continue
		}
		if t.Has(to) {
			*t = *t.Drop(to)
		}
		j := t.index[from]
		delete(t.index, from)
		t.header[j] = to
		t.index[to] = j
	}
	return t
}

// NonEmpty counts rows with a non-blank cell in col.
func (t *Table) NonEmpty(col string) int {
	j, ok := t.index[col]
	if !ok {
		return 0
	}
	n := 0
	for _, r := range t.rows {
		if strings.TrimSpace(r[j]) != "" {
			n++
		}
	}
	return n
}

// NUnique counts distinct non-empty values in col. Like NonEmpty it treats
// whitespace-only cells as empty and compares values with surrounding
// whitespace removed.
func (t *Table) NUnique(col string) int {
	j, ok := t.index[col]
	if !ok {
		return 0
	}
	seen := make(map[string]struct{})
	for _, r := range t.rows {
		if v := strings.TrimSpace(r[j]); v != "" {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}

// ValueCount is one entry of a frequency table.
type ValueCount struct {
	Value string
	Count int
}

// ValueCounts returns non-empty values by descending count. Ties keep the
// order in which values first appear.
func (t *Table) ValueCounts(col string) []ValueCount {
	j, ok := t.index[col]
	if !ok {
		return nil
	}
	pos := make(map[string]int)
	var counts []ValueCount
	for _, r := range t.rows {
		v := r[j]
		if v == "" {
			continue
		}
		if k, ok := pos[v]; ok {
			counts[k].Count++
			continue
		}
		pos[v] = len(counts)
		counts = append(counts, ValueCount{Value: v, Count: 1})
	}
	sort.SliceStable(counts, func(a, b int) bool {
		return counts[a].Count > counts[b].Count
	})
	return counts
}

// DropDuplicates keeps the first row for each combination of keys. With no
// keys every column is compared.
func (t *Table) DropDuplicates(keys ...string) *Table {
	if len(keys) == 0 {
		keys = t.header
	}
	seen := make(map[string]struct{}, len(t.rows))
	rows := make([][]string, 0, len(t.rows))
	for i, r := range t.rows {
		k := t.key(i, keys)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		rows = append(rows, r)
	}
	return t.withRows(rows)
}

// SortStableBy returns a copy sorted by less, keeping the relative order of
// equal rows.
func (t *Table) SortStableBy(less func(a, b Row) bool) *Table {
	order := make([]int, len(t.rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return less(t.Row(order[a]), t.Row(order[b]))
	})
	rows := make([][]string, len(order))
	for i, o := range order {
		rows[i] = t.rows[o]
	}
	return t.withRows(rows)
}

func (t *Table) key(i int, cols []string) string {
	var b strings.Builder
	for n, c := range cols {
		if n > 0 {
			b.WriteByte(0)
		}
		b.WriteString(t.Get(i, c))
	}
	return b.String()
}
