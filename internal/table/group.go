package table

import (
	"fmt"
	"strings"

	apperrors "github.com/mkguldan/empirical/internal/errors"
)

// Group is the set of rows sharing one key.
type Group struct {
	Keys  []string
	Table *Table
}

// GroupBy partitions rows by the key columns. Groups are returned in the
// order their key first appears.
func (t *Table) GroupBy(keys ...string) []Group {
	pos := make(map[string]int)
	var keyVals [][]string
	var members [][][]string
	for i, r := range t.rows {
		k := t.key(i, keys)
		g, ok := pos[k]
		if !ok {
			g = len(members)
			pos[k] = g
			vals := make([]string, len(keys))
			for n, c := range keys {
				vals[n] = t.Get(i, c)
			}
			keyVals = append(keyVals, vals)
			members = append(members, nil)
		}
		members[g] = append(members[g], r)
	}

	groups := make([]Group, len(members))
	for g := range members {
		groups[g] = Group{Keys: keyVals[g], Table: t.withRows(members[g])}
	}
	return groups
}

// LeftJoin joins on a column with the same name in both tables.
func (t *Table) LeftJoin(right *Table, on string, cols ...string) (*Table, error) {
	return t.LeftJoinOn(right, on, on, cols...)
}

// LeftJoinOn keeps every row of t and appends cols taken from right where
// right[rightKey] equals t[leftKey]. A left row with several matches is
// repeated once per match; a row without a match, or with an empty key, gets
// empty cells. With no cols every right column except the key is joined.
// A joined column that already exists in t is a schema error.
func (t *Table) LeftJoinOn(right *Table, leftKey, rightKey string, cols ...string) (*Table, error) {
	if err := t.Require(leftKey); err != nil {
		return nil, err
	}
	if err := right.Require(rightKey); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		for _, c := range right.header {
			if c != rightKey {
				cols = append(cols, c)
			}
		}
	}
	if err := right.Require(cols...); err != nil {
		return nil, err
	}
	var clash []string
	for _, c := range cols {
		if t.Has(c) {
			clash = append(clash, c)
		}
	}
	if len(clash) > 0 {
		return nil, apperrors.NewSchemaError(fmt.Sprintf("join would overwrite columns: %s", strings.Join(clash, ", ")))
	}

	matches := make(map[string][]int)
	rk := right.index[rightKey]
	for i, r := range right.rows {
		matches[r[rk]] = append(matches[r[rk]], i)
	}

	header := append(t.Columns(), cols...)
	records := make([][]string, 0, len(t.rows))
	lk := t.index[leftKey]
	for _, r := range t.rows {
		hits := matches[r[lk]]
		if r[lk] == "" || len(hits) == 0 {
			rec := make([]string, len(header))
			copy(rec, r)
			records = append(records, rec)
			continue
		}
		for _, h := range hits {
			rec := make([]string, 0, len(header))
			rec = append(rec, r...)
			for _, c := range cols {
				rec = append(rec, right.Get(h, c))
			}
			records = append(records, rec)
		}
	}
	return FromRecords(header, records), nil
}

// Lookup builds a key to value map from two columns, keeping the first value
// seen for each key.
func (t *Table) Lookup(keyCol, valueCol string) map[string]string {
	out := make(map[string]string)
	for i := range t.rows {
		k := t.Get(i, keyCol)
		if _, ok := out[k]; ok || k == "" {
			continue
		}
		out[k] = t.Get(i, valueCol)
	}
	return out
}
