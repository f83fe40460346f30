package report

import (
	"github.com/mkguldan/empirical/internal/stats"
	"github.com/mkguldan/empirical/internal/table"
	"github.com/mkguldan/empirical/internal/transform"
)

// Count renders an integer with thousands separators.
func Count(n int) string {
	return transform.Thousands(n)
}

// Percent renders part/whole as a percentage with two decimals. A zero
// whole renders as 0.00%.
func Percent(part, whole int) string {
	if whole == 0 {
		return "0.00%"
	}
	return transform.Decimal(100*float64(part)/float64(whole), 2) + "%"
}

// Float renders v with the given decimals and grouping.
func Float(v float64, decimals int) string {
	return transform.Decimal(v, decimals)
}

// Dollars renders an amount as $1,234.56.
func Dollars(v float64) string {
	return "$" + transform.Decimal(v, 2)
}

// StageCount is the row count after one filtering step.
type StageCount struct {
	Name      string
	Rows      int
	Founders  int
	Companies int
}

// CountStage measures a table for the stage table.
func CountStage(name string, t *table.Table, personCol, companyCol string) StageCount {
	return StageCount{
		Name:      name,
		Rows:      t.Len(),
		Founders:  t.NUnique(personCol),
		Companies: t.NUnique(companyCol),
	}
}

// StageTable shows how many rows, founders and companies survive each step.
// Retention is relative to the first stage.
func StageTable(stages ...StageCount) Section {
	sec := Section{
		Title:  "Filtering Stages",
		Header: []string{"Stage", "Total Rows", "Unique Founders", "Unique Companies", "Retention Rate"},
	}
	if len(stages) == 0 {
		return sec
	}
	base := stages[0].Rows
	for _, s := range stages {
		sec.AddRow(s.Name, Count(s.Rows), Count(s.Founders), Count(s.Companies), Percent(s.Rows, base))
	}
	return sec
}

// ValueCountsSection tabulates the most frequent values of a column with
// their share of non-empty cells. A non-positive top shows every value.
func ValueCountsSection(title string, t *table.Table, col string, top int) Section {
	sec := Section{Title: title, Header: []string{col, "Count", "Percent"}}
	counts := t.ValueCounts(col)
	total := 0
	for _, vc := range counts {
		total += vc.Count
	}
	if top > 0 && len(counts) > top {
		counts = counts[:top]
	}
	for _, vc := range counts {
		sec.AddRow(vc.Value, Count(vc.Count), Percent(vc.Count, total))
	}
	return sec
}

// DescribeSection lists count, mean, std, min, quartiles and max for each
// numeric column present in t.
func DescribeSection(title string, t *table.Table, cols ...string) Section {
	sec := Section{
		Title:  title,
		Header: []string{"Variable", "Count", "Mean", "Std", "Min", "25%", "50%", "75%", "Max"},
	}
	for _, c := range cols {
		if !t.Has(c) {
			continue
		}
		d, ok := stats.Describe(t.Floats(c))
		if !ok {
			sec.AddRow(c, "0", "", "", "", "", "", "", "")
			continue
		}
		std := ""
		if d.HasStd {
			std = Float(d.Std, 3)
		}
		sec.AddRow(c, Count(d.Count), Float(d.Mean, 3), std, Float(d.Min, 3),
			Float(d.P25, 3), Float(d.P50, 3), Float(d.P75, 3), Float(d.Max, 3))
	}
	return sec
}
