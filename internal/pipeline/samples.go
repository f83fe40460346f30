package pipeline

import (
	"context"
	"strings"

	apperrors "github.com/mkguldan/empirical/internal/errors"
	"github.com/mkguldan/empirical/internal/report"
	"github.com/mkguldan/empirical/internal/stats"
	"github.com/mkguldan/empirical/internal/table"
	"github.com/mkguldan/empirical/pkg/contracts/domain"
)

// SingleFounders keeps solo-founder deals and attaches the founder's
// university name and name-based university dummies from the founder-level
// table.
func (r *Runner) SingleFounders(ctx context.Context, deals, founders *table.Table) (*table.Table, *report.Summary, error) {
	return r.stage(ctx, StageSingleFounders, deals.Len(), func(ctx context.Context) (*table.Table, *report.Summary, error) {
		if err := deals.Require(domain.ColDealID, domain.ColTeamSize); err != nil {
			return nil, nil, err
		}
		if err := founders.Require(domain.ColDealID, domain.ColEducationInstitute, domain.ColPersonFullName); err != nil {
			return nil, nil, err
		}

		single := deals.Filter(func(row table.Row) bool {
			n, ok := row.Float(domain.ColTeamSize)
			return ok && n == 1
		})
		// A re-run on a file that already carries the founder columns
		// replaces them.
		single = single.Drop(domain.ColEducationInstitute, domain.ColPersonFullName, domain.ColUniversityName)

		// One founder per solo deal; extra rows would duplicate deals.
		names := founders.
			Select(domain.ColDealID, domain.ColEducationInstitute, domain.ColPersonFullName).
			Filter(func(row table.Row) bool { return !row.Empty(domain.ColDealID) }).
			DropDuplicates(domain.ColDealID)

		out, err := single.LeftJoin(names, domain.ColDealID, domain.ColEducationInstitute, domain.ColPersonFullName)
		if err != nil {
			return nil, nil, err
		}
		unmatched := out.Len() - out.NonEmpty(domain.ColEducationInstitute)
		out.Rename(map[string]string{domain.ColEducationInstitute: domain.ColUniversityName})

		for i := 0; i < out.Len(); i++ {
			for _, flag := range r.classifier.UniversityDummies(out.Get(i, domain.ColUniversityName)) {
				out.Set(i, flag.Name, table.Bool(flag.Set))
			}
		}
		if out.Len() == 0 {
			// Keep the dummy columns in an empty output.
			for _, flag := range r.classifier.UniversityDummies("") {
				out.AddColumn(flag.Name, func(table.Row) string { return "" })
			}
		}

		s := report.NewSummary("Single Founder Dataset")
		s.AddMetric("Total deals", report.Count(deals.Len()))
		s.AddMetric("Single founder deals", report.Count(out.Len())+" ("+report.Percent(out.Len(), deals.Len())+")")
		s.AddCheck("All single founder deals matched a university", unmatched == 0, report.Count(unmatched)+" unmatched")
		if unmatched > 0 {
			s.AddNote("%s single founder deals did not match a university name", report.Count(unmatched))
		}
		s.AddTable(report.ValueCountsSection("Education Group Distribution", out, domain.ColTeamEducationGroup, 0))
		addDealSizeMetrics(s, out)
		s.AddTable(report.ValueCountsSection("Top 15 Universities", out, domain.ColUniversityName, 15))

		dummies := report.Section{
			Title:  "University Dummies",
			Header: []string{"University", "Count", "Percent"},
		}
		for _, d := range r.classifier.Tables().UniversityDummies {
			n := countOnes(out, d.Name)
			dummies.AddRow(d.Name, report.Count(n), report.Percent(n, out.Len()))
		}
		s.AddTable(dummies)
		return out, s, nil
	})
}

// EliteFounders keeps solo founders from Ivy and Top8 schools and adds
// Ivy_vs_Top8, 1 for Ivy.
func (r *Runner) EliteFounders(ctx context.Context, in *table.Table) (*table.Table, *report.Summary, error) {
	return r.stage(ctx, StageEliteFounders, in.Len(), func(ctx context.Context) (*table.Table, *report.Summary, error) {
		groupCol := in.FirstPresent(domain.ColEducationGroup, domain.ColTeamEducationGroup)
		if groupCol == "" {
			return nil, nil, apperrors.NewMissingColumnError(domain.ColEducationGroup, in.Columns())
		}

		out := in.Filter(func(row table.Row) bool {
			return domain.UniversityGroup(row.Get(groupCol)).IsElite()
		})
		out.AddColumn(domain.ColIvyVsTop8, func(row table.Row) string {
			return table.Bool(row.Get(groupCol) == string(domain.GroupIvy))
		})

		s := report.NewSummary("Elite Single Founder Dataset")
		s.AddMetric("Group column", groupCol)
		s.AddMetric("Elite deals", report.Count(out.Len()))
		s.AddMetric("Dropped (Other schools)", report.Count(in.Len()-out.Len()))
		addDealSizeMetrics(s, out)

		byGroup := report.Section{
			Title:  "Deal Size by Group",
			Header: []string{"Group", "N", "Share", "Mean", "Median", "Log Mean"},
		}
		for _, group := range []domain.UniversityGroup{domain.GroupIvy, domain.GroupTop8} {
			members := out.Filter(func(row table.Row) bool { return row.Get(groupCol) == string(group) })
			cells := []string{string(group), report.Count(members.Len()), report.Percent(members.Len(), out.Len())}
			sizes := members.Floats(domain.ColDealSizeNum)
			if mean, ok := stats.Mean(sizes); ok {
				median, _ := stats.Median(sizes)
				cells = append(cells, wholeDollars(mean), wholeDollars(median))
			} else {
				cells = append(cells, "", "")
			}
			if mean, ok := stats.Mean(members.Floats(domain.ColLogDealSize)); ok {
				cells = append(cells, report.Float(mean, 3))
			} else {
				cells = append(cells, "")
			}
			byGroup.AddRow(cells...)
		}
		s.AddTable(byGroup)
		s.AddTable(report.ValueCountsSection("Top 15 Universities", out, domain.ColUniversityName, 15))

		if out.Has(domain.ColAnyFemale) {
			female := countOnes(out, domain.ColAnyFemale)
			s.AddMetric("Female founders", report.Count(female)+" ("+report.Percent(female, out.Len())+")")
			s.AddMetric("Male founders", report.Count(out.Len()-female)+" ("+report.Percent(out.Len()-female, out.Len())+")")
		}
		stages := report.Section{
			Title:  "Deal Stage Distribution",
			Header: []string{"Stage", "Count", "Percent"},
		}
		for _, st := range r.classifier.Stages() {
			if !out.Has(st.Column) {
				continue
			}
			n := countOnes(out, st.Column)
			stages.AddRow(strings.TrimPrefix(st.Column, "Stage_"), report.Count(n), report.Percent(n, out.Len()))
		}
		s.AddTable(stages)
		return out, s, nil
	})
}

func addDealSizeMetrics(s *report.Summary, t *table.Table) {
	d, ok := stats.Describe(t.Floats(domain.ColDealSizeNum))
	if !ok {
		return
	}
	s.AddMetric("Deal size mean", wholeDollars(d.Mean))
	s.AddMetric("Deal size median", wholeDollars(d.P50))
	s.AddMetric("Deal size 25th pct", wholeDollars(d.P25))
	s.AddMetric("Deal size 75th pct", wholeDollars(d.P75))
}

// countOnes counts cells equal to 1 in a 0/1 column.
func countOnes(t *table.Table, col string) int {
	n := 0
	for _, v := range t.Column(col) {
		if f, ok := table.ParseFloat(v); ok && f == 1 {
			n++
		}
	}
	return n
}

// SingleFounderNotes documents the single founder dataset.
func SingleFounderNotes(s *report.Summary) *report.Document {
	doc := report.NewDocument("Single Founder Dataset")
	doc.Intro = []string{
		"Deals with exactly one founder, taken from the deal-level file. The founder's university name " +
			"(University_Name) and full name come from the founder-level file, matched on DealID.",
		"Each university dummy is 1 when University_Name contains one of the school's name patterns. " +
			"With one founder per deal Team_Education_Group is the founder's own group.",
	}
	doc.Add(s)
	return doc
}

// EliteFounderNotes documents the elite single founder dataset.
func EliteFounderNotes(s *report.Summary) *report.Document {
	doc := report.NewDocument("Elite Single Founder Dataset (Ivy + Top8 Only)")
	doc.Intro = []string{
		"Single founder deals whose founder attended an Ivy League or Top 8 school. Other schools are excluded, " +
			"so Top8 is the baseline when comparing within the elite tier.",
		"Ivy_vs_Top8 is 1 for Ivy founders and 0 for Top8 founders.",
	}
	doc.Add(s)
	return doc
}
