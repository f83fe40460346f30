package pipeline

import (
	"context"
	"strings"

	"github.com/mkguldan/empirical/internal/classify"
	apperrors "github.com/mkguldan/empirical/internal/errors"
	"github.com/mkguldan/empirical/internal/report"
	"github.com/mkguldan/empirical/internal/table"
	"github.com/mkguldan/empirical/internal/transform"
	"github.com/mkguldan/empirical/pkg/contracts/domain"
)

// Clean drops founders without a recorded gender and deals of excluded
// types, then rewrites every date column as dd/mm/yyyy.
func (r *Runner) Clean(ctx context.Context, in *table.Table) (*table.Table, *report.Summary, error) {
	return r.stage(ctx, StageClean, in.Len(), func(ctx context.Context) (*table.Table, *report.Summary, error) {
		if err := in.Require(domain.ColPersonGender, domain.ColDealType); err != nil {
			return nil, nil, err
		}

		withGender := in.Filter(func(row table.Row) bool {
			return !row.Empty(domain.ColPersonGender)
		})
		if withGender.Len() == 0 {
			return nil, nil, apperrors.NewValidationError("no rows with a recorded gender")
		}
		out := withGender.Filter(func(row table.Row) bool {
			return !r.classifier.IsExcludedDealType(row.Get(domain.ColDealType))
		})
		if out.Len() == 0 {
			return nil, nil, apperrors.NewValidationError("every row has an excluded deal type")
		}

		var dateCols []string
		for _, col := range out.Columns() {
			if strings.Contains(strings.ToLower(col), "date") {
				out.Apply(col, transform.NormalizeDate)
				dateCols = append(dateCols, col)
			}
		}

		s := report.NewSummary("Founder-VC Cleaning")
		s.AddMetric("Rows removed for missing gender", report.Count(in.Len()-withGender.Len()))
		s.AddMetric("Rows removed for excluded deal types", report.Count(withGender.Len()-out.Len()))
		if len(dateCols) > 0 {
			s.AddMetric("Date columns normalized", strings.Join(dateCols, ", "))
		}
		s.AddTable(report.StageTable(
			report.CountStage("Initial", in, domain.ColPersonID, domain.ColCompanyID),
			report.CountStage("After Gender filter", withGender, domain.ColPersonID, domain.ColCompanyID),
			report.CountStage("After Deal Type filter (FINAL)", out, domain.ColPersonID, domain.ColCompanyID),
		))
		s.AddTable(report.ValueCountsSection("Top 10 Deal Types", out, domain.ColDealType, 10))
		s.AddTable(report.ValueCountsSection("Gender Distribution", out, domain.ColPersonGender, 0))

		for _, col := range []string{domain.ColPersonID, domain.ColCompanyID, domain.ColDealID, domain.ColPersonGender, domain.ColEducationInstitute} {
			s.AddCheck("All rows have "+col, out.Has(col) && out.NonEmpty(col) == out.Len(), "")
		}
		for _, excluded := range r.classifier.Tables().ExcludedDealTypes {
			needle := strings.ToLower(excluded)
			left := out.Filter(func(row table.Row) bool {
				return strings.Contains(strings.ToLower(row.Get(domain.ColDealType)), needle)
			}).Len()
			s.AddCheck("No "+excluded+" deals remaining", left == 0, report.Count(left)+" found")
		}
		return out, s, nil
	})
}

// Categorize maps each degree to its education category and renders the
// deal size columns, given in millions, as dollar amounts.
func (r *Runner) Categorize(ctx context.Context, in *table.Table) (*table.Table, *report.Summary, error) {
	return r.stage(ctx, StageCategorize, in.Len(), func(ctx context.Context) (*table.Table, *report.Summary, error) {
		if err := in.Require(domain.ColEducationDegree); err != nil {
			return nil, nil, err
		}

		out := in.Clone().AddColumn(domain.ColEducationCategory, func(row table.Row) string {
			return string(classify.Degree(row.Get(domain.ColEducationDegree)))
		})
		var formatted []string
		for _, col := range []string{domain.ColDealSize, domain.ColInvestorDealSize} {
			if out.Has(col) {
				out.Apply(col, transform.FormatCurrency)
				formatted = append(formatted, col)
			}
		}

		s := report.NewSummary("Degree Categorization and Formatting")
		s.AddMetric("Total rows", report.Count(out.Len()))
		if len(formatted) > 0 {
			s.AddMetric("Currency columns formatted", strings.Join(formatted, ", "))
		}

		categories := report.Section{
			Title:  "Education Categories",
			Header: []string{"Category", "Count", "Percent"},
		}
		for _, vc := range out.ValueCounts(domain.ColEducationCategory) {
			categories.AddRow(vc.Value, report.Count(vc.Count), report.Percent(vc.Count, out.Len()))
		}
		s.AddTable(categories)
		s.AddTable(report.ValueCountsSection("Top 15 Degrees", in, domain.ColEducationDegree, 15))

		mapping := report.Section{
			Title:  "Sample Degree Mapping",
			Header: []string{"Degree", "Category"},
		}
		pairs := out.DropDuplicates(domain.ColEducationDegree, domain.ColEducationCategory).Head(20)
		for i := 0; i < pairs.Len(); i++ {
			mapping.AddRow(pairs.Get(i, domain.ColEducationDegree), pairs.Get(i, domain.ColEducationCategory))
		}
		s.AddTable(mapping)
		return out, s, nil
	})
}

// AssignUniversityGroups tags each founder's institute as Ivy, Top8 or Other.
func (r *Runner) AssignUniversityGroups(ctx context.Context, in *table.Table) (*table.Table, *report.Summary, error) {
	return r.stage(ctx, StageGroups, in.Len(), func(ctx context.Context) (*table.Table, *report.Summary, error) {
		if err := in.Require(domain.ColEducationInstitute); err != nil {
			return nil, nil, err
		}

		out := in.Clone().AddColumn(domain.ColUniversityGroup, func(row table.Row) string {
			return string(r.classifier.UniversityGroup(row.Get(domain.ColEducationInstitute)))
		})

		s := report.NewSummary("University Groups")
		s.AddTable(report.ValueCountsSection("University Group Distribution", out, domain.ColUniversityGroup, 0))
		elite := out.Filter(func(row table.Row) bool {
			return domain.UniversityGroup(row.Get(domain.ColUniversityGroup)).IsElite()
		})
		s.AddMetric("Founders at Ivy or Top8 schools", report.Count(elite.Len())+" ("+report.Percent(elite.Len(), out.Len())+")")
		s.AddTable(report.ValueCountsSection("Top 15 Elite Institutes", elite, domain.ColEducationInstitute, 15))
		return out, s, nil
	})
}
