package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/mkguldan/empirical/internal/errors"
	"github.com/mkguldan/empirical/internal/report"
	"github.com/mkguldan/empirical/internal/table"
	"github.com/mkguldan/empirical/internal/transform"
	"github.com/mkguldan/empirical/pkg/contracts/domain"
)

var founderDealColumns = []string{
	domain.ColCompanyID, domain.ColPersonID, domain.ColDealID,
	domain.ColDealType, domain.ColDealType2, domain.ColDealClass, domain.ColInvestorDealType,
	domain.ColPersonPositionLevel, domain.ColDealDate, domain.ColInvestorDealSize,
}

// FounderDeals reduces the master export to one row per founder, attached to
// the first VC deal of the founder's company. When that deal has no investor
// deal size the company's earliest deal with one is used instead.
func (r *Runner) FounderDeals(ctx context.Context, in *table.Table) (*table.Table, *report.Summary, error) {
	return r.stage(ctx, StageFounderDeals, in.Len(), func(ctx context.Context) (*table.Table, *report.Summary, error) {
		if err := in.Require(founderDealColumns...); err != nil {
			return nil, nil, err
		}

		filtered := in.Filter(func(row table.Row) bool {
			return r.isVCDeal(row) && isFounder(row)
		})
		if filtered.Len() == 0 {
			return nil, nil, apperrors.NewValidationError("no founder rows with a VC deal").
				WithContext("rows_in", in.Len())
		}

		chosen, adjusted := r.chooseDeals(filtered)
		optimal := filtered.Filter(func(row table.Row) bool {
			deal, ok := chosen[row.Get(domain.ColCompanyID)]
			return ok && deal == row.Get(domain.ColDealID)
		})
		deduped := optimal.DropDuplicates(domain.ColPersonID, domain.ColCompanyID, domain.ColDealID)
		out := deduped.DropDuplicates(domain.ColPersonID)

		s := report.NewSummary("Founder-VC Analysis")
		s.AddMetric("Total founders in analysis", report.Count(out.Len()))
		s.AddMetric("Unique companies with VC funding", report.Count(out.NUnique(domain.ColCompanyID)))
		s.AddMetric("Unique VC deals analyzed", report.Count(out.NUnique(domain.ColDealID)))
		withSize := out.NonEmpty(domain.ColInvestorDealSize)
		s.AddMetric("Founders with deal size data", fmt.Sprintf("%s (%s)", report.Count(withSize), report.Percent(withSize, out.Len())))
		companies := out.NUnique(domain.ColCompanyID)
		if companies > 0 {
			s.AddMetric("Average founders per company", report.Float(float64(out.Len())/float64(companies), 2))
		}
		single, multi := founderSplit(out)
		s.AddMetric("Companies with 1 founder", report.Count(single))
		s.AddMetric("Companies with 2+ founders", report.Count(multi))
		s.AddMetric("Date range of VC deals", dateRange(out, domain.ColDealDate))
		s.AddMetric("Companies whose deal was adjusted", report.Count(adjusted))

		s.AddTable(report.StageTable(
			report.CountStage("Master file", in, domain.ColPersonID, domain.ColCompanyID),
			report.CountStage("VC deals with founders", filtered, domain.ColPersonID, domain.ColCompanyID),
			report.CountStage("Optimal deal per company", optimal, domain.ColPersonID, domain.ColCompanyID),
			report.CountStage("One row per founder (FINAL)", out, domain.ColPersonID, domain.ColCompanyID),
		))

		for _, col := range []string{domain.ColPersonID, domain.ColCompanyID, domain.ColDealID} {
			s.AddCheck("All rows have "+col, out.NonEmpty(col) == out.Len(), "")
		}
		if dupes := deduped.Len() - out.Len(); dupes > 0 {
			s.AddNote("Removed %s duplicate founder records, usually from multiple education entries", report.Count(dupes))
		}
		return out, s, nil
	})
}

// isVCDeal requires a VC term in the deal class. The class is one of the
// four type columns, so the any-column condition holds whenever it does.
func (r *Runner) isVCDeal(row table.Row) bool {
	return r.classifier.IsVCTerm(row.Get(domain.ColDealClass))
}

func isFounder(row table.Row) bool {
	return strings.Contains(strings.ToLower(row.Get(domain.ColPersonPositionLevel)), "founder")
}

// chooseDeals picks one deal per company and counts the companies whose
// choice moved off the first deal to find one with a size. Rows without a
// CompanyID are not assigned a deal.
func (r *Runner) chooseDeals(t *table.Table) (map[string]string, int) {
	dates := make([]time.Time, t.Len())
	parsed := make([]bool, t.Len())
	for i, v := range t.Column(domain.ColDealDate) {
		dates[i], parsed[i] = transform.ParseDealDate(v)
	}
	byDate := t.SortStableBy(func(a, b table.Row) bool {
		if parsed[a.Index] && parsed[b.Index] {
			return dates[a.Index].Before(dates[b.Index])
		}
		return parsed[a.Index] && !parsed[b.Index]
	})

	chosen := make(map[string]string)
	adjusted := 0
	for _, g := range byDate.GroupBy(domain.ColCompanyID) {
		company := g.Keys[0]
		if company == "" {
			continue
		}
		first := g.Table.Row(0)
		pick := first.Get(domain.ColDealID)
		if first.Empty(domain.ColInvestorDealSize) {
			for i := 1; i < g.Table.Len(); i++ {
				row := g.Table.Row(i)
				if !row.Empty(domain.ColInvestorDealSize) {
					pick = row.Get(domain.ColDealID)
					break
				}
			}
		}
		if pick != first.Get(domain.ColDealID) {
			adjusted++
		}
		chosen[company] = pick
	}
	return chosen, adjusted
}

// founderSplit counts companies with exactly one founder row and with more.
func founderSplit(t *table.Table) (single, multi int) {
	for _, g := range t.GroupBy(domain.ColCompanyID) {
		if g.Keys[0] == "" {
			continue
		}
		if g.Table.Len() == 1 {
			single++
		} else {
			multi++
		}
	}
	return single, multi
}

func dateRange(t *table.Table, col string) string {
	var lo, hi time.Time
	found := false
	for _, v := range t.Column(col) {
		ts, ok := transform.ParseDealDate(v)
		if !ok {
			continue
		}
		if !found || ts.Before(lo) {
			lo = ts
		}
		if !found || ts.After(hi) {
			hi = ts
		}
		found = true
	}
	if !found {
		return "N/A"
	}
	return lo.Format("2006-01-02") + " to " + hi.Format("2006-01-02")
}

// RequireSizeAndEducation keeps founders whose deal has a size and who have
// a recorded education institute.
func (r *Runner) RequireSizeAndEducation(ctx context.Context, in *table.Table) (*table.Table, *report.Summary, error) {
	return r.stage(ctx, StageRequireSize, in.Len(), func(ctx context.Context) (*table.Table, *report.Summary, error) {
		var sizeCols []string
		for _, col := range []string{domain.ColInvestorDealSize, domain.ColDealSize} {
			if in.Has(col) {
				sizeCols = append(sizeCols, col)
			}
		}
		if len(sizeCols) == 0 {
			return nil, nil, apperrors.NewSchemaError("neither Investor_DealSize nor Deal_DealSize is present").
				WithContext("available", strings.Join(in.Columns(), ", "))
		}
		if err := in.Require(domain.ColEducationInstitute); err != nil {
			return nil, nil, err
		}

		withSize := in.Filter(func(row table.Row) bool {
			for _, col := range sizeCols {
				if !row.Empty(col) {
					return true
				}
			}
			return false
		})
		if withSize.Len() == 0 {
			return nil, nil, apperrors.NewValidationError("no rows with deal size data")
		}
		out := withSize.Filter(func(row table.Row) bool {
			return !row.Empty(domain.ColEducationInstitute)
		})
		if out.Len() == 0 {
			return nil, nil, apperrors.NewValidationError("no rows with an education institute")
		}

		s := report.NewSummary("Founder-VC Final Filter")
		s.AddMetric("Deal size columns used", strings.Join(sizeCols, ", "))
		s.AddMetric("Rows removed for missing deal size", report.Count(in.Len()-withSize.Len()))
		s.AddMetric("Rows removed for missing institute", report.Count(withSize.Len()-out.Len()))
		s.AddTable(report.StageTable(
			report.CountStage("Initial", in, domain.ColPersonID, domain.ColCompanyID),
			report.CountStage("After deal size filter", withSize, domain.ColPersonID, domain.ColCompanyID),
			report.CountStage("After education institute filter (FINAL)", out, domain.ColPersonID, domain.ColCompanyID),
		))
		s.AddTable(report.ValueCountsSection("Top 10 Education Institutes", out, domain.ColEducationInstitute, 10))
		s.AddTable(foundersPerCompany(out))
		return out, s, nil
	})
}

func foundersPerCompany(t *table.Table) report.Section {
	sec := report.Section{
		Title:  "Founders per Company",
		Header: []string{"Founders", "Companies"},
	}
	var one, two, more, total, maxN int
	groups := 0
	for _, g := range t.GroupBy(domain.ColCompanyID) {
		if g.Keys[0] == "" {
			continue
		}
		n := g.Table.NUnique(domain.ColPersonID)
		switch {
		case n <= 1:
			one++
		case n == 2:
			two++
		default:
			more++
		}
		total += n
		maxN = max(maxN, n)
		groups++
	}
	sec.AddRow("1", report.Count(one))
	sec.AddRow("2", report.Count(two))
	sec.AddRow("3+", report.Count(more))
	if groups > 0 {
		sec.AddRow("Mean", report.Float(float64(total)/float64(groups), 2))
	}
	sec.AddRow("Max", report.Count(maxN))
	return sec
}
