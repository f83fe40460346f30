package pipeline

import (
	"context"
	"slices"
	"strconv"
	"time"

	apperrors "github.com/mkguldan/empirical/internal/errors"
	"github.com/mkguldan/empirical/internal/report"
	"github.com/mkguldan/empirical/internal/stats"
	"github.com/mkguldan/empirical/internal/table"
	"github.com/mkguldan/empirical/internal/transform"
	"github.com/mkguldan/empirical/pkg/contracts/domain"
)

// Lag windows in days before the deal. A count from the preferred window
// wins; otherwise the closest count within maxLagDays is used.
const (
	preferredMinLagDays = 30
	preferredMaxLagDays = 180
	maxLagDays          = 730
)

const day = 24 * time.Hour

type headcount struct {
	date  time.Time
	count string
}

// LagEmployees replaces the snapshot employee count, measured after most
// deals took place, with the count observed shortly before each deal. Deal
// dates come from coreDeals, the vendor Deal table, when given and from the
// input's Deal_DealDate otherwise.
func (r *Runner) LagEmployees(ctx context.Context, in, history, coreDeals *table.Table) (*table.Table, *report.Summary, error) {
	return r.stage(ctx, StageLagEmployees, in.Len(), func(ctx context.Context) (*table.Table, *report.Summary, error) {
		if err := in.Require(domain.ColDealID, domain.ColCompanyID); err != nil {
			return nil, nil, err
		}
		countCol := history.FirstPresent(domain.ColCoreEmployeeCount, "Employees")
		if countCol == "" {
			return nil, nil, apperrors.NewMissingColumnError(domain.ColCoreEmployeeCount, history.Columns())
		}
		if err := history.Require(domain.ColCompanyID, domain.ColCoreDate); err != nil {
			return nil, nil, err
		}

		dealDate, err := dealDates(in, coreDeals)
		if err != nil {
			return nil, nil, err
		}

		byCompany := make(map[string][]headcount)
		for i := 0; i < history.Len(); i++ {
			row := history.Row(i)
			ts, ok := transform.ParseDate(row.Get(domain.ColCoreDate))
			if !ok || row.Empty(domain.ColCompanyID) {
				continue
			}
			company := row.Get(domain.ColCompanyID)
			byCompany[company] = append(byCompany[company], headcount{date: ts, count: row.Get(countCol)})
		}

		out := in.Clone()
		lagged := make([]string, out.Len())
		lagDays := make([]string, out.Len())
		for i := 0; i < out.Len(); i++ {
			ts, ok := dealDate(out.Row(i))
			if !ok {
				continue
			}
			if hc, days, found := laggedCount(byCompany[out.Get(i, domain.ColCompanyID)], ts); found {
				lagged[i] = hc.count
				lagDays[i] = strconv.Itoa(days)
			}
		}
		out.AddColumn(domain.ColEmployeesLagged, func(row table.Row) string { return lagged[row.Index] })
		out.AddColumn(domain.ColEmployeesLagDays, func(row table.Row) string { return lagDays[row.Index] })
		out.AddColumn(domain.ColEmployeesMissingLagged, func(row table.Row) string {
			_, ok := row.Float(domain.ColEmployeesLagged)
			return table.Bool(!ok)
		})
		out.AddColumn(domain.ColLnEmployeesLagged, func(row table.Row) string {
			return transform.LogCell(row.Get(domain.ColEmployeesLagged))
		})
		imputed := 0
		if median, ok := stats.Median(out.Floats(domain.ColLnEmployeesLagged)); ok {
			out.Apply(domain.ColLnEmployeesLagged, func(v string) string {
				if v != "" {
					return v
				}
				imputed++
				return table.FormatFloat(median)
			})
		}

		s := lagSummary(out, imputed)
		out.Rename(map[string]string{
			domain.ColCompanyEmployees: domain.ColCompanyEmployees + domain.SnapshotSuffix,
			domain.ColLnEmployees:      domain.ColLnEmployees + domain.SnapshotSuffix,
			domain.ColEmployeesMissing: domain.ColEmployeesMissing + domain.SnapshotSuffix,
		})
		return out, s, nil
	})
}

// dealDates returns a lookup of the deal date for a row of in.
func dealDates(in, coreDeals *table.Table) (func(table.Row) (time.Time, bool), error) {
	if coreDeals == nil {
		if err := in.Require(domain.ColDealDate); err != nil {
			return nil, err
		}
		return func(row table.Row) (time.Time, bool) {
			return transform.ParseDate(row.Get(domain.ColDealDate))
		}, nil
	}

	dateCol := coreDeals.FirstPresent(domain.ColCoreDealDate, domain.ColDealDate)
	if dateCol == "" {
		return nil, apperrors.NewMissingColumnError(domain.ColCoreDealDate, coreDeals.Columns())
	}
	if err := coreDeals.Require(domain.ColDealID); err != nil {
		return nil, err
	}
	dates := coreDeals.Lookup(domain.ColDealID, dateCol)
	return func(row table.Row) (time.Time, bool) {
		return transform.ParseDate(dates[row.Get(domain.ColDealID)])
	}, nil
}

// laggedCount picks the observation strictly before the deal: the most
// recent one 30 to 180 days before, else the most recent within 730 days.
// Equal lags keep the first observation in history order.
func laggedCount(history []headcount, deal time.Time) (headcount, int, bool) {
	var best, fallback headcount
	bestDays, fallbackDays := -1, -1
	for _, hc := range history {
		if !hc.date.Before(deal) {
			continue
		}
		days := int(deal.Sub(hc.date) / day)
		if days >= preferredMinLagDays && days <= preferredMaxLagDays && (bestDays < 0 || days < bestDays) {
			best, bestDays = hc, days
		}
		if days <= maxLagDays && (fallbackDays < 0 || days < fallbackDays) {
			fallback, fallbackDays = hc, days
		}
	}
	if bestDays >= 0 {
		return best, bestDays, true
	}
	if fallbackDays >= 0 {
		return fallback, fallbackDays, true
	}
	return headcount{}, 0, false
}

func lagSummary(out *table.Table, imputed int) *report.Summary {
	s := report.NewSummary("Lagged Employee Counts")
	total := out.Len()
	withLag := countPresent(out, domain.ColEmployeesLagged)
	withSnapshot := countPresent(out, domain.ColCompanyEmployees)
	s.AddMetric("Total deals", report.Count(total))
	s.AddMetric("Deals with lagged employee count", report.Count(withLag)+" ("+report.Percent(withLag, total)+")")
	s.AddMetric("Deals with snapshot employee count", report.Count(withSnapshot)+" ("+report.Percent(withSnapshot, total)+")")
	s.AddMetric("ln_Employees_Lagged imputed with median", report.Count(imputed))

	s.AddTable(report.DescribeSection("Snapshot vs Lagged", out, domain.ColCompanyEmployees, domain.ColEmployeesLagged))

	if d, ok := stats.Describe(out.Floats(domain.ColEmployeesLagDays)); ok {
		s.AddMetric("Mean lag", report.Float(d.Mean, 0)+" days ("+report.Float(d.Mean/30, 1)+" months)")
		s.AddMetric("Median lag", report.Float(d.P50, 0)+" days ("+report.Float(d.P50/30, 1)+" months)")
		s.AddMetric("Lag range", report.Float(d.Min, 0)+" - "+report.Float(d.Max, 0)+" days")
	}

	var lagged, snapshot, growth []float64
	for i := 0; i < out.Len(); i++ {
		row := out.Row(i)
		l, okL := row.Float(domain.ColEmployeesLagged)
		c, okC := row.Float(domain.ColCompanyEmployees)
		if !okL || !okC {
			continue
		}
		lagged = append(lagged, l)
		snapshot = append(snapshot, c)
		if l != 0 {
			growth = append(growth, (c-l)/l*100)
		}
	}
	if len(lagged) > 0 {
		s.AddMetric("Companies with both measures", report.Count(len(lagged)))
		if mean, ok := stats.Mean(growth); ok {
			median, _ := stats.Median(growth)
			grew := 0
			for _, g := range growth {
				if g > 0 {
					grew++
				}
			}
			s.AddMetric("Mean growth to snapshot", report.Float(mean, 1)+"%")
			s.AddMetric("Median growth to snapshot", report.Float(median, 1)+"%")
			s.AddMetric("Companies that grew", report.Count(grew)+" ("+report.Percent(grew, len(growth))+")")
		}
		if corr, ok := stats.Pearson(lagged, snapshot); ok {
			s.AddMetric("Correlation lagged vs snapshot", report.Float(corr, 3))
		}
	}

	if out.Has(domain.ColDealYear) {
		coverage := report.Section{
			Title:  "Coverage by Deal Year",
			Header: []string{"Deal_Year", "Total", "With_Lagged", "Coverage_%"},
		}
		groups := out.GroupBy(domain.ColDealYear)
		slices.SortStableFunc(groups, func(a, b table.Group) int {
			ya, _ := table.ParseFloat(a.Keys[0])
			yb, _ := table.ParseFloat(b.Keys[0])
			switch {
			case ya < yb:
				return -1
			case ya > yb:
				return 1
			}
			return 0
		})
		for _, g := range groups {
			if g.Keys[0] == "" {
				continue
			}
			n := countPresent(g.Table, domain.ColEmployeesLagged)
			coverage.AddRow(g.Keys[0], report.Count(g.Table.Len()), report.Count(n), report.Float(100*float64(n)/float64(g.Table.Len()), 1))
		}
		s.AddTable(coverage)
	}
	return s
}

// countPresent counts numeric cells in col.
func countPresent(t *table.Table, col string) int {
	return len(t.Floats(col))
}
