package pipeline

import (
	"context"
	"slices"
	"strings"

	apperrors "github.com/mkguldan/empirical/internal/errors"
	"github.com/mkguldan/empirical/internal/report"
	"github.com/mkguldan/empirical/internal/stats"
	"github.com/mkguldan/empirical/internal/table"
	"github.com/mkguldan/empirical/internal/transform"
	"github.com/mkguldan/empirical/pkg/contracts/domain"
)

// Deals counted toward state VC spend.
const (
	spendFirstYear = 2012
	spendLastYear  = 2022
)

var controlVariables = []string{
	domain.ColDealSizeControl, domain.ColLnDealSize,
	domain.ColUniversityUSRankUnderscore, domain.ColLnUniversityUSRank,
	domain.ColFemale, domain.ColPhDMD, domain.ColMBAJD, domain.ColMasters,
	domain.ColAgeAtDeal, domain.ColStageSeed, domain.ColStageEarly, domain.ColDealYear,
	domain.ColCompanyHQState, domain.ColVCSpend,
}

// ControlSources are the optional vendor tables Controls draws on. Any of
// them may be nil, in which case the controls it feeds are left out.
type ControlSources struct {
	// CoreDeals is the full Deal table, used for VC spend by state.
	CoreDeals *table.Table
	// DealInvestors is DealInvestorRelation: one row per deal and investor.
	DealInvestors *table.Table
	// BoardSeats is PersonBoardSeatRelation.
	BoardSeats *table.Table
	// PersonDeals is PersonAffiliatedDealRelation, with a DealDate column.
	PersonDeals *table.Table
}

// Controls builds the regression controls for a deal-level sample: deal size
// and its log, university rank and its log, founder gender and education
// dummies, stage, industry and geography blocks. With src.CoreDeals the
// average VC deal size in the company's state is added as
// Average_VC_Spend_HQ_Company; the relation tables add the investor and
// founder history controls.
func (r *Runner) Controls(ctx context.Context, in *table.Table, src ControlSources) (*table.Table, *report.Summary, error) {
	return r.stage(ctx, StageControls, in.Len(), func(ctx context.Context) (*table.Table, *report.Summary, error) {
		if err := in.Require(domain.ColDealID); err != nil {
			return nil, nil, err
		}

		out := in.DropDuplicates(domain.ColDealID)
		s := report.NewSummary("Regression Controls")
		s.AddMetric("Observations", report.Count(out.Len()))
		s.AddMetric("Duplicate DealIDs removed", report.Count(in.Len()-out.Len()))

		sizeCol := out.FirstPresent(domain.ColDealSizeNum, domain.ColDealSize)
		out.AddColumn(domain.ColDealSizeControl, func(row table.Row) string {
			if v, ok := transform.ParseCurrency(row.Get(sizeCol)); ok {
				return table.FormatFloat(v)
			}
			return ""
		})
		out.AddColumn(domain.ColLnDealSize, func(row table.Row) string {
			return transform.LogCell(row.Get(domain.ColDealSizeControl))
		})

		if rankCol := out.FirstPresent(domain.ColUniversityUSRank, domain.ColUniversityUSRankUnderscore); rankCol != "" {
			out.AddColumn(domain.ColUniversityUSRankUnderscore, func(row table.Row) string {
				if v, ok := transform.ParseRank(row.Get(rankCol)); ok {
					return table.FormatFloat(v)
				}
				return ""
			})
			out.AddColumn(domain.ColLnUniversityUSRank, func(row table.Row) string {
				return transform.LogCell(row.Get(domain.ColUniversityUSRankUnderscore))
			})
		} else {
			s.AddNote("No university rank column; rank controls not created")
		}

		out.AddColumn(domain.ColFemale, func(row table.Row) string {
			return table.Bool(row.Get(domain.ColTeamGender) == string(domain.TeamSingleFemale))
		})
		educationDummy := func(labels ...string) func(table.Row) string {
			return func(row table.Row) string {
				return table.Bool(slices.Contains(labels, row.Get(domain.ColMaxEducation)))
			}
		}
		out.AddColumn(domain.ColPhDMD, educationDummy("PhD", "MD"))
		out.AddColumn(domain.ColMBAJD, educationDummy("MBA", "JD"))
		out.AddColumn(domain.ColMasters, educationDummy("MSC", "MA"))

		out.AddColumn(domain.ColStageLater, func(row table.Row) string {
			seed, okSeed := row.Float(domain.ColStageSeed)
			early, okEarly := row.Float(domain.ColStageEarly)
			return table.Bool(okSeed && okEarly && seed == 0 && early == 0)
		})

		blocks := r.addBlocks(out)

		if src.CoreDeals != nil {
			spend, err := r.stateSpend(src.CoreDeals)
			if err != nil {
				return nil, nil, err
			}
			merged, fill, err := mergeSpend(out, spend)
			if err != nil {
				return nil, nil, err
			}
			out = merged
			s.AddMetric("States with VC spend", report.Count(spend.Len()))
			s.AddMetric("Observations filled with median VC spend", report.Count(fill.filled))
		}

		relations, err := r.addRelationControls(out, src, s)
		if err != nil {
			return nil, nil, err
		}

		completeness := report.Section{
			Title:  "Control Completeness",
			Header: []string{"Variable", "Missing", "Status"},
		}
		complete := true
		for _, col := range controlVariables {
			if !out.Has(col) {
				completeness.AddRow(col, "", "column absent")
				complete = false
				continue
			}
			missing := out.Len() - out.NonEmpty(col)
			status := "complete"
			if missing > 0 {
				status = "missing values"
				complete = false
			}
			completeness.AddRow(col, report.Count(missing), status)
		}
		s.AddTable(completeness)
		s.AddCheck("All control variables complete", complete, "")
		s.AddCheck("No duplicate DealID", out.NUnique(domain.ColDealID) == out.NonEmpty(domain.ColDealID), "")

		shares := report.Section{
			Title:  "Indicator Shares",
			Header: []string{"Variable", "Count", "Percent"},
		}
		indicators := append([]string{domain.ColFemale, domain.ColPhDMD, domain.ColMBAJD, domain.ColMasters, domain.ColStageLater}, blocks...)
		indicators = append(indicators, relations...)
		for _, col := range indicators {
			n := countOnes(out, col)
			shares.AddRow(col, report.Count(n), report.Percent(n, out.Len()))
		}
		s.AddTable(shares)
		return out, s, nil
	})
}

// addBlocks adds the industry and geography dummies and returns their names.
// The columns are created even when t has no rows.
func (r *Runner) addBlocks(t *table.Table) []string {
	var names []string
	for _, f := range r.classifier.IndustryBlocks("") {
		names = append(names, f.Name)
	}
	for _, f := range r.classifier.GeoBlocks("") {
		names = append(names, f.Name)
	}
	names = append(names, domain.ColIsTechHub)
	for _, name := range names {
		t.AddColumn(name, func(table.Row) string { return table.Bool(false) })
	}

	for i := 0; i < t.Len(); i++ {
		flags := r.classifier.IndustryBlocks(t.Get(i, domain.ColCompanyIndustryGroup))
		flags = append(flags, r.classifier.GeoBlocks(t.Get(i, domain.ColCompanyHQState))...)
		for _, f := range flags {
			t.Set(i, f.Name, table.Bool(f.Set))
		}
		t.Set(i, domain.ColIsTechHub, table.Bool(r.classifier.IsTechHub(t.Get(i, domain.ColCompanyHQState))))
	}
	return names
}

// stateSpend averages the size of VC stage deals from the spend window by
// headquarters state. States without a parseable size are left out.
func (r *Runner) stateSpend(deals *table.Table) (*table.Table, error) {
	dateCol := deals.FirstPresent(domain.ColCoreDealDate, domain.ColDealDate)
	typeCol := deals.FirstPresent(domain.ColCoreDealType, domain.ColDealType)
	sizeCol := deals.FirstPresent(domain.ColCoreDealSize, domain.ColDealSize)
	for _, c := range []struct{ got, want string }{
		{dateCol, domain.ColCoreDealDate}, {typeCol, domain.ColCoreDealType}, {sizeCol, domain.ColCoreDealSize},
	} {
		if c.got == "" {
			return nil, apperrors.NewMissingColumnError(c.want, deals.Columns())
		}
	}
	if err := deals.Require(domain.ColCompanyHQState); err != nil {
		return nil, err
	}

	stageTypes := make(map[string]bool)
	for _, st := range r.classifier.Stages() {
		stageTypes[st.DealType] = true
	}
	window := deals.Filter(func(row table.Row) bool {
		year, ok := transform.Year(row.Get(dateCol))
		return ok && year >= spendFirstYear && year <= spendLastYear && stageTypes[row.Get(typeCol)]
	})

	out := table.New(domain.ColCompanyHQState, domain.ColVCSpend)
	for _, g := range window.GroupBy(domain.ColCompanyHQState) {
		if g.Keys[0] == "" {
			continue
		}
		var sizes []float64
		for _, v := range g.Table.Column(sizeCol) {
			if f, ok := transform.ParseCurrency(v); ok {
				sizes = append(sizes, f)
			}
		}
		if mean, ok := stats.Mean(sizes); ok {
			out.Append(g.Keys[0], table.FormatFloat(mean))
		}
	}
	return out, nil
}

type spendFill struct {
	matched int
	filled  int
	median  float64
}

// mergeSpend left-joins a (state, spend) table onto t by state, replacing
// any spend column t already has, and fills unmatched rows with the median
// of the matched values.
func mergeSpend(t, spend *table.Table) (*table.Table, spendFill, error) {
	var fill spendFill
	joined, err := t.Drop(domain.ColVCSpend).LeftJoin(spend.DropDuplicates(domain.ColCompanyHQState), domain.ColCompanyHQState, domain.ColVCSpend)
	if err != nil {
		return nil, fill, err
	}
	values := joined.Floats(domain.ColVCSpend)
	fill.matched = len(values)
	median, ok := stats.Median(values)
	if !ok {
		return joined, fill, nil
	}
	fill.median = median
	joined.Apply(domain.ColVCSpend, func(v string) string {
		if _, ok := table.ParseFloat(v); ok {
			return v
		}
		fill.filled++
		return table.FormatFloat(median)
	})
	return joined, fill, nil
}

// MergeStateSpend replaces the VC spend control with the values of a
// precomputed spend-by-state table. The table's state and spend columns are
// found by name.
func (r *Runner) MergeStateSpend(ctx context.Context, in, spend *table.Table) (*table.Table, *report.Summary, error) {
	return r.stage(ctx, StageMergeSpend, in.Len(), func(ctx context.Context) (*table.Table, *report.Summary, error) {
		if err := in.Require(domain.ColCompanyHQState); err != nil {
			return nil, nil, err
		}
		stateCol := domain.ColCompanyHQState
		if !spend.Has(stateCol) {
			stateCol = findColumn(spend, "", "state", "province")
		}
		if stateCol == "" {
			return nil, nil, apperrors.NewSchemaError("spend table has no state column").
				WithContext("available", strings.Join(spend.Columns(), ", "))
		}
		spendCol := domain.ColVCSpend
		if !spend.Has(spendCol) {
			spendCol = findColumn(spend, stateCol, "spend", "avg", "average")
		}
		if spendCol == "" {
			return nil, nil, apperrors.NewSchemaError("spend table has no spend column").
				WithContext("available", strings.Join(spend.Columns(), ", "))
		}

		bystate := spend.Select(stateCol, spendCol).Rename(map[string]string{
			stateCol: domain.ColCompanyHQState,
			spendCol: domain.ColVCSpend,
		})
		out, fill, err := mergeSpend(in, bystate)
		if err != nil {
			return nil, nil, err
		}

		s := report.NewSummary("State VC Spend")
		s.AddMetric("State column", stateCol)
		s.AddMetric("Spend column", spendCol)
		s.AddMetric("States in spend table", report.Count(bystate.NUnique(domain.ColCompanyHQState)))
		s.AddMetric("Observations matched", report.Count(fill.matched))
		if fill.filled > 0 {
			s.AddMetric("Observations filled with median", report.Count(fill.filled)+" ("+report.Float(fill.median, 2)+")")
		}
		s.AddCheck("All observations matched to a state", fill.filled == 0 && fill.matched == out.Len(), "")
		s.AddTable(report.DescribeSection("VC Spend Statistics", out, domain.ColVCSpend))
		return out, s, nil
	})
}

// findColumn returns the first column other than skip whose lower-case name
// contains one of the needles. Matching is by substring in column order, so a
// spend column named like "avg_spend_by_state" is taken as the state column
// when it comes first.
func findColumn(t *table.Table, skip string, needles ...string) string {
	for _, col := range t.Columns() {
		if col == skip {
			continue
		}
		lower := strings.ToLower(col)
		for _, n := range needles {
			if strings.Contains(lower, n) {
				return col
			}
		}
	}
	return ""
}

// LogColumn adds ln_<col>, the natural log of a positive numeric column.
func (r *Runner) LogColumn(ctx context.Context, in *table.Table, col string) (*table.Table, *report.Summary, error) {
	return r.stage(ctx, StageLogColumn, in.Len(), func(ctx context.Context) (*table.Table, *report.Summary, error) {
		if err := in.Require(col); err != nil {
			return nil, nil, err
		}
		logCol := "ln_" + col
		out := in.Clone().AddColumn(logCol, func(row table.Row) string {
			return transform.LogCell(row.Get(col))
		})

		s := report.NewSummary("Log Transform of " + col)
		s.AddMetric("Observations", report.Count(out.Len()))
		s.AddMetric("Values not logged (missing or not positive)", report.Count(out.Len()-out.NonEmpty(logCol)))
		s.AddTable(report.DescribeSection("Before and After", out, col, logCol))
		return out, s, nil
	})
}
