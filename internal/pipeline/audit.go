package pipeline

import (
	"context"
	"math"
	"slices"
	"strconv"

	apperrors "github.com/mkguldan/empirical/internal/errors"
	"github.com/mkguldan/empirical/internal/report"
	"github.com/mkguldan/empirical/internal/stats"
	"github.com/mkguldan/empirical/internal/table"
	"github.com/mkguldan/empirical/pkg/contracts/domain"
)

// AuditColumns is the header of the Audit output.
var AuditColumns = []string{"Entity", "Field", "Rows", "Non_Empty", "Percent"}

// ProfileColumns is the header of the Describe output.
var ProfileColumns = []string{"Column", "Non_Empty", "Missing", "Missing_Pct", "Distinct", "Mean", "Std", "Min", "Median", "Max"}

// CompareColumns is the header of the CompareMissing output.
var CompareColumns = []string{"Variable", "Lost_Missing", "Lost_Missing_Pct", "Kept_Missing", "Kept_Missing_Pct", "Difference"}

var auditIDs = []string{domain.ColCompanyID, domain.ColDealID, domain.ColInvestorID, domain.ColPersonID}

// Fields checked for completeness, per entity ID.
var auditFields = []struct {
	entity string
	id     string
	fields []string
}{
	{"Company", domain.ColCompanyID, []string{
		domain.ColCompanyName,
		domain.ColCompanyFinancingStatus,
		domain.ColCompanyHQCountry,
		domain.ColCompanyYearFounded,
		domain.ColCompanyIndustrySector,
	}},
	{"Deal", domain.ColDealID, []string{
		domain.ColDealDate,
		domain.ColDealSize,
		domain.ColDealType,
		domain.ColDealStatus,
	}},
	{"Person", domain.ColPersonID, []string{
		domain.ColPersonFullName,
		domain.ColPersonGender,
		domain.ColPersonPrimaryPosition,
	}},
}

// Audit checks a master file for ID coverage, links between entities,
// field completeness and inconsistent company names. The output lists one
// row per measured field.
func (r *Runner) Audit(ctx context.Context, in *table.Table) (*table.Table, *report.Summary, error) {
	return r.stage(ctx, StageAudit, in.Len(), func(ctx context.Context) (*table.Table, *report.Summary, error) {
		present := slices.DeleteFunc(slices.Clone(auditIDs), func(c string) bool { return !in.Has(c) })
		if len(present) == 0 {
			return nil, nil, apperrors.NewMissingColumnError(domain.ColCompanyID, in.Columns())
		}

		out := table.New(AuditColumns...)
		s := report.NewSummary("Master File Data Quality")
		s.AddMetric("Total rows", report.Count(in.Len()))

		coverage := report.Section{Title: "Key ID Coverage", Header: []string{"ID", "Rows", "Percent"}}
		for _, id := range present {
			n := in.NonEmpty(id)
			coverage.AddRow(id, report.Count(n), report.Percent(n, in.Len()))
			out.Append("All", id, table.FormatInt(in.Len()), table.FormatInt(n), percentCell(n, in.Len()))
		}
		s.AddTable(coverage)

		links := report.Section{Title: "Relationship Integrity", Header: []string{"Relationship", "Linked", "Total", "Percent"}}
		personCompany := in.FirstPresent(domain.ColPrimaryCompanyID, domain.ColPersonPrimaryCompany)
		for _, link := range []struct{ name, from, to string }{
			{"Deals with a company", domain.ColDealID, domain.ColCompanyID},
			{"Investors with a deal", domain.ColInvestorID, domain.ColDealID},
			{"Persons with a primary company", domain.ColPersonID, personCompany},
		} {
			if link.to == "" || !in.Has(link.from) || !in.Has(link.to) {
				continue
			}
			rows := in.Filter(func(row table.Row) bool { return !row.Empty(link.from) })
			linked := rows.NonEmpty(link.to)
			links.AddRow(link.name, report.Count(linked), report.Count(rows.Len()), report.Percent(linked, rows.Len()))
			s.AddCheck(link.name, linked == rows.Len(), report.Count(rows.Len()-linked)+" unlinked")
		}
		s.AddTable(links)

		for _, entity := range auditFields {
			if !in.Has(entity.id) {
				continue
			}
			rows := in.Filter(func(row table.Row) bool { return !row.Empty(entity.id) })
			sec := report.Section{
				Title:  entity.entity + " Fields (where " + entity.id + " exists)",
				Header: []string{"Field", "Non-empty", "Percent"},
			}
			for _, f := range entity.fields {
				if !rows.Has(f) {
					continue
				}
				n := rows.NonEmpty(f)
				sec.AddRow(f, report.Count(n), report.Percent(n, rows.Len()))
				out.Append(entity.entity, f, table.FormatInt(rows.Len()), table.FormatInt(n), percentCell(n, rows.Len()))
			}
			s.AddTable(sec)
		}

		if in.Has(domain.ColCompanyID) && in.Has(domain.ColCompanyName) {
			renamed := 0
			for _, g := range in.GroupBy(domain.ColCompanyID) {
				if g.Keys[0] != "" && g.Table.NUnique(domain.ColCompanyName) > 1 {
					renamed++
				}
			}
			s.AddMetric("Companies with multiple names", report.Count(renamed))
			if renamed > 0 {
				s.AddNote("Name variations for the same CompanyID are expected; matching uses IDs")
			}
		}
		return out, s, nil
	})
}

// CompareOptions configures CompareMissing.
type CompareOptions struct {
	// Key identifies rows across the two tables. Defaults to DealID.
	Key string
	// Threshold is the minimum missing-rate difference, in percentage
	// points, for a column to be reported. Defaults to 1.
	Threshold float64
	// Required lists the columns an observation needs to be usable. Lost
	// rows with all of them present are counted as recoverable.
	Required []string
}

func (o CompareOptions) withDefaults() CompareOptions {
	if o.Key == "" {
		o.Key = domain.ColDealID
	}
	if o.Threshold <= 0 {
		o.Threshold = 1
	}
	return o
}

// CompareMissing splits before into rows whose key survives in after and
// rows that were lost, and reports the columns whose missing rate differs
// between the two groups by more than the threshold, largest difference
// first.
func (r *Runner) CompareMissing(ctx context.Context, before, after *table.Table, opts CompareOptions) (*table.Table, *report.Summary, error) {
	opts = opts.withDefaults()
	return r.stage(ctx, StageCompareMissing, before.Len(), func(ctx context.Context) (*table.Table, *report.Summary, error) {
		if err := before.Require(opts.Key); err != nil {
			return nil, nil, err
		}
		if err := after.Require(opts.Key); err != nil {
			return nil, nil, err
		}

		keep := make(map[string]bool, after.Len())
		for _, k := range after.Column(opts.Key) {
			keep[k] = true
		}
		kept := before.Filter(func(row table.Row) bool { return keep[row.Get(opts.Key)] })
		lost := before.Filter(func(row table.Row) bool { return !keep[row.Get(opts.Key)] })

		type gap struct {
			col                  string
			lostMiss, keptMiss   int
			lostPct, keptPct, dp float64
		}
		var gaps []gap
		if lost.Len() > 0 && kept.Len() > 0 {
			for _, col := range before.Columns() {
				if col == opts.Key {
					continue
				}
				g := gap{
					col:      col,
					lostMiss: lost.Len() - lost.NonEmpty(col),
					keptMiss: kept.Len() - kept.NonEmpty(col),
				}
				g.lostPct = 100 * float64(g.lostMiss) / float64(lost.Len())
				g.keptPct = 100 * float64(g.keptMiss) / float64(kept.Len())
				g.dp = g.lostPct - g.keptPct
				if math.Abs(g.dp) > opts.Threshold {
					gaps = append(gaps, g)
				}
			}
		}
		slices.SortStableFunc(gaps, func(a, b gap) int {
			switch da, db := math.Abs(a.dp), math.Abs(b.dp); {
			case da > db:
				return -1
			case da < db:
				return 1
			}
			return 0
		})

		out := table.New(CompareColumns...)
		for _, g := range gaps {
			out.Append(g.col,
				table.FormatInt(g.lostMiss), pctCell(g.lostPct),
				table.FormatInt(g.keptMiss), pctCell(g.keptPct),
				pctCell(g.dp))
		}

		s := report.NewSummary("Lost Observations")
		s.AddMetric("Rows before", report.Count(before.Len()))
		s.AddMetric("Rows kept", report.Count(kept.Len())+" ("+report.Percent(kept.Len(), before.Len())+")")
		s.AddMetric("Rows lost", report.Count(lost.Len())+" ("+report.Percent(lost.Len(), before.Len())+")")
		s.AddMetric("Columns compared", report.Count(max(len(before.Columns())-1, 0)))
		s.AddMetric("Columns above threshold", report.Count(len(gaps)))

		sec := report.Section{Title: "Missing Rate: Lost vs Kept", Header: CompareColumns}
		for i := 0; i < out.Len(); i++ {
			sec.AddRow(out.Row(i).Get("Variable"),
				out.Get(i, "Lost_Missing"), out.Get(i, "Lost_Missing_Pct")+"%",
				out.Get(i, "Kept_Missing"), out.Get(i, "Kept_Missing_Pct")+"%",
				out.Get(i, "Difference"))
		}
		s.AddTable(sec)
		if len(gaps) > 0 && math.Abs(gaps[0].dp) > 10 {
			s.AddNote("%s is missing far more often among lost rows (%s pp)", gaps[0].col, report.Float(gaps[0].dp, 1))
		}

		if len(opts.Required) > 0 && lost.Len() > 0 {
			recoverable := lost
			steps := report.Section{Title: "Recoverable Lost Rows", Header: []string{"Required", "Remaining", "Dropped"}}
			for _, col := range opts.Required {
				if !recoverable.Has(col) {
					continue
				}
				next := recoverable.Filter(func(row table.Row) bool { return !row.Empty(col) })
				steps.AddRow(col, report.Count(next.Len()), report.Count(recoverable.Len()-next.Len()))
				recoverable = next
			}
			s.AddTable(steps)
			s.AddMetric("Recoverable lost rows", report.Count(recoverable.Len()))
		}
		return out, s, nil
	})
}

// Describe profiles every column of a dataset: fill rate, distinct values
// and, for numeric columns, the usual moments. It also reports the stage
// mix when the stage dummies are present and whether the university rank
// column holds raw or logged values.
func (r *Runner) Describe(ctx context.Context, in *table.Table) (*table.Table, *report.Summary, error) {
	return r.stage(ctx, StageDescribe, in.Len(), func(ctx context.Context) (*table.Table, *report.Summary, error) {
		out := table.New(ProfileColumns...)
		sparse := 0
		var numeric []string
		for _, col := range in.Columns() {
			nonEmpty := in.NonEmpty(col)
			missing := in.Len() - nonEmpty
			if in.Len() > 0 && float64(missing) > 0.5*float64(in.Len()) {
				sparse++
			}
			cells := []string{col, table.FormatInt(nonEmpty), table.FormatInt(missing),
				percentCell(missing, in.Len()), table.FormatInt(in.NUnique(col))}

			// A column is numeric when every non-empty cell parses.
			xs := in.Floats(col)
			d, ok := stats.Describe(xs)
			if ok && len(xs) == nonEmpty {
				std := ""
				if d.HasStd {
					std = table.FormatFloat(d.Std)
				}
				cells = append(cells, table.FormatFloat(d.Mean), std,
					table.FormatFloat(d.Min), table.FormatFloat(d.P50), table.FormatFloat(d.Max))
				numeric = append(numeric, col)
			} else {
				cells = append(cells, "", "", "", "", "")
			}
			out.Append(cells...)
		}

		s := report.NewSummary("Dataset Profile")
		s.AddMetric("Rows", report.Count(in.Len()))
		s.AddMetric("Columns", report.Count(len(in.Columns())))
		s.AddMetric("Numeric columns", report.Count(len(numeric)))
		s.AddMetric("Columns more than 50% missing", report.Count(sparse))
		s.AddTable(report.DescribeSection("Numeric Columns", in, numeric...))

		if in.Has(domain.ColStageSeed) && in.Has(domain.ColStageEarly) {
			seed := countOnes(in, domain.ColStageSeed)
			early := countOnes(in, domain.ColStageEarly)
			later := in.Filter(func(row table.Row) bool {
				a, okA := row.Float(domain.ColStageSeed)
				b, okB := row.Float(domain.ColStageEarly)
				return okA && okB && a == 0 && b == 0
			}).Len()
			stages := report.Section{Title: "Stage Distribution", Header: []string{"Stage", "Count", "Percent"}}
			stages.AddRow("Seed", report.Count(seed), report.Percent(seed, in.Len()))
			stages.AddRow("Early", report.Count(early), report.Percent(early, in.Len()))
			stages.AddRow("Later", report.Count(later), report.Percent(later, in.Len()))
			total := seed + early + later
			stages.AddRow("Total", report.Count(total), report.Percent(total, in.Len()))
			s.AddTable(stages)
			if other := in.Len() - total; other > 0 {
				s.AddNote("%s rows fit no stage category", report.Count(other))
			}
		}

		if rankCol := in.FirstPresent(domain.ColUniversityUSRankUnderscore, domain.ColUniversityUSRank); rankCol != "" {
			if top, ok := stats.Max(in.Floats(rankCol)); ok {
				switch {
				case top > 10:
					s.AddNote("%s holds raw ranks (max %s)", rankCol, report.Float(top, 2))
				case top <= 6:
					s.AddNote("%s looks logged (max %s, rank %s)", rankCol, report.Float(top, 4), report.Float(math.Exp(top), 1))
				default:
					s.AddNote("%s is ambiguous between raw and logged ranks (max %s)", rankCol, report.Float(top, 2))
				}
			}
		}
		return out, s, nil
	})
}

// percentCell renders part/whole as a plain number with two decimals for
// data files.
func percentCell(part, whole int) string {
	if whole == 0 {
		return "0.00"
	}
	return pctCell(100 * float64(part) / float64(whole))
}

func pctCell(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
