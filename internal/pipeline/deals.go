package pipeline

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/mkguldan/empirical/internal/classify"
	apperrors "github.com/mkguldan/empirical/internal/errors"
	"github.com/mkguldan/empirical/internal/report"
	"github.com/mkguldan/empirical/internal/stats"
	"github.com/mkguldan/empirical/internal/table"
	"github.com/mkguldan/empirical/internal/transform"
	"github.com/mkguldan/empirical/pkg/contracts/domain"
)

// shareTolerance bounds |Share_Ivy + Share_Top8 + Share_Other - 1|.
const shareTolerance = 1e-9

var dealLevelInputs = []string{
	domain.ColCompanyID, domain.ColDealID, domain.ColPersonID,
	domain.ColCompanyHQState, domain.ColDealDate, domain.ColDealSize,
	domain.ColUniversityGroup, domain.ColPersonGender, domain.ColEducationCategory,
}

// teamColumns are computed from every founder of a deal.
var teamColumns = []string{
	domain.ColDealID, domain.ColTeamSize,
	domain.ColShareIvy, domain.ColShareTop8, domain.ColShareOther,
	domain.ColAnyIvy, domain.ColAnyTop8, domain.ColTeamEducationGroup, domain.ColMaxPedigree,
	domain.ColFemaleShare, domain.ColAnyFemale, domain.ColTeamGender,
	domain.ColTeamMajorDominant, domain.ColTeamSTEMShare, domain.ColTeamBusinessShare, domain.ColAnyCS,
	domain.ColMaxEducationRank, domain.ColMaxEducation,
	domain.ColSyndicateSize, domain.ColInvestorMissing,
}

// firstRowColumns are company and deal attributes, constant within a deal,
// taken from its first founder row.
var firstRowColumns = []string{
	domain.ColCompanyID, domain.ColCompanyName, domain.ColCompanyEmployees,
	domain.ColLogEmployees, domain.ColEmployeesMissing, domain.ColCompanyYearFounded,
	domain.ColCompanyIndustrySector, domain.ColCompanyIndustryGroup,
	domain.ColCompanyHQCity, domain.ColCompanyHQState,
	domain.ColDealDate, domain.ColDealYear, domain.ColDealSize, domain.ColDealSizeNum,
	domain.ColLogDealSize, domain.ColDealStatus, domain.ColDealType, domain.ColDealClass,
	domain.ColDealBusinessStatus, domain.ColDealSiteLocation, domain.ColAgeAtDeal,
}

// DealLevel turns founder rows into one row per US deal with team
// composition variables, company controls and stage dummies.
func (r *Runner) DealLevel(ctx context.Context, in *table.Table) (*table.Table, *report.Summary, error) {
	return r.stage(ctx, StageDealLevel, in.Len(), func(ctx context.Context) (*table.Table, *report.Summary, error) {
		if err := in.Require(dealLevelInputs...); err != nil {
			return nil, nil, err
		}

		us := in.Filter(func(row table.Row) bool {
			return r.classifier.IsUSState(row.Get(domain.ColCompanyHQState))
		})
		nonUS := in.Filter(func(row table.Row) bool {
			return !r.classifier.IsUSState(row.Get(domain.ColCompanyHQState))
		})

		us.AddColumn(domain.ColDealYear, func(row table.Row) string {
			if t, ok := transform.ParseDealDate(row.Get(domain.ColDealDate)); ok {
				return strconv.Itoa(t.Year())
			}
			return ""
		})
		dated := us.Filter(func(row table.Row) bool { return !row.Empty(domain.ColDealYear) })

		dated.AddColumn(domain.ColDealSizeNum, func(row table.Row) string {
			if v, ok := transform.ParseCurrency(row.Get(domain.ColDealSize)); ok {
				return table.FormatFloat(v)
			}
			return ""
		})
		sized := dated.Filter(func(row table.Row) bool { return !row.Empty(domain.ColDealSizeNum) })
		if sized.Len() == 0 {
			return nil, nil, apperrors.NewValidationError("no US deals with a date and a deal size").
				WithContext("rows_in", in.Len())
		}

		r.addFounderControls(sized)

		out := table.New(r.dealHeader()...)
		for _, g := range sized.GroupBy(domain.ColDealID) {
			if g.Keys[0] == "" {
				continue
			}
			out.AppendMap(r.collapseDeal(g.Table))
		}

		s := r.dealLevelSummary(dealLevelCounts{
			in: in, nonUS: nonUS, us: us, dated: dated, sized: sized, out: out,
		})
		return out, s, nil
	})
}

// addFounderControls adds the founder-level derived columns in place.
func (r *Runner) addFounderControls(t *table.Table) {
	t.AddColumn(domain.ColLogDealSize, func(row table.Row) string {
		return transform.LogCell(row.Get(domain.ColDealSizeNum))
	})
	t.AddColumn(domain.ColEmployeesMissing, func(row table.Row) string {
		_, ok := row.Float(domain.ColCompanyEmployees)
		return table.Bool(!ok)
	})
	t.AddColumn(domain.ColLogEmployees, func(row table.Row) string {
		return transform.LogCell(row.Get(domain.ColCompanyEmployees))
	})
	t.AddColumn(domain.ColAgeAtDeal, func(row table.Row) string {
		year, okYear := row.Float(domain.ColDealYear)
		founded, okFounded := row.Float(domain.ColCompanyYearFounded)
		if !okYear || !okFounded {
			return ""
		}
		return table.FormatFloat(year - founded)
	})
	majorCol := t.FirstPresent(domain.ColEducationMajorConc, domain.ColEducationMajor)
	t.AddColumn(domain.ColMajorCategory, func(row table.Row) string {
		return string(classify.Major(row.Get(majorCol)))
	})
	t.AddColumn(domain.ColEducationRank, func(row table.Row) string {
		return strconv.Itoa(classify.EducationRank(row.Get(domain.ColEducationCategory)))
	})
}

func (r *Runner) dealHeader() []string {
	header := slices.Clone(teamColumns)
	header = append(header, firstRowColumns...)
	for _, st := range r.classifier.Stages() {
		header = append(header, st.Column)
	}
	return append(header, domain.ColStageOrder, domain.ColRegion, domain.ColShareSum)
}

// collapseDeal computes one deal row from the deal's founder rows.
func (r *Runner) collapseDeal(g *table.Table) map[string]string {
	row := make(map[string]string, len(teamColumns)+len(firstRowColumns))
	first := g.Row(0)
	row[domain.ColDealID] = first.Get(domain.ColDealID)

	size := g.NUnique(domain.ColPersonID)
	row[domain.ColTeamSize] = strconv.Itoa(size)

	var ivy, top8, other, female, male, stem, business int
	anyCS := false
	maxRank := 0
	for i := 0; i < g.Len(); i++ {
		founder := g.Row(i)
		switch domain.UniversityGroup(founder.Get(domain.ColUniversityGroup)) {
		case domain.GroupIvy:
			ivy++
		case domain.GroupTop8:
			top8++
		case domain.GroupOther:
			other++
		}
		switch founder.Get(domain.ColPersonGender) {
		case "Female":
			female++
		case "Male":
			male++
		}
		major := domain.MajorCategory(founder.Get(domain.ColMajorCategory))
		if major.IsSTEM() {
			stem++
		}
		if major == domain.MajorBusinessEcon {
			business++
		}
		anyCS = anyCS || major == domain.MajorCSEngineering
		if rank, err := strconv.Atoi(founder.Get(domain.ColEducationRank)); err == nil {
			maxRank = max(maxRank, rank)
		}
	}

	share := func(n int) string {
		if size == 0 {
			return ""
		}
		return table.FormatFloat(float64(n) / float64(size))
	}
	row[domain.ColShareIvy] = share(ivy)
	row[domain.ColShareTop8] = share(top8)
	row[domain.ColShareOther] = share(other)
	if size > 0 {
		row[domain.ColShareSum] = table.FormatFloat(float64(ivy+top8+other) / float64(size))
	}
	row[domain.ColAnyIvy] = table.Bool(ivy > 0)
	row[domain.ColAnyTop8] = table.Bool(top8 > 0)

	group := domain.GroupOther
	switch {
	case ivy > 0:
		group = domain.GroupIvy
	case top8 > 0:
		group = domain.GroupTop8
	}
	row[domain.ColTeamEducationGroup] = string(group)
	row[domain.ColMaxPedigree] = strconv.Itoa(group.Pedigree())

	row[domain.ColFemaleShare] = share(female)
	row[domain.ColAnyFemale] = table.Bool(female > 0)
	row[domain.ColTeamGender] = string(teamGender(size, female, male))

	dominant := string(domain.MajorMissing)
	if counts := g.ValueCounts(domain.ColMajorCategory); len(counts) > 0 {
		dominant = counts[0].Value
	}
	row[domain.ColTeamMajorDominant] = dominant
	row[domain.ColTeamSTEMShare] = share(stem)
	row[domain.ColTeamBusinessShare] = share(business)
	row[domain.ColAnyCS] = table.Bool(anyCS)
	row[domain.ColMaxEducationRank] = strconv.Itoa(maxRank)
	row[domain.ColMaxEducation] = classify.RankLabel(maxRank)

	investors := g.NUnique(domain.ColInvestorID)
	row[domain.ColSyndicateSize] = strconv.Itoa(investors)
	row[domain.ColInvestorMissing] = table.Bool(g.NonEmpty(domain.ColInvestorID) == 0)

	for _, col := range firstRowColumns {
		row[col] = first.Get(col)
	}

	dealType := first.Get(domain.ColDealType)
	for _, st := range r.classifier.Stages() {
		row[st.Column] = table.Bool(dealType == st.DealType)
	}
	if order, ok := r.classifier.StageOrder(dealType); ok {
		row[domain.ColStageOrder] = strconv.Itoa(order)
	}
	row[domain.ColRegion] = r.classifier.Region(first.Get(domain.ColCompanyHQState))
	return row
}

func teamGender(size, female, male int) domain.TeamGender {
	if size == 1 {
		if female == 1 {
			return domain.TeamSingleFemale
		}
		return domain.TeamSingleMale
	}
	switch {
	case female == size:
		return domain.TeamAllFemale
	case male == size:
		return domain.TeamAllMale
	default:
		return domain.TeamMixed
	}
}

type dealLevelCounts struct {
	in, nonUS, us, dated, sized, out *table.Table
}

func (r *Runner) dealLevelSummary(c dealLevelCounts) *report.Summary {
	s := report.NewSummary("Deal-Level Dataset")
	out := c.out

	initial := report.Section{
		Title:  "Sample Composition",
		Header: []string{"Level", "Rows", "Companies", "Deals", "Founders"},
	}
	initial.AddRow("Initial (founder-level)", report.Count(c.in.Len()),
		report.Count(c.in.NUnique(domain.ColCompanyID)), report.Count(c.in.NUnique(domain.ColDealID)),
		report.Count(c.in.NUnique(domain.ColPersonID)))
	initial.AddRow("Final (deal-level)", report.Count(out.Len()),
		report.Count(out.NUnique(domain.ColCompanyID)), report.Count(out.NUnique(domain.ColDealID)), "")
	s.AddTable(initial)

	steps := report.Section{
		Title:  "Filtering Steps",
		Header: []string{"Step", "Result"},
	}
	steps.AddRow("Geography filter (US only)", "kept "+report.Count(c.us.Len())+" founder observations")
	steps.AddRow("Deal year filter", "excluded "+report.Count(c.us.Len()-c.dated.Len())+" with missing Deal_Year")
	steps.AddRow("Deal size filter", "excluded "+report.Count(c.dated.Len()-c.sized.Len())+" with missing or zero deal size")
	steps.AddRow("Collapse to deal level", report.Count(c.sized.Len())+" founder observations into "+report.Count(out.Len())+" deals")
	s.AddTable(steps)
	if c.nonUS.Len() > 0 {
		s.AddTable(report.ValueCountsSection("Excluded Non-US Locations", c.nonUS, domain.ColCompanyHQState, 10))
	}

	sizes := out.Floats(domain.ColDealSizeNum)
	if mean, ok := stats.Mean(sizes); ok {
		median, _ := stats.Median(sizes)
		lo, _ := stats.Min(sizes)
		hi, _ := stats.Max(sizes)
		s.AddMetric("Deal size mean", wholeDollars(mean))
		s.AddMetric("Deal size median", wholeDollars(median))
		s.AddMetric("Deal size range", wholeDollars(lo)+" - "+wholeDollars(hi))
	}
	if mean, ok := stats.Mean(out.Floats(domain.ColTeamSize)); ok {
		s.AddMetric("Mean TeamSize", report.Float(mean, 2))
	}
	for _, col := range []string{domain.ColShareIvy, domain.ColShareTop8, domain.ColFemaleShare} {
		if mean, ok := stats.Mean(out.Floats(col)); ok {
			s.AddMetric("Mean "+col, fmt.Sprintf("%s (%s%%)", report.Float(mean, 3), report.Float(mean*100, 1)))
		}
	}

	s.AddTable(report.ValueCountsSection("Education Group Distribution", out, domain.ColTeamEducationGroup, 0))
	s.AddTable(report.ValueCountsSection("Team Gender", out, domain.ColTeamGender, 0))
	s.AddTable(report.ValueCountsSection("Stage Distribution", out, domain.ColDealType, 0))
	s.AddTable(report.ValueCountsSection("Region Distribution", out, domain.ColRegion, 0))

	maxDev := 0.0
	for _, v := range out.Floats(domain.ColShareSum) {
		maxDev = math.Max(maxDev, math.Abs(v-1))
	}
	s.AddCheck("Share variables sum to 1", maxDev <= shareTolerance, "max deviation "+strconv.FormatFloat(maxDev, 'g', 3, 64))

	maxDeals := 0
	for _, g := range out.GroupBy(domain.ColCompanyID) {
		maxDeals = max(maxDeals, g.Table.NUnique(domain.ColDealID))
	}
	s.AddCheck("1:1 mapping CompanyID to DealID", maxDeals <= 1, "max deals per company "+strconv.Itoa(maxDeals))

	missing := report.Section{
		Title:  "Missing Values in Key Variables",
		Header: []string{"Variable", "Missing"},
	}
	for _, col := range []string{domain.ColLogDealSize, domain.ColDealYear, domain.ColTeamEducationGroup,
		domain.ColRegion, domain.ColLogEmployees, domain.ColAgeAtDeal} {
		missing.AddRow(col, report.Count(out.Len()-out.NonEmpty(col)))
	}
	s.AddTable(missing)
	return s
}

func wholeDollars(v float64) string {
	return "$" + transform.Decimal(v, 0)
}

// PreparationLog wraps the DealLevel summary in the data preparation log
// written next to the deal-level file.
func PreparationLog(s *report.Summary) *report.Document {
	doc := report.NewDocument("Data Preparation Log")
	doc.Intro = []string{
		"Founder-level observations restricted to US headquarters, dated deals and deals with a positive size, " +
			"collapsed to one row per deal. Team variables are computed over all founders of a deal; " +
			"company and deal attributes come from the deal's first founder row.",
	}
	doc.Add(s)
	return doc
}
