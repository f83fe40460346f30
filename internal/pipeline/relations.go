package pipeline

import (
	"cmp"
	"slices"
	"time"

	"github.com/mkguldan/empirical/internal/report"
	"github.com/mkguldan/empirical/internal/stats"
	"github.com/mkguldan/empirical/internal/table"
	"github.com/mkguldan/empirical/internal/transform"
	"github.com/mkguldan/empirical/pkg/contracts/domain"
)

// addRelationControls adds the controls drawn from the vendor relation
// tables and returns the names of the 0/1 indicators it created.
//
// PersonDeals fills PersonID for deals that have none (first person listed
// for the deal) and gives Prior_Deal_Count, the number of the founder's
// affiliated deals dated before this one. BoardSeats gives
// Has_Board_Experience. DealInvestors gives Has_Top_Tier_VC and
// Syndicate_Size, the number of investor rows on the deal.
func (r *Runner) addRelationControls(t *table.Table, src ControlSources, s *report.Summary) ([]string, error) {
	var indicators []string

	if src.PersonDeals != nil {
		if err := src.PersonDeals.Require(domain.ColDealID, domain.ColPersonID, domain.ColRelationDealDate); err != nil {
			return nil, err
		}
		firstPerson := make(map[string]string)
		for _, row := range src.PersonDeals.Select(domain.ColDealID, domain.ColPersonID).Records() {
			if _, ok := firstPerson[row[0]]; !ok && row[1] != "" {
				firstPerson[row[0]] = row[1]
			}
		}
		mapped := 0
		t.AddColumn(domain.ColPersonID, func(row table.Row) string {
			if p := row.Get(domain.ColPersonID); p != "" {
				return p
			}
			if p, ok := firstPerson[row.Get(domain.ColDealID)]; ok {
				mapped++
				return p
			}
			return ""
		})
		s.AddMetric("PersonIDs mapped from affiliations", report.Count(mapped))
	}

	if src.BoardSeats != nil {
		if err := src.BoardSeats.Require(domain.ColPersonID); err != nil {
			return nil, err
		}
		if !t.Has(domain.ColPersonID) {
			s.AddNote("No PersonID column; board experience not created")
		} else {
			board := make(map[string]bool)
			for _, p := range src.BoardSeats.Column(domain.ColPersonID) {
				if p != "" {
					board[p] = true
				}
			}
			t.AddColumn(domain.ColHasBoardExperience, func(row table.Row) string {
				return table.Bool(board[row.Get(domain.ColPersonID)])
			})
			indicators = append(indicators, domain.ColHasBoardExperience)
		}
	}

	if src.DealInvestors != nil {
		if err := src.DealInvestors.Require(domain.ColDealID, domain.ColInvestorName); err != nil {
			return nil, err
		}
		topTier := make(map[string]bool)
		syndicate := make(map[string]int)
		for _, row := range src.DealInvestors.Select(domain.ColDealID, domain.ColInvestorName).Records() {
			syndicate[row[0]]++
			if r.classifier.IsTopTierInvestor(row[1]) {
				topTier[row[0]] = true
			}
		}
		t.AddColumn(domain.ColHasTopTierVC, func(row table.Row) string {
			return table.Bool(topTier[row.Get(domain.ColDealID)])
		})
		t.AddColumn(domain.ColSyndicateSizeControl, func(row table.Row) string {
			return table.FormatInt(syndicate[row.Get(domain.ColDealID)])
		})
		indicators = append(indicators, domain.ColHasTopTierVC)
		if mean, ok := stats.Mean(t.Floats(domain.ColSyndicateSizeControl)); ok {
			s.AddMetric("Mean syndicate size", report.Float(mean, 2))
		}
	}

	if src.PersonDeals != nil {
		prior := priorDealCounts(src.PersonDeals)
		t.AddColumn(domain.ColPriorDealCount, func(row table.Row) string {
			return table.FormatInt(prior[dealPerson{row.Get(domain.ColDealID), row.Get(domain.ColPersonID)}])
		})
		if mean, ok := stats.Mean(t.Floats(domain.ColPriorDealCount)); ok {
			s.AddMetric("Mean prior deal count", report.Float(mean, 2))
		}
	}

	return indicators, nil
}

type dealPerson struct {
	deal, person string
}

// priorDealCounts numbers each person's affiliated deals in date order from
// zero. Undated deals sort after dated ones in file order, and a repeated
// deal/person pair keeps its first number.
func priorDealCounts(rel *table.Table) map[dealPerson]int {
	type entry struct {
		key   dealPerson
		date  time.Time
		dated bool
	}
	entries := make([]entry, 0, rel.Len())
	for i := 0; i < rel.Len(); i++ {
		row := rel.Row(i)
		date, ok := transform.ParseDate(row.Get(domain.ColRelationDealDate))
		entries = append(entries, entry{
			key:   dealPerson{row.Get(domain.ColDealID), row.Get(domain.ColPersonID)},
			date:  date,
			dated: ok,
		})
	}
	slices.SortStableFunc(entries, func(a, b entry) int {
		if c := cmp.Compare(a.key.person, b.key.person); c != 0 {
			return c
		}
		if a.dated != b.dated {
			if a.dated {
				return -1
			}
			return 1
		}
		return a.date.Compare(b.date)
	})

	counts := make(map[dealPerson]int, len(entries))
	n := 0
	for i, e := range entries {
		if i == 0 || e.key.person != entries[i-1].key.person {
			n = 0
		}
		if _, ok := counts[e.key]; !ok {
			counts[e.key] = n
		}
		n++
	}
	return counts
}
