package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mkguldan/empirical/internal/errors"
	"github.com/mkguldan/empirical/pkg/contracts/domain"
)

func TestSingleFounders(t *testing.T) {
	r := newTestRunner(t)
	deals := build([]string{domain.ColDealID, domain.ColTeamSize, domain.ColTeamEducationGroup, domain.ColDealSizeNum},
		map[string]string{domain.ColDealID: "D1", domain.ColTeamSize: "1", domain.ColTeamEducationGroup: "Ivy", domain.ColDealSizeNum: "1000000"},
		map[string]string{domain.ColDealID: "D2", domain.ColTeamSize: "2", domain.ColTeamEducationGroup: "Top8", domain.ColDealSizeNum: "2000000"},
		map[string]string{domain.ColDealID: "D3", domain.ColTeamSize: "1", domain.ColTeamEducationGroup: "Other", domain.ColDealSizeNum: "3000000"},
		map[string]string{domain.ColDealID: "D4", domain.ColTeamSize: "1", domain.ColTeamEducationGroup: "Top8", domain.ColDealSizeNum: "4000000"},
	)
	founders := build([]string{domain.ColDealID, domain.ColPersonID, domain.ColEducationInstitute, domain.ColPersonFullName},
		map[string]string{domain.ColDealID: "D1", domain.ColPersonID: "P1", domain.ColEducationInstitute: "Harvard University", domain.ColPersonFullName: "Ann Lee"},
		map[string]string{domain.ColDealID: "D1", domain.ColPersonID: "P1", domain.ColEducationInstitute: "Harvard Law School", domain.ColPersonFullName: "Ann Lee"},
		map[string]string{domain.ColDealID: "D2", domain.ColPersonID: "P2", domain.ColEducationInstitute: "Stanford University", domain.ColPersonFullName: "Cy Park"},
		map[string]string{domain.ColDealID: "D4", domain.ColPersonID: "P4", domain.ColEducationInstitute: "Stanford University", domain.ColPersonFullName: "Bo Diaz"},
	)

	out, s, err := r.SingleFounders(context.Background(), deals, founders)
	require.NoError(t, err)

	assert.Equal(t, []string{"D1", "D3", "D4"}, out.Column(domain.ColDealID))
	assert.Equal(t, []string{"Harvard University", "", "Stanford University"}, out.Column(domain.ColUniversityName))
	assert.Equal(t, []string{"Ann Lee", "", "Bo Diaz"}, out.Column(domain.ColPersonFullName))
	assert.Equal(t, []string{"1", "0", "0"}, out.Column("Harvard"))
	assert.Equal(t, []string{"0", "0", "1"}, out.Column("Stanford"))
	assert.Equal(t, []string{"0", "0", "0"}, out.Column("Yale"))
	assert.False(t, out.Has(domain.ColEducationInstitute))

	failed := s.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "1 unmatched", failed[0].Detail)
	assert.Equal(t, "$2,666,667", metric(t, s, "Deal size mean"))
}

func TestSingleFoundersReplacesFounderColumns(t *testing.T) {
	r := newTestRunner(t)
	deals := build([]string{domain.ColDealID, domain.ColTeamSize, domain.ColUniversityName},
		map[string]string{domain.ColDealID: "D1", domain.ColTeamSize: "1", domain.ColUniversityName: "stale"},
	)
	founders := build([]string{domain.ColDealID, domain.ColEducationInstitute, domain.ColPersonFullName},
		map[string]string{domain.ColDealID: "D1", domain.ColEducationInstitute: "Yale University", domain.ColPersonFullName: "Ann Lee"},
	)

	out, _, err := r.SingleFounders(context.Background(), deals, founders)
	require.NoError(t, err)
	assert.Equal(t, []string{"Yale University"}, out.Column(domain.ColUniversityName))
	assert.Equal(t, []string{"1"}, out.Column("Yale"))
}

func TestEliteFounders(t *testing.T) {
	r := newTestRunner(t)
	header := []string{domain.ColDealID, domain.ColTeamEducationGroup, domain.ColDealSizeNum, domain.ColLogDealSize,
		domain.ColUniversityName, domain.ColAnyFemale, domain.ColStageSeed, domain.ColStageEarly, domain.ColStageLater}
	row := func(deal, group, female, seed string) map[string]string {
		return map[string]string{
			domain.ColDealID:             deal,
			domain.ColTeamEducationGroup: group,
			domain.ColDealSizeNum:        "1000000",
			domain.ColLogDealSize:        "13.5",
			domain.ColUniversityName:     "School " + deal,
			domain.ColAnyFemale:          female,
			domain.ColStageSeed:          seed,
			domain.ColStageEarly:         "0",
			domain.ColStageLater:         "0",
		}
	}
	in := build(header,
		row("D1", "Ivy", "1", "1"),
		row("D2", "Top8", "0", "0"),
		row("D3", "Other", "0", "1"),
		row("D4", "Ivy", "0", "0"),
	)

	out, s, err := r.EliteFounders(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"D1", "D2", "D4"}, out.Column(domain.ColDealID))
	assert.Equal(t, []string{"1", "0", "1"}, out.Column(domain.ColIvyVsTop8))
	assert.False(t, in.Has(domain.ColIvyVsTop8), "input must not change")

	assert.Equal(t, domain.ColTeamEducationGroup, metric(t, s, "Group column"))
	assert.Equal(t, "1", metric(t, s, "Dropped (Other schools)"))
	assert.Equal(t, "1 (33.33%)", metric(t, s, "Female founders"))

	byGroup, ok := s.Section("Deal Size by Group")
	require.True(t, ok)
	require.Len(t, byGroup.Rows, 2)
	assert.Equal(t, []string{"Ivy", "2", "66.67%", "$1,000,000", "$1,000,000", "13.500"}, byGroup.Rows[0])

	stages, ok := s.Section("Deal Stage Distribution")
	require.True(t, ok)
	assert.Equal(t, []string{"Seed", "1", "33.33%"}, stages.Rows[0])

	_, _, err = r.EliteFounders(context.Background(), build([]string{domain.ColDealID}))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
}
