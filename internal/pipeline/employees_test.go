package pipeline

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mkguldan/empirical/internal/errors"
	"github.com/mkguldan/empirical/internal/table"
	"github.com/mkguldan/empirical/pkg/contracts/domain"
)

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestLaggedCount(t *testing.T) {
	deal := mustDate("2020-07-01")
	tests := []struct {
		name      string
		history   []headcount
		wantCount string
		wantDays  int
		wantFound bool
	}{
		{
			name: "preferred window beats closer observation",
			history: []headcount{
				{mustDate("2020-06-20"), "40"},
				{mustDate("2020-04-01"), "30"},
				{mustDate("2020-02-01"), "25"},
			},
			wantCount: "30", wantDays: 91, wantFound: true,
		},
		{
			name: "closest within two years when window is empty",
			history: []headcount{
				{mustDate("2019-01-01"), "8"},
				{mustDate("2020-06-25"), "12"},
			},
			wantCount: "12", wantDays: 6, wantFound: true,
		},
		{
			name: "same day and later observations ignored",
			history: []headcount{
				{mustDate("2020-07-01"), "50"},
				{mustDate("2020-09-01"), "60"},
			},
		},
		{
			name:    "too old",
			history: []headcount{{mustDate("2017-01-01"), "5"}},
		},
		{
			name: "ties keep the first observation",
			history: []headcount{
				{mustDate("2020-05-01"), "first"},
				{mustDate("2020-05-01"), "second"},
			},
			wantCount: "first", wantDays: 61, wantFound: true,
		},
		{name: "no history"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc, days, found := laggedCount(tt.history, deal)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.wantCount, hc.count)
			assert.Equal(t, tt.wantDays, days)
		})
	}
}

func lagInput() *table.Table {
	header := []string{domain.ColDealID, domain.ColCompanyID, domain.ColDealDate, domain.ColDealYear,
		domain.ColCompanyEmployees, domain.ColLnEmployees, domain.ColEmployeesMissing}
	row := func(deal, company, dealDate, employees string) map[string]string {
		return map[string]string{
			domain.ColDealID:           deal,
			domain.ColCompanyID:        company,
			domain.ColDealDate:         dealDate,
			domain.ColDealYear:         "2020",
			domain.ColCompanyEmployees: employees,
			domain.ColLnEmployees:      "",
			domain.ColEmployeesMissing: "0",
		}
	}
	return build(header,
		row("D1", "C1", "01/07/2020", "60"),
		row("D2", "C2", "01/07/2020", "24"),
		row("D3", "C3", "01/07/2020", "10"),
		row("D4", "C4", "", "10"),
	)
}

func employeeHistory() *table.Table {
	header := []string{domain.ColCompanyID, domain.ColCoreDate, domain.ColCoreEmployeeCount}
	obs := func(company, day, count string) map[string]string {
		return map[string]string{domain.ColCompanyID: company, domain.ColCoreDate: day, domain.ColCoreEmployeeCount: count}
	}
	return build(header,
		obs("C1", "2020-06-20", "40"),
		obs("C1", "2020-04-01", "30"),
		obs("C1", "2020-08-01", "99"),
		obs("C2", "2020-06-25", "12"),
		obs("C2", "2018-01-01", "5"),
		obs("C3", "2017-01-01", "3"),
		obs("C4", "2020-06-01", "7"),
		obs("", "2020-06-01", "1"),
	)
}

func TestLagEmployees(t *testing.T) {
	r := newTestRunner(t)
	in := lagInput()

	out, s, err := r.LagEmployees(context.Background(), in, employeeHistory(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"30", "12", "", ""}, out.Column(domain.ColEmployeesLagged))
	assert.Equal(t, []string{"91", "6", "", ""}, out.Column(domain.ColEmployeesLagDays))
	assert.Equal(t, []string{"0", "0", "1", "1"}, out.Column(domain.ColEmployeesMissingLagged))

	logs := out.Floats(domain.ColLnEmployeesLagged)
	require.Len(t, logs, 4)
	assert.InDelta(t, math.Log(30), logs[0], 1e-9)
	assert.InDelta(t, math.Log(12), logs[1], 1e-9)
	median := (math.Log(30) + math.Log(12)) / 2
	assert.InDelta(t, median, logs[2], 1e-9)
	assert.InDelta(t, median, logs[3], 1e-9)

	assert.False(t, out.Has(domain.ColCompanyEmployees))
	assert.Equal(t, []string{"60", "24", "10", "10"}, out.Column(domain.ColCompanyEmployees+domain.SnapshotSuffix))
	assert.True(t, out.Has(domain.ColLnEmployees+domain.SnapshotSuffix))
	assert.True(t, out.Has(domain.ColEmployeesMissing+domain.SnapshotSuffix))
	assert.True(t, in.Has(domain.ColCompanyEmployees), "input must not change")

	assert.Equal(t, "2 (50.00%)", metric(t, s, "Deals with lagged employee count"))
	assert.Equal(t, "2", metric(t, s, "ln_Employees_Lagged imputed with median"))
	assert.Equal(t, "100.0%", metric(t, s, "Mean growth to snapshot"))
	coverage, ok := s.Section("Coverage by Deal Year")
	require.True(t, ok)
	assert.Equal(t, [][]string{{"2020", "4", "2", "50.0"}}, coverage.Rows)
}

func TestLagEmployeesCoreDealDates(t *testing.T) {
	r := newTestRunner(t)
	in := lagInput().Drop(domain.ColDealDate)
	core := build([]string{domain.ColDealID, domain.ColCoreDealDate},
		map[string]string{domain.ColDealID: "D4", domain.ColCoreDealDate: "2020-07-01"},
	)

	out, _, err := r.LagEmployees(context.Background(), in, employeeHistory(), core)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "", "", "7"}, out.Column(domain.ColEmployeesLagged))
	assert.Equal(t, []string{"", "", "", "30"}, out.Column(domain.ColEmployeesLagDays))

	_, _, err = r.LagEmployees(context.Background(), in, employeeHistory(), nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))

	_, _, err = r.LagEmployees(context.Background(), lagInput(), table.New(domain.ColCompanyID, domain.ColCoreDate), nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
}
