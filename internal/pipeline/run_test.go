package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkguldan/empirical/internal/config"
	apperrors "github.com/mkguldan/empirical/internal/errors"
	"github.com/mkguldan/empirical/internal/exporter"
	"github.com/mkguldan/empirical/internal/infrastructure"
	"github.com/mkguldan/empirical/pkg/contracts/domain"
)

func writeMaster(t *testing.T, dir string) {
	t.Helper()
	header := append([]string{}, founderDealColumns...)
	header = append(header, domain.ColDealSize, domain.ColPersonGender, domain.ColPersonFullName,
		domain.ColEducationInstitute, domain.ColEducationDegree, domain.ColCompanyHQState)
	row := func(company, stage, school, degree, state string) map[string]string {
		return map[string]string{
			domain.ColCompanyID:           company,
			domain.ColPersonID:            "P" + company,
			domain.ColDealID:              "D" + company,
			domain.ColDealType:            stage,
			domain.ColDealType2:           "Series A",
			domain.ColDealClass:           "Venture Capital",
			domain.ColInvestorDealType:    stage,
			domain.ColPersonPositionLevel: "Founder",
			domain.ColDealDate:            "2020-03-15",
			domain.ColInvestorDealSize:    "1.5",
			domain.ColDealSize:            "1.5",
			domain.ColPersonGender:        "Female",
			domain.ColPersonFullName:      "Founder " + company,
			domain.ColEducationInstitute:  school,
			domain.ColEducationDegree:     degree,
			domain.ColCompanyHQState:      state,
		}
	}
	master := build(header,
		row("C1", "Early Stage VC", "Harvard University", "MBA", "California"),
		row("C2", "Seed Round", "Stanford University", "PhD", "New York"),
		row("C3", "Later Stage VC", "Ohio State University", "BS", "Texas"),
	)
	w := exporter.NewCSVWriter(infrastructure.NewLogger(io.Discard, "error", false))
	require.NoError(t, w.Write(filepath.Join(dir, "master_file.csv"), master, false))
}

func newTestChain(t *testing.T, dir string) *Chain {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DataDir = dir
	cfg.Paths.ReportsDir = filepath.Join(dir, "reports")
	cfg.Export.Formats = []string{"csv"}
	logger := infrastructure.NewLogger(io.Discard, "error", false)
	return NewChain(NewRunner(nil, nil, logger), testLoader(), exporter.New(exporter.Options{}, logger), cfg, logger)
}

func TestChainRun(t *testing.T) {
	dir := t.TempDir()
	writeMaster(t, dir)
	c := newTestChain(t, dir)

	results, err := c.Run(context.Background(), "master_file.csv")
	require.NoError(t, err)
	require.Len(t, results, 8)

	stages := make([]string, len(results))
	for i, res := range results {
		stages[i] = res.Stage
		require.NotNil(t, res.Summary)
		for _, path := range res.Outputs {
			assert.FileExists(t, path)
		}
	}
	assert.Equal(t, []string{
		StageFounderDeals, StageRequireSize, StageClean, StageCategorize,
		StageGroups, StageDealLevel, StageSingleFounders, StageEliteFounders,
	}, stages)

	assert.Equal(t, 3, results[0].Rows)
	assert.Equal(t, 3, results[5].Rows)
	assert.Equal(t, 3, results[6].Rows)
	assert.Equal(t, 2, results[7].Rows)

	assert.FileExists(t, filepath.Join(dir, OutputEliteFounders+".csv"))
	assert.FileExists(t, filepath.Join(dir, OutputEliteFounders+exporter.SummarySuffix+".csv"))
	for _, doc := range []string{DocPreparationLog, DocSingleNotes, DocEliteNotes} {
		data, err := os.ReadFile(filepath.Join(dir, "reports", doc))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "# "), doc)
	}

	elite, err := c.Load(context.Background(), OutputEliteFounders+".csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"DC1", "DC2"}, elite.Column(domain.ColDealID))
	assert.Equal(t, []string{"1", "0"}, elite.Column(domain.ColIvyVsTop8))
}

func TestChainRunMissingInput(t *testing.T) {
	c := newTestChain(t, t.TempDir())
	results, err := c.Run(context.Background(), "absent.csv")
	assert.Empty(t, results)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestChainSaveStripsExtension(t *testing.T) {
	dir := t.TempDir()
	c := newTestChain(t, dir)
	paths, err := c.Save(context.Background(), "out.xlsx", build([]string{"a"}, map[string]string{"a": "1"}), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "out.csv")}, paths)
}

func TestChainLoadOptional(t *testing.T) {
	dir := t.TempDir()
	c := newTestChain(t, dir)
	ctx := context.Background()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "core_tables"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "core_tables", "DealInvestorRelation.csv"),
		[]byte("DealID,InvestorName\nD1,Accel\n"), 0644))

	tbl, err := c.LoadOptional(ctx, "core_tables/DealInvestorRelation.csv")
	require.NoError(t, err)
	require.NotNil(t, tbl)
	assert.Equal(t, []string{"Accel"}, tbl.Column(domain.ColInvestorName))

	for _, name := range []string{"", "other_tables/PersonBoardSeatRelation.csv"} {
		tbl, err := c.LoadOptional(ctx, name)
		require.NoError(t, err, name)
		assert.Nil(t, tbl, name)
	}
}
