package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mkguldan/empirical/internal/config"
	"github.com/mkguldan/empirical/internal/exporter"
	"github.com/mkguldan/empirical/internal/ingest"
	"github.com/mkguldan/empirical/internal/report"
	"github.com/mkguldan/empirical/internal/table"
)

// Output names of the chained run, in stage order.
const (
	OutputFounderDeals   = "founder_vc_analysis"
	OutputFinal          = "founder_vc_final"
	OutputCleaned        = "founder_vc_cleaned"
	OutputFormatted      = "founder_vc_final_formatted"
	OutputWithGroups     = "founder_vc_final_formatted_with_groups"
	OutputDealLevel      = "deal_level_analysis"
	OutputSingleFounders = "deal_level_analysis_single_founders"
	OutputEliteFounders  = "deal_level_analysis_single_founders_elite"

	DocPreparationLog = "data_preparation_log.md"
	DocSingleNotes    = "single_founder_dataset_notes.md"
	DocEliteNotes     = "elite_single_founder_dataset_notes.md"
)

// StepResult records one completed step of a run.
type StepResult struct {
	Stage   string
	Outputs []string
	Rows    int
	Summary *report.Summary
}

// Chain connects the stages to files: it resolves names against the
// configured directories, reads inputs and writes every output in the
// configured formats together with its summary.
type Chain struct {
	runner   *Runner
	loader   *ingest.Loader
	exporter *exporter.Exporter
	cfg      *config.Config
	logger   *slog.Logger
}

// NewChain creates a chain.
func NewChain(runner *Runner, loader *ingest.Loader, exp *exporter.Exporter, cfg *config.Config, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		runner:   runner,
		loader:   loader,
		exporter: exp,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "chain")),
	}
}

// Runner returns the stage runner.
func (c *Chain) Runner() *Runner {
	return c.runner
}

// Loader returns the file loader.
func (c *Chain) Loader() *ingest.Loader {
	return c.loader
}

// Exporter returns the output writer.
func (c *Chain) Exporter() *exporter.Exporter {
	return c.exporter
}

// Load reads name, resolved against the data directory.
func (c *Chain) Load(ctx context.Context, name string) (*table.Table, error) {
	t, _, err := c.loader.Load(ctx, c.cfg.DataPath(name))
	return t, err
}

// LoadOptional reads name when it is set and the file exists. A missing file
// is logged as a warning and yields a nil table so the caller can skip what
// depends on it.
func (c *Chain) LoadOptional(ctx context.Context, name string) (*table.Table, error) {
	if name == "" {
		return nil, nil
	}
	path := c.cfg.DataPath(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		c.logger.WarnContext(ctx, "Optional input not found, skipping",
			slog.String("path", path))
		return nil, nil
	}
	return c.Load(ctx, name)
}

// Save writes t as name in every configured format, plus the summary CSV
// when s is not nil. Any extension on name is ignored.
func (c *Chain) Save(ctx context.Context, name string, t *table.Table, s *report.Summary) ([]string, error) {
	base := c.cfg.DataPath(strings.TrimSuffix(name, filepath.Ext(name)))
	paths, err := c.exporter.WriteAll(ctx, base, t, c.cfg.Export.Formats)
	if err != nil {
		return nil, err
	}
	if s != nil {
		path, err := c.exporter.WriteSummary(base, s)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// SaveDocument writes a Markdown document into the reports directory.
func (c *Chain) SaveDocument(name string, doc exporter.MarkdownDocument) (string, error) {
	path := c.cfg.ReportPath(name)
	return path, c.exporter.WriteMarkdown(path, doc)
}

// Run executes the founder-to-elite chain on the master file at input and
// writes each intermediate dataset. It stops at the first failing stage and
// returns the steps completed so far.
func (c *Chain) Run(ctx context.Context, input string) ([]StepResult, error) {
	start := time.Now()
	var results []StepResult

	save := func(stage, name string, t *table.Table, s *report.Summary) error {
		paths, err := c.Save(ctx, name, t, s)
		if err != nil {
			return err
		}
		results = append(results, StepResult{Stage: stage, Outputs: paths, Rows: t.Len(), Summary: s})
		return nil
	}

	master, err := c.Load(ctx, input)
	if err != nil {
		return nil, err
	}

	founders, s, err := c.runner.FounderDeals(ctx, master)
	if err != nil {
		return results, err
	}
	if err := save(StageFounderDeals, OutputFounderDeals, founders, s); err != nil {
		return results, err
	}

	final, s, err := c.runner.RequireSizeAndEducation(ctx, founders)
	if err != nil {
		return results, err
	}
	if err := save(StageRequireSize, OutputFinal, final, s); err != nil {
		return results, err
	}

	cleaned, s, err := c.runner.Clean(ctx, final)
	if err != nil {
		return results, err
	}
	if err := save(StageClean, OutputCleaned, cleaned, s); err != nil {
		return results, err
	}

	formatted, s, err := c.runner.Categorize(ctx, cleaned)
	if err != nil {
		return results, err
	}
	if err := save(StageCategorize, OutputFormatted, formatted, s); err != nil {
		return results, err
	}

	grouped, s, err := c.runner.AssignUniversityGroups(ctx, formatted)
	if err != nil {
		return results, err
	}
	if err := save(StageGroups, OutputWithGroups, grouped, s); err != nil {
		return results, err
	}

	deals, s, err := c.runner.DealLevel(ctx, grouped)
	if err != nil {
		return results, err
	}
	if err := save(StageDealLevel, OutputDealLevel, deals, s); err != nil {
		return results, err
	}
	if _, err := c.SaveDocument(DocPreparationLog, PreparationLog(s)); err != nil {
		return results, err
	}

	single, s, err := c.runner.SingleFounders(ctx, deals, grouped)
	if err != nil {
		return results, err
	}
	if err := save(StageSingleFounders, OutputSingleFounders, single, s); err != nil {
		return results, err
	}
	if _, err := c.SaveDocument(DocSingleNotes, SingleFounderNotes(s)); err != nil {
		return results, err
	}

	elite, s, err := c.runner.EliteFounders(ctx, single)
	if err != nil {
		return results, err
	}
	if err := save(StageEliteFounders, OutputEliteFounders, elite, s); err != nil {
		return results, err
	}
	if _, err := c.SaveDocument(DocEliteNotes, EliteFounderNotes(s)); err != nil {
		return results, err
	}

	c.logger.InfoContext(ctx, "Run completed",
		slog.String("input", input),
		slog.Int("steps", len(results)),
		slog.Int("final_rows", elite.Len()),
		slog.Duration("duration", time.Since(start)))
	return results, nil
}
