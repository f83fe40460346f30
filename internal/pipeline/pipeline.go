// Package pipeline implements the panel-building jobs. Each job is a method
// on Runner that reads one or more tables, returns a new table and a report
// summary, and leaves its inputs untouched.
//
// Stages run synchronously. Runner wraps every stage in a telemetry span and
// logs its row counts; Chain adds file handling on top for the CLI and the
// full run.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/mkguldan/empirical/internal/classify"
	"github.com/mkguldan/empirical/internal/infrastructure"
	"github.com/mkguldan/empirical/internal/report"
	"github.com/mkguldan/empirical/internal/table"
)

// Stage names, used for spans, metrics and log records.
const (
	StageFounderDeals   = "founder_deals"
	StageRequireSize    = "require_size_education"
	StageClean          = "clean"
	StageCategorize     = "categorize"
	StageGroups         = "university_groups"
	StageDealLevel      = "deal_level"
	StageSingleFounders = "single_founders"
	StageEliteFounders  = "elite_founders"
	StageControls       = "controls"
	StageLogColumn      = "log_column"
	StageMergeSpend     = "merge_state_spend"
	StageLagEmployees   = "lag_employees"
	StageAudit          = "audit"
	StageCompareMissing = "compare_missing"
	StageDescribe       = "describe"
	StageExplore        = "explore"
)

// Runner executes pipeline stages.
type Runner struct {
	classifier *classify.Classifier
	telemetry  *infrastructure.Telemetry
	logger     *slog.Logger
}

// NewRunner creates a runner. A nil classifier uses the embedded reference
// tables; a nil telemetry disables spans and metrics.
func NewRunner(classifier *classify.Classifier, telemetry *infrastructure.Telemetry, logger *slog.Logger) *Runner {
	if classifier == nil {
		classifier = classify.New(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		classifier: classifier,
		telemetry:  telemetry,
		logger:     logger.With(slog.String("component", "pipeline")),
	}
}

// Classifier returns the classifier the stages use.
func (r *Runner) Classifier() *classify.Classifier {
	return r.classifier
}

type stageFunc func(ctx context.Context) (*table.Table, *report.Summary, error)

// stage runs fn inside a span and logs its start and outcome. rowsIn is the
// size of the primary input.
func (r *Runner) stage(ctx context.Context, name string, rowsIn int, fn stageFunc) (*table.Table, *report.Summary, error) {
	ctx, span := r.telemetry.StartStage(infrastructure.WithStage(ctx, name), name)
	start := time.Now()

	r.logger.InfoContext(ctx, "Stage started", slog.Int("rows_in", rowsIn))

	out, summary, err := fn(ctx)
	rowsOut := rowsOf(out)
	span.End(rowsIn, rowsOut, err)

	if err != nil {
		r.logger.ErrorContext(ctx, "Stage failed",
			slog.Int("rows_in", rowsIn),
			slog.String("error", err.Error()))
		return nil, nil, err
	}

	r.logger.InfoContext(ctx, "Stage completed",
		slog.Int("rows_in", rowsIn),
		slog.Int("rows_out", rowsOut),
		slog.Duration("duration", time.Since(start)))
	return out, summary, nil
}

func rowsOf(t *table.Table) int {
	if t == nil {
		return 0
	}
	return t.Len()
}
