package exporter

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/mkguldan/empirical/internal/errors"
	"github.com/mkguldan/empirical/internal/report"
	"github.com/mkguldan/empirical/internal/table"
)

// Supported output formats.
const (
	FormatCSV  = "csv"
	FormatDTA  = "dta"
	FormatXLSX = "xlsx"
)

// SummarySuffix is appended to a job's output base for its summary file.
const SummarySuffix = "_summary"

// Options configures an Exporter.
type Options struct {
	BOM          bool
	DatasetLabel string
	Sheet        string
}

// Exporter writes a job's output in every configured format.
type Exporter struct {
	csv    *CSVWriter
	dta    *DTAWriter
	xlsx   *XLSXWriter
	md     *MarkdownWriter
	opts   Options
	logger *slog.Logger
}

// New creates an exporter.
func New(opts Options, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "exporter"))
	return &Exporter{
		csv:    NewCSVWriter(logger),
		dta:    NewDTAWriter(logger),
		xlsx:   NewXLSXWriter(logger),
		md:     NewMarkdownWriter(logger),
		opts:   opts,
		logger: logger,
	}
}

// WriteAll writes base.<format> for each format concurrently and returns the
// written paths in format order. The first failure cancels the remaining
// writes.
func (e *Exporter) WriteAll(ctx context.Context, base string, t *table.Table, formats []string) ([]string, error) {
	paths := make([]string, len(formats))
	g, ctx := errgroup.WithContext(ctx)

	for i, format := range formats {
		path := base + "." + format
		paths[i] = path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return e.write(path, format, t)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.logger.InfoContext(ctx, "Output written",
		slog.String("base", base),
		slog.Any("formats", formats),
		slog.Int("rows", t.Len()))
	return paths, nil
}

func (e *Exporter) write(path, format string, t *table.Table) error {
	switch format {
	case FormatCSV:
		return e.csv.Write(path, t, e.opts.BOM)
	case FormatDTA:
		return e.dta.Write(path, t, e.opts.DatasetLabel)
	case FormatXLSX:
		return e.xlsx.Write(path, t, e.opts.Sheet)
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unsupported output format %q", format))
	}
}

// WriteSummary writes the flattened summary as base_summary.csv.
func (e *Exporter) WriteSummary(base string, s *report.Summary) (string, error) {
	path := base + SummarySuffix + ".csv"
	if err := e.csv.Write(path, s.Table(), e.opts.BOM); err != nil {
		return "", err
	}
	return path, nil
}

// WriteMarkdown writes a rendered document to path.
func (e *Exporter) WriteMarkdown(path string, doc MarkdownDocument) error {
	return e.md.Write(path, doc)
}

// CSV returns the underlying CSV writer for streaming output.
func (e *Exporter) CSV() *CSVWriter {
	return e.csv
}
