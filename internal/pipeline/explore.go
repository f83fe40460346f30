package pipeline

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/mkguldan/empirical/internal/files"
	"github.com/mkguldan/empirical/internal/ingest"
	"github.com/mkguldan/empirical/internal/report"
	"github.com/mkguldan/empirical/internal/table"
)

// ExploreColumns is the header of the Explore output.
var ExploreColumns = []string{"File", "Format", "Rows", "Columns", "High_Missing_Columns", "Size_Bytes", "Error"}

// RecordWriter receives inventory rows as soon as each file is measured.
type RecordWriter interface {
	WriteRecord(record []string) error
}

// Explore inventories every data file in dir. A file that fails to load is
// listed with its error and does not stop the scan. Rows are also streamed
// to sink when it is not nil.
func (r *Runner) Explore(ctx context.Context, loader *ingest.Loader, dir string, sink RecordWriter) (*table.Table, *report.Summary, error) {
	return r.stage(ctx, StageExplore, 0, func(ctx context.Context) (*table.Table, *report.Summary, error) {
		found, err := files.NewDiscovery("").FindDataFiles(dir)
		if err != nil {
			return nil, nil, err
		}

		out := table.New(ExploreColumns...)
		failed := 0
		for _, f := range found {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			record := []string{f.Name, "", "", "", "", strconv.FormatInt(f.Size, 10), ""}
			t, src, err := loader.Load(ctx, f.Path)
			if err != nil {
				failed++
				record[6] = err.Error()
				r.logger.WarnContext(ctx, "Skipping unreadable file",
					slog.String("path", f.Path),
					slog.String("error", err.Error()))
			} else {
				record[1] = string(src.Format)
				record[2] = table.FormatInt(t.Len())
				record[3] = table.FormatInt(len(t.Columns()))
				record[4] = table.FormatInt(sparseColumns(t))
			}
			out.Append(record...)
			if sink != nil {
				if err := sink.WriteRecord(record); err != nil {
					return nil, nil, err
				}
			}
		}

		s := report.NewSummary("Data Directory Inventory")
		s.AddMetric("Directory", dir)
		s.AddMetric("Files found", report.Count(len(found)))
		s.AddMetric("Files loaded", report.Count(len(found)-failed))
		s.AddMetric("Files failed", report.Count(failed))
		if latest, ok := files.GetLatestFile(found); ok {
			s.AddMetric("Most recent file", latest.Name+" ("+latest.ModTime.Format("2006-01-02 15:04")+")")
		}
		inventory := report.Section{Title: "Files", Header: ExploreColumns[:6]}
		for _, rec := range out.Records() {
			inventory.AddRow(rec[:6]...)
		}
		s.AddTable(inventory)
		return out, s, nil
	})
}

// sparseColumns counts columns that are more than half empty.
func sparseColumns(t *table.Table) int {
	n := 0
	for _, col := range t.Columns() {
		if float64(t.Len()-t.NonEmpty(col)) > 0.5*float64(t.Len()) {
			n++
		}
	}
	return n
}
