package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkguldan/empirical/internal/exporter"
	"github.com/mkguldan/empirical/internal/pipeline"
	"github.com/mkguldan/empirical/internal/report"
	"github.com/mkguldan/empirical/internal/table"
)

type stageFunc func(ctx context.Context, in *table.Table) (*table.Table, *report.Summary, error)

// jobDef describes a job that reads one table and writes one table.
type jobDef struct {
	use    string
	short  string
	long   string
	input  string
	output string

	// docName and doc, when set, also write a Markdown document to the
	// reports directory.
	docName string
	doc     func(*report.Summary) *report.Document

	stage func(*pipeline.Runner) stageFunc
}

func newJobCommand(s *session, def jobDef) *cobra.Command {
	var input, output string
	cmd := &cobra.Command{
		Use:   def.use,
		Short: def.short,
		Long:  def.long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			in, err := s.load(ctx, input)
			if err != nil {
				return err
			}
			out, sum, err := def.stage(s.chain.Runner())(ctx, in)
			if err != nil {
				return err
			}
			if err := s.finish(cmd, output, out, sum); err != nil {
				return err
			}
			if def.doc != nil {
				return s.document(cmd, def.docName, def.doc(sum))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", def.input, "input file, relative to the data directory")
	cmd.Flags().StringVarP(&output, "output", "o", def.output, "output name without extension")
	return cmd
}

// load validates and reads name, resolved against the data directory.
func (s *session) load(ctx context.Context, name string) (*table.Table, error) {
	if err := s.files.ValidateInputFile(s.cfg.DataPath(name)); err != nil {
		return nil, err
	}
	return s.chain.Load(ctx, name)
}

// loadOptional reads name when it is set and returns nil otherwise.
func (s *session) loadOptional(ctx context.Context, name string) (*table.Table, error) {
	if name == "" {
		return nil, nil
	}
	return s.load(ctx, name)
}

// finish saves a job's output and summary, then prints the summary.
func (s *session) finish(cmd *cobra.Command, output string, t *table.Table, sum *report.Summary) error {
	ctx := cmd.Context()
	if err := s.files.ValidateOutputDirectory(filepath.Dir(s.cfg.DataPath(output))); err != nil {
		return err
	}
	paths, err := s.chain.Save(ctx, output, t, sum)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if err := sum.Render(w); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nSaved %s rows to:\n", report.Count(t.Len()))
	for _, p := range paths {
		fmt.Fprintf(w, "  %s\n", p)
	}

	s.logger.InfoContext(ctx, "Job completed",
		slog.String("command", cmd.Name()),
		slog.Int("rows", t.Len()),
		slog.String("files", strings.Join(paths, ",")))
	return nil
}

func (s *session) document(cmd *cobra.Command, name string, doc exporter.MarkdownDocument) error {
	path, err := s.chain.SaveDocument(name, doc)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", path)
	return nil
}
