// Package cli provides the vcpanel command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkguldan/empirical/internal/classify"
	"github.com/mkguldan/empirical/internal/config"
	"github.com/mkguldan/empirical/internal/exporter"
	"github.com/mkguldan/empirical/internal/infrastructure"
	"github.com/mkguldan/empirical/internal/ingest"
	"github.com/mkguldan/empirical/internal/pipeline"
	"github.com/mkguldan/empirical/internal/reference"
	"github.com/mkguldan/empirical/internal/validation"
)

type globalOptions struct {
	configFile string
	dataDir    string
	logLevel   string
	formats    []string
}

// session holds what PersistentPreRunE builds for a subcommand.
type session struct {
	cfg       *config.Config
	logger    *slog.Logger
	telemetry *infrastructure.Telemetry
	chain     *pipeline.Chain
	files     *validation.FileValidator
}

func (s *session) close(ctx context.Context) error {
	var err error
	if s.telemetry != nil {
		err = s.telemetry.Shutdown(ctx)
		s.telemetry = nil
	}
	if s.logger != nil {
		if cerr := infrastructure.CloseLogFile(); err == nil {
			err = cerr
		}
	}
	return err
}

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&session{})
}

func newRootCmd(s *session) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   config.AppName,
		Short: "Founder and venture-capital panel builder",
		Long: `vcpanel turns a master export of companies, deals, investors and persons
into deal-level research datasets.

Each subcommand runs one job: it reads its input from the data directory,
writes the result in the configured formats together with a summary file,
and prints the summary tables.`,
		Version: config.AppVersion,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "help", "completion", "__complete", "version":
				return nil
			}
			return s.open(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default: ./vcpanel.yaml)")
	flags.StringVar(&opts.dataDir, "data-dir", "", "directory holding inputs and outputs")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug|info|warn|error)")
	flags.StringSliceVar(&opts.formats, "formats", nil, "output formats (csv,dta,xlsx)")

	_ = root.RegisterFlagCompletionFunc("formats", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"csv", "dta", "xlsx"}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(
		newFoundersCommand(s),
		newFilterCommand(s),
		newCleanCommand(s),
		newCategorizeCommand(s),
		newGroupCommand(s),
		newDealsCommand(s),
		newSingleCommand(s),
		newEliteCommand(s),
		newControlsCommand(s),
		newLogCommand(s),
		newMergeSpendCommand(s),
		newLagEmployeesCommand(s),
		newAuditCommand(s),
		newCompareCommand(s),
		newDescribeCommand(s),
		newExploreCommand(s),
		newRunCommand(s),
		newVersionCommand(),
	)
	return root
}

// open loads configuration and wires the logger, telemetry and pipeline.
func (s *session) open(cmd *cobra.Command, opts *globalOptions) error {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}
	if opts.dataDir != "" {
		cfg.SetDataDir(opts.dataDir)
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if len(opts.formats) > 0 {
		cfg.Export.Formats = normalizeFormats(opts.formats)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return err
	}
	ctx := infrastructure.EnsureRunID(cmd.Context())
	cmd.SetContext(ctx)

	tel, err := infrastructure.NewTelemetry(cfg.Telemetry, logger)
	if err != nil {
		return err
	}
	tables, err := reference.Load(cfg.Reference.File)
	if err != nil {
		return err
	}

	s.cfg = cfg
	s.logger = logger
	s.telemetry = tel
	s.files = validation.NewFileValidator(infrastructure.WithComponent(logger, "validation"))

	runner := pipeline.NewRunner(classify.New(tables), tel, logger)
	loader := ingest.NewLoader(ingest.Options{
		Delimiters: cfg.DelimiterRunes(),
		Encodings:  cfg.Ingest.Encodings,
		Sheet:      cfg.Ingest.Sheet,
	}, logger)
	exp := exporter.New(exporter.Options{
		BOM:          cfg.Export.BOM,
		DatasetLabel: cfg.Export.DatasetLabel,
	}, logger)
	s.chain = pipeline.NewChain(runner, loader, exp, cfg, logger)

	logger.InfoContext(ctx, "Command started",
		slog.String("command", cmd.Name()),
		slog.String("data_dir", cfg.Paths.DataDir),
		slog.String("formats", strings.Join(cfg.Export.Formats, ",")))
	return nil
}

func normalizeFormats(in []string) []string {
	out := make([]string, 0, len(in))
	for _, f := range in {
		f = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Execute runs the command line and reports any error on stderr.
func Execute(ctx context.Context) error {
	return execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	s := &session{}
	root := newRootCmd(s)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "Command failed", slog.String("error", err.Error()))
	}
	if cerr := s.close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return err
}
