package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mkguldan/empirical/internal/pipeline"
	"github.com/mkguldan/empirical/internal/report"
	"github.com/mkguldan/empirical/pkg/contracts"
	"github.com/mkguldan/empirical/pkg/contracts/domain"
)

const masterFile = "master_file.csv"

func csvName(base string) string {
	return base + ".csv"
}

func newFoundersCommand(s *session) *cobra.Command {
	return newJobCommand(s, jobDef{
		use:   "founders",
		short: "Select each VC-backed company's founders and funding deal",
		long: `Keep founder rows of venture-capital deals, choose one deal per company
(the earliest, or the earliest with a deal size) and keep one row per founder.`,
		input:  masterFile,
		output: pipeline.OutputFounderDeals,
		stage: func(r *pipeline.Runner) stageFunc {
			return r.FounderDeals
		},
	})
}

func newFilterCommand(s *session) *cobra.Command {
	return newJobCommand(s, jobDef{
		use:    "filter",
		short:  "Keep founders with a deal size and an education institute",
		input:  csvName(pipeline.OutputFounderDeals),
		output: pipeline.OutputFinal,
		stage: func(r *pipeline.Runner) stageFunc {
			return r.RequireSizeAndEducation
		},
	})
}

func newCleanCommand(s *session) *cobra.Command {
	return newJobCommand(s, jobDef{
		use:    "clean",
		short:  "Drop rows without gender or with excluded deal types, normalize dates",
		input:  csvName(pipeline.OutputFinal),
		output: pipeline.OutputCleaned,
		stage: func(r *pipeline.Runner) stageFunc {
			return r.Clean
		},
	})
}

func newCategorizeCommand(s *session) *cobra.Command {
	return newJobCommand(s, jobDef{
		use:    "categorize",
		short:  "Map degrees to education categories and format deal sizes",
		input:  csvName(pipeline.OutputCleaned),
		output: pipeline.OutputFormatted,
		stage: func(r *pipeline.Runner) stageFunc {
			return r.Categorize
		},
	})
}

func newGroupCommand(s *session) *cobra.Command {
	return newJobCommand(s, jobDef{
		use:    "group",
		short:  "Tag each founder's university as Ivy, Top8 or Other",
		input:  csvName(pipeline.OutputFormatted),
		output: pipeline.OutputWithGroups,
		stage: func(r *pipeline.Runner) stageFunc {
			return r.AssignUniversityGroups
		},
	})
}

func newDealsCommand(s *session) *cobra.Command {
	return newJobCommand(s, jobDef{
		use:   "deals",
		short: "Collapse founder rows into one row per US deal",
		long: `Keep US deals with a date and a positive size, then build team composition
variables, company controls and stage dummies for each deal. A preparation log
is written to the reports directory.`,
		input:   csvName(pipeline.OutputWithGroups),
		output:  pipeline.OutputDealLevel,
		docName: pipeline.DocPreparationLog,
		doc:     pipeline.PreparationLog,
		stage: func(r *pipeline.Runner) stageFunc {
			return r.DealLevel
		},
	})
}

func newSingleCommand(s *session) *cobra.Command {
	var deals, founders, output string
	cmd := &cobra.Command{
		Use:   "single",
		Short: "Build the single-founder deal dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			d, err := s.load(ctx, deals)
			if err != nil {
				return err
			}
			f, err := s.load(ctx, founders)
			if err != nil {
				return err
			}
			out, sum, err := s.chain.Runner().SingleFounders(ctx, d, f)
			if err != nil {
				return err
			}
			if err := s.finish(cmd, output, out, sum); err != nil {
				return err
			}
			return s.document(cmd, pipeline.DocSingleNotes, pipeline.SingleFounderNotes(sum))
		},
	}
	cmd.Flags().StringVar(&deals, "deals", csvName(pipeline.OutputDealLevel), "deal-level input")
	cmd.Flags().StringVar(&founders, "founders", csvName(pipeline.OutputWithGroups), "founder-level input")
	cmd.Flags().StringVarP(&output, "output", "o", pipeline.OutputSingleFounders, "output name without extension")
	return cmd
}

func newEliteCommand(s *session) *cobra.Command {
	return newJobCommand(s, jobDef{
		use:     "elite",
		short:   "Keep single-founder deals from Ivy and Top8 universities",
		input:   csvName(pipeline.OutputSingleFounders),
		output:  pipeline.OutputEliteFounders,
		docName: pipeline.DocEliteNotes,
		doc:     pipeline.EliteFounderNotes,
		stage: func(r *pipeline.Runner) stageFunc {
			return r.EliteFounders
		},
	})
}

func newControlsCommand(s *session) *cobra.Command {
	var input, coreDeals, investors, boardSeats, personDeals, output string
	cmd := &cobra.Command{
		Use:   "controls",
		Short: "Add regression controls to the deal dataset",
		Long: `Deduplicate deals and add size, rank, gender, education, stage, industry and
region controls. With --core-deals, the average VC deal size per state is
computed from the full deal table and merged in.

The investor and founder history controls come from the relation tables
named by --investors, --board-seats and --person-deals. A relation table
that does not exist is skipped with a warning; pass an empty value to skip
it silently.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			in, err := s.load(ctx, input)
			if err != nil {
				return err
			}
			var src pipeline.ControlSources
			if src.CoreDeals, err = s.loadOptional(ctx, coreDeals); err != nil {
				return err
			}
			if src.DealInvestors, err = s.chain.LoadOptional(ctx, investors); err != nil {
				return err
			}
			if src.BoardSeats, err = s.chain.LoadOptional(ctx, boardSeats); err != nil {
				return err
			}
			if src.PersonDeals, err = s.chain.LoadOptional(ctx, personDeals); err != nil {
				return err
			}
			out, sum, err := s.chain.Runner().Controls(ctx, in, src)
			if err != nil {
				return err
			}
			return s.finish(cmd, output, out, sum)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "deal_level_analysis_single_founders_with_university_rank.csv", "deal-level input")
	cmd.Flags().StringVar(&coreDeals, "core-deals", "", "full deal table used for VC spend by state (e.g. core_tables/Deal.csv)")
	cmd.Flags().StringVar(&investors, "investors", "core_tables/DealInvestorRelation.csv", "deal/investor relation table")
	cmd.Flags().StringVar(&boardSeats, "board-seats", "other_tables/PersonBoardSeatRelation.csv", "person board seat relation table")
	cmd.Flags().StringVar(&personDeals, "person-deals", "other_tables/PersonAffiliatedDealRelation.csv", "person/deal affiliation table")
	cmd.Flags().StringVarP(&output, "output", "o", "data_with_categories_EXPANDED", "output name without extension")
	return cmd
}

func newLogCommand(s *session) *cobra.Command {
	var input, column, output string
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Add the natural log of a column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			in, err := s.load(ctx, input)
			if err != nil {
				return err
			}
			out, sum, err := s.chain.Runner().LogColumn(ctx, in, column)
			if err != nil {
				return err
			}
			return s.finish(cmd, output, out, sum)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "data_with_categories.dta", "input file")
	cmd.Flags().StringVarP(&column, "column", "c", domain.ColUniversityUSRankUnderscore, "column to log")
	cmd.Flags().StringVarP(&output, "output", "o", "data_with_ln_rank", "output name without extension")
	return cmd
}

func newMergeSpendCommand(s *session) *cobra.Command {
	var input, spend, output string
	cmd := &cobra.Command{
		Use:   "merge-spend",
		Short: "Replace VC spend with a state-level spend table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			in, err := s.load(ctx, input)
			if err != nil {
				return err
			}
			sp, err := s.load(ctx, spend)
			if err != nil {
				return err
			}
			out, sum, err := s.chain.Runner().MergeStateSpend(ctx, in, sp)
			if err != nil {
				return err
			}
			return s.finish(cmd, output, out, sum)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "data_with_categories_EXPANDED.dta", "deal-level input")
	cmd.Flags().StringVar(&spend, "spend", "VC_spend_by_state_averaged.csv", "spend by state table")
	cmd.Flags().StringVarP(&output, "output", "o", "data_with_categories_EXPANDED", "output name without extension")
	return cmd
}

func newLagEmployeesCommand(s *session) *cobra.Command {
	var input, history, coreDeals, output string
	cmd := &cobra.Command{
		Use:   "lag-employees",
		Short: "Replace snapshot employee counts with counts observed before each deal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			in, err := s.load(ctx, input)
			if err != nil {
				return err
			}
			h, err := s.load(ctx, history)
			if err != nil {
				return err
			}
			core, err := s.loadOptional(ctx, coreDeals)
			if err != nil {
				return err
			}
			out, sum, err := s.chain.Runner().LagEmployees(ctx, in, h, core)
			if err != nil {
				return err
			}
			return s.finish(cmd, output, out, sum)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "data_final_streamlined.dta", "deal-level input")
	cmd.Flags().StringVar(&history, "history", filepath.Join("other_tables", "CompanyEmployeeHistoryRelation.csv"), "employee history table")
	cmd.Flags().StringVar(&coreDeals, "core-deals", "", "deal table supplying dates when the input has none")
	cmd.Flags().StringVarP(&output, "output", "o", "data_fixed_endogeneity", "output name without extension")
	return cmd
}

func newAuditCommand(s *session) *cobra.Command {
	return newJobCommand(s, jobDef{
		use:    "audit",
		short:  "Report key coverage, relationship integrity and field completeness",
		input:  masterFile,
		output: "data_quality_report",
		stage: func(r *pipeline.Runner) stageFunc {
			return r.Audit
		},
	})
}

func newCompareCommand(s *session) *cobra.Command {
	var before, after, output string
	opts := pipeline.CompareOptions{}
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Explain which observations were lost between two datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			b, err := s.load(ctx, before)
			if err != nil {
				return err
			}
			a, err := s.load(ctx, after)
			if err != nil {
				return err
			}
			out, sum, err := s.chain.Runner().CompareMissing(ctx, b, a, opts)
			if err != nil {
				return err
			}
			return s.finish(cmd, output, out, sum)
		},
	}
	cmd.Flags().StringVar(&before, "before", "deal_level_analysis_single_founders_with_university_rank.csv", "dataset before filtering")
	cmd.Flags().StringVar(&after, "after", "data_with_categories.dta", "dataset after filtering")
	cmd.Flags().StringVar(&opts.Key, "key", domain.ColDealID, "column identifying rows in both datasets")
	cmd.Flags().Float64Var(&opts.Threshold, "threshold", 1, "minimum missing-rate difference in percentage points")
	cmd.Flags().StringSliceVar(&opts.Required, "require", nil, "columns an observation needs to be usable")
	cmd.Flags().StringVarP(&output, "output", "o", "lost_observations", "output name without extension")
	return cmd
}

func newDescribeCommand(s *session) *cobra.Command {
	return newJobCommand(s, jobDef{
		use:    "describe",
		short:  "Profile every column of a dataset",
		input:  "data_with_categories.dta",
		output: "dataset_profile",
		stage: func(r *pipeline.Runner) stageFunc {
			return r.Describe
		},
	})
}

func newExploreCommand(s *session) *cobra.Command {
	var dir, output string
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Inventory the data files in a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.explore(cmd, dir, output)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory to scan (default: the data directory)")
	cmd.Flags().StringVarP(&output, "output", "o", "data_inventory", "output name without extension")
	return cmd
}

// explore streams the inventory to CSV in the reports directory as files are
// read, then writes the summary next to it.
func (s *session) explore(cmd *cobra.Command, dir, output string) error {
	ctx := cmd.Context()
	if dir == "" {
		dir = s.cfg.Paths.DataDir
	}
	base := s.cfg.ReportPath(output)
	exp := s.chain.Exporter()

	sink, err := exp.CSV().CreateStreamWriter(base+".csv", pipeline.ExploreColumns, s.cfg.Export.BOM)
	if err != nil {
		return err
	}
	out, sum, err := s.chain.Runner().Explore(ctx, s.chain.Loader(), dir, sink)
	if cerr := sink.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	summaryPath, err := exp.WriteSummary(base, sum)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if err := sum.Render(w); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nSaved %s files to:\n  %s\n  %s\n", report.Count(out.Len()), base+".csv", summaryPath)
	return nil
}

func newRunCommand(s *session) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the chain from the master file to the elite single-founder dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := s.files.ValidateInputFile(s.cfg.DataPath(input)); err != nil {
				return err
			}
			results, err := s.chain.Run(ctx, input)
			printSteps(cmd, results)
			return err
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", masterFile, "master file")
	return cmd
}

func printSteps(cmd *cobra.Command, results []pipeline.StepResult) {
	w := cmd.OutOrStdout()
	for _, res := range results {
		_ = res.Summary.Render(w)
	}
	steps := report.Section{
		Title:  "Run Steps",
		Header: []string{"Stage", "Rows", "Outputs"},
	}
	for _, res := range results {
		steps.AddRow(res.Stage, report.Count(res.Rows), report.Count(len(res.Outputs)))
	}
	sum := report.NewSummary("Run")
	sum.AddTable(steps)
	_ = sum.Render(w)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), contracts.GetFullVersionString())
		},
	}
}
