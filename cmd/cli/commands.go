package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"leavingrate/adapters/excel"
	"leavingrate/adapters/postgres"
	"leavingrate/app"
	"leavingrate/domain/core"
	"leavingrate/internal"
	"leavingrate/internal/analysis"
	"leavingrate/internal/config"
	"leavingrate/internal/dataset"
	"leavingrate/internal/errors"
	"leavingrate/internal/migration"
	"leavingrate/internal/report"
	"leavingrate/internal/testkit"
	"leavingrate/ports"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

type scenarioFunc func(s *app.AnalysisService, ctx context.Context, inputDir string) (*app.RunResult, error)

func newReplicateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "replicate [input-dir]",
		Short: "Trial-grouped leaving rates per participant and condition",
		Long: `Groups the rows of every fixation file by TRIAL_INDEX, segments the choices
(LADO) into runs and reinforcement (ACCURACY) per side, then sums the counts
per participant and condition and fits the population regressions.

Example: leavingrate replicate ./data --output ./results --html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd, flags, args, (*app.AnalysisService).Replicate, true)
		},
	}
}

func newSessionsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions [input-dir]",
		Short: "Detailed report per session",
		Long: `Analyzes every fixation file on its own and writes a Markdown report per
session with the runs, leaving rates, the matching check and the exit
probability at each position of a run.

Example: leavingrate sessions ./data --max-positions 8`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd, flags, args, (*app.AnalysisService).Sessions, false)
		},
	}
}

func newMatchingCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "matching [input-dir]",
		Short: "Saccade runs and fixation visit durations compared per session",
		Long: `Reads saccade files row by row over LADO and fixation files as visits to the
left and right sample areas, computes leaving rates for both readings and
compares their relative values per participant, condition and session.

Example: leavingrate matching ./data`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd, flags, args, (*app.AnalysisService).Matching, true)
		},
	}
}

func runScenario(cmd *cobra.Command, flags *globalFlags, args []string, scenario scenarioFunc, exportable bool) error {
	cfg, err := loadConfig(cmd, flags, args)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := internal.DefaultLogger

	var sink ports.ResultsSinkPort
	if exportable && cfg.Database.Enabled() {
		db, err := openDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		sink = postgres.NewResultsRepository(db)
	}

	service := app.NewAnalysisService(excel.NewDataReader(), sink, serviceConfig(cfg), logger)
	result, err := scenario(service, ctx, cfg.Paths.InputDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if result.Empty() {
		fmt.Fprintf(out, "No session files found in %s\n", cfg.Paths.InputDir)
		return nil
	}
	fmt.Fprintf(out, "Run %s: %s\n", result.Manifest.RunID, result)
	for _, f := range result.Failures() {
		fmt.Fprintf(out, "  skipped %s [%s]\n", filepath.Base(f.Path), f.Code)
	}
	if len(result.Outputs) > 0 {
		fmt.Fprintf(out, "Results saved in %s\n", filepath.Dir(result.Outputs[0]))
	}
	return nil
}

func serviceConfig(cfg *config.Config) app.ServiceConfig {
	storage := dataset.DefaultStorageConfig()
	storage.BasePath = cfg.Paths.OutputDir
	storage.PerRunDir = cfg.Paths.PerRunDir

	return app.ServiceConfig{
		Workers: cfg.Analysis.Workers,
		Analysis: analysis.Options{
			MinPositionSupport:  cfg.Analysis.MinPositionSupport,
			ExactMatchTolerance: cfg.Analysis.ExactMatchTolerance,
		},
		Report:      reportOptions(cfg),
		Storage:     storage,
		CodeVersion: version,
	}
}

func reportOptions(cfg *config.Config) report.Options {
	return report.Options{
		MaxPositions: cfg.Report.MaxPositions,
		MinSupport:   cfg.Analysis.MinPositionSupport,
		Tolerance:    cfg.Analysis.ExactMatchTolerance,
		HTML:         cfg.Report.HTML,
	}
}

// openDatabase connects and brings the results schema up to date
func openDatabase(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	db, err := postgres.Connect(ctx, cfg.Database.URL, cfg.Database.SSLMode)
	if err != nil {
		return nil, err
	}
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}
	return db, nil
}

func newMigrateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the results tables in PostgreSQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags, nil)
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled() {
				return errors.ConfigInvalid("DATABASE_URL or --database-url is required")
			}
			db, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "Results schema %s is up to date\n", migration.NewRunner().Version())
			return nil
		},
	}
}

func newShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print a run stored in PostgreSQL with its aggregates",
		Long: `Reads back the manifest and the per-(participant, condition) aggregates of
an exported run. The derived columns are recomputed from the stored counts.

Example: leavingrate show 0192f3c4-5d6e-7f80-9a1b-2c3d4e5f6a7b`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := core.ParseRunID(args[0])
			if err != nil {
				return errors.InvalidInput(err.Error())
			}
			cfg, err := loadConfig(cmd, flags, nil)
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled() {
				return errors.ConfigInvalid("DATABASE_URL or --database-url is required")
			}
			db, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			return showRun(cmd.Context(), cmd.OutOrStdout(), postgres.NewResultsRepository(db), runID, reportOptions(cfg))
		},
	}
}

// showRun renders a stored run as the Markdown batch summary
func showRun(ctx context.Context, w io.Writer, reader ports.ResultsReaderPort, runID core.RunID, opts report.Options) error {
	manifest, err := reader.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	aggregates, err := reader.ListAggregates(ctx, runID)
	if err != nil {
		return err
	}
	md := report.BatchReport(report.BatchSummary{
		Title:      "Stored run " + runID.String(),
		Manifest:   manifest,
		Aggregates: aggregates,
	}, opts)
	_, err = io.WriteString(w, md)
	return err
}

func newSimulateCmd() *cobra.Command {
	gen := testkit.DefaultSessionConfig()
	var participants, conditions, sessions int

	cmd := &cobra.Command{
		Use:   "simulate [output-dir]",
		Short: "Write synthetic session files with known leaving rates",
		Long: `Generates fixation and saccade files whose run lengths are geometric with
the given per-trial leaving rates, so the pipeline can be exercised end to end.

Example: leavingrate simulate ./synthetic --participants 3 --lambda-a 0.2 --lambda-b 0.6`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "synthetic_sessions"
			if len(args) > 0 {
				dir = args[0]
			}
			if gen.LeavingRateA <= 0 || gen.LeavingRateA > 1 || gen.LeavingRateB <= 0 || gen.LeavingRateB > 1 {
				return errors.InvalidInput("leaving rates must be in (0, 1]")
			}
			paths, err := testkit.WriteDataset(dir, gen, participants, conditions, sessions)
			if err != nil {
				return err
			}
			predicted := analysis.PredictProportion(gen.LeavingRateA, gen.LeavingRateB)
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d session files to %s (expected proportion on side 1: %.3f)\n",
				len(paths), dir, predicted)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&participants, "participants", 2, "Number of participants")
	f.IntVar(&conditions, "conditions", 2, "Conditions per participant")
	f.IntVar(&sessions, "sessions", 2, "Sessions per condition")
	f.IntVar(&gen.Trials, "trials", gen.Trials, "Trials per session")
	f.Float64Var(&gen.LeavingRateA, "lambda-a", gen.LeavingRateA, "Per-trial probability of leaving side 1")
	f.Float64Var(&gen.LeavingRateB, "lambda-b", gen.LeavingRateB, "Per-trial probability of leaving side 2")
	f.Float64Var(&gen.ReinforceProbA, "reinforce-a", gen.ReinforceProbA, "Reinforcement probability on side 1")
	f.Float64Var(&gen.ReinforceProbB, "reinforce-b", gen.ReinforceProbB, "Reinforcement probability on side 2")
	f.Int64Var(&gen.Seed, "seed", gen.Seed, "Random seed")
	return cmd
}
