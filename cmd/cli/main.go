package main

import (
	"fmt"
	"os"

	"leavingrate/internal"
	"leavingrate/internal/config"
	"leavingrate/internal/errors"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// globalFlags override the environment configuration when set
type globalFlags struct {
	output      string
	workers     int
	tolerance   float64
	minSupport  int
	maxPos      int
	html        bool
	perRunDir   bool
	logLevel    string
	databaseURL string
}

func main() {
	if err := godotenv.Load(); err != nil {
		internal.DefaultLogger.Debug("no .env file found, using system environment variables")
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorLine(err))
		os.Exit(1)
	}
}

// errorLine prefixes application errors with their code
func errorLine(err error) string {
	if errors.IsAppError(err) {
		return fmt.Sprintf("error [%s]: %v", errors.GetCode(err), err)
	}
	return fmt.Sprintf("error: %v", err)
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:     "leavingrate",
		Short:   "Leaving-rate matching analysis of eye-tracking choice data",
		Version: version,
		Long: `Segments each session's choices into runs, estimates per-side leaving rates
and compares the observed choice proportion with the proportion the
leaving-rate model predicts.

Session files are named F__P<p>_C<c>_S<s>_O<o>.txt (fixations) or
S__P<p>_C<c>_S<s>_O<o>.txt (saccades). Settings come from the environment
or a .env file (INPUT_DIR, OUTPUT_DIR, WORKERS, EXACT_MATCH_TOLERANCE,
MIN_POSITION_SUPPORT, REPORT_MAX_POSITIONS, REPORT_HTML, DATABASE_URL,
LOG_LEVEL); flags take precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.output, "output", "o", "", "Output directory (OUTPUT_DIR)")
	pf.IntVarP(&flags.workers, "workers", "w", 0, "Sessions processed in parallel (WORKERS)")
	pf.Float64Var(&flags.tolerance, "tolerance", 0, "Deviation reported as an exact match (EXACT_MATCH_TOLERANCE)")
	pf.IntVar(&flags.minSupport, "min-support", 0, "Runs a position needs before its exit probability is trusted (MIN_POSITION_SUPPORT)")
	pf.IntVar(&flags.maxPos, "max-positions", 0, "Exit-probability positions listed per side (REPORT_MAX_POSITIONS)")
	pf.BoolVar(&flags.html, "html", false, "Also render reports as HTML (REPORT_HTML)")
	pf.BoolVar(&flags.perRunDir, "per-run-dir", false, "Write each run into its own subdirectory (PER_RUN_DIR)")
	pf.StringVar(&flags.logLevel, "log-level", "", "ERROR, WARN, INFO, DEBUG or TRACE (LOG_LEVEL)")
	pf.StringVar(&flags.databaseURL, "database-url", "", "Export runs to PostgreSQL (DATABASE_URL)")

	rootCmd.AddCommand(
		newReplicateCmd(flags),
		newSessionsCmd(flags),
		newMatchingCmd(flags),
		newSimulateCmd(),
		newMigrateCmd(flags),
		newShowCmd(flags),
	)
	return rootCmd
}

// loadConfig reads the environment and applies the flags that were set
func loadConfig(cmd *cobra.Command, flags *globalFlags, args []string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if len(args) > 0 {
		cfg.Paths.InputDir = args[0]
	}
	if changed("output") {
		cfg.Paths.OutputDir = flags.output
	}
	if changed("workers") {
		cfg.Analysis.Workers = flags.workers
	}
	if changed("tolerance") {
		cfg.Analysis.ExactMatchTolerance = flags.tolerance
	}
	if changed("min-support") {
		cfg.Analysis.MinPositionSupport = flags.minSupport
	}
	if changed("max-positions") {
		cfg.Report.MaxPositions = flags.maxPos
	}
	if changed("html") {
		cfg.Report.HTML = flags.html
	}
	if changed("per-run-dir") {
		cfg.Paths.PerRunDir = flags.perRunDir
	}
	if changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if changed("database-url") {
		cfg.Database.URL = flags.databaseURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	internal.DefaultLogger.SetLevel(internal.ParseLogLevel(cfg.LogLevel))
	return cfg, nil
}
