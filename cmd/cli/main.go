package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"gocompare/adapters/excel"
	"gocompare/adapters/postgres"
	"gocompare/adapters/stats/engine"
	"gocompare/app"
	"gocompare/domain/core"
	"gocompare/domain/study"
	"gocompare/internal"
	"gocompare/internal/config"
	"gocompare/internal/migration"
	"gocompare/ports"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "gocompare",
		Short: "Two-group comparative analysis over spreadsheet data",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newBaselineCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// sharedOptions are the flags common to both subcommands. Empty values fall
// back to the corresponding environment settings.
type sharedOptions struct {
	dataPath   string
	designPath string
	sheet      string
	strategy   string
}

func addSharedFlags(cmd *cobra.Command, opts *sharedOptions) {
	cmd.Flags().StringVar(&opts.dataPath, "data", "", "Dataset file, .xlsx or .csv (default: DATA_PATH)")
	cmd.Flags().StringVar(&opts.designPath, "design", "", "Study design YAML file (default: DESIGN_PATH)")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "Worksheet to read from .xlsx input (default: INPUT_SHEET)")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "Test strategy: welch, mannwhitney or auto (default: design file, then TEST_STRATEGY)")
}

func newAnalyzeCmd() *cobra.Command {
	var opts sharedOptions
	var outputDir string
	var runID string
	var noReport bool
	var noStore bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the full comparison pipeline",
		Long: `Run descriptives, normality checks, group tests and multiplicity
corrections for every variable block in the design, then write the report
workbook and print the Markdown summary.

The run is persisted when DATABASE_URL is set, so the API and dashboard can
serve it afterwards.

Example: gocompare analyze --data survey.xlsx --design design.yaml --strategy auto`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), opts, outputDir, runID, noReport, noStore)
		},
	}

	addSharedFlags(cmd, &opts)
	cmd.Flags().StringVar(&outputDir, "out", "", "Directory for the report workbook (default: OUTPUT_DIR)")
	cmd.Flags().StringVar(&runID, "run-id", "", "Pin the run identifier instead of generating one")
	cmd.Flags().BoolVar(&noReport, "no-report", false, "Skip writing the report workbook")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "Skip persisting the run even when DATABASE_URL is set")

	return cmd
}

func newBaselineCmd() *cobra.Command {
	var opts sharedOptions

	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Check group comparability on the baseline variables only",
		Long: `Compare the two groups on the design's baseline variables: chi-square
with Cramer's V for the categorical ones, Welch's t for the continuous one.
Nothing is written or persisted.

Example: gocompare baseline --data survey.xlsx --design design.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBaseline(cmd.Context(), opts)
		},
	}

	addSharedFlags(cmd, &opts)

	return cmd
}

// loadInputs resolves flags against the environment configuration and loads
// the design and dataset.
func loadInputs(opts sharedOptions, logger *internal.Logger) (*config.Config, *study.Design, ports.DatasetReader, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	dataPath := opts.dataPath
	if dataPath == "" {
		dataPath = cfg.Paths.DataPath
	}
	designPath := opts.designPath
	if designPath == "" {
		designPath = cfg.Paths.DesignPath
	}
	sheet := opts.sheet
	if sheet == "" {
		sheet = cfg.Analysis.InputSheet
	}

	design, err := study.Load(designPath)
	if err != nil {
		return nil, nil, nil, err
	}

	// Flags beat the design file, the design file beats the environment.
	if opts.strategy != "" {
		design.Strategy = opts.strategy
	} else if design.Strategy == "" {
		design.Strategy = cfg.Analysis.Strategy
	}
	if design.NormalityAlpha == 0 {
		design.NormalityAlpha = cfg.Analysis.NormalityAlpha
	}
	if design.CorrectionAlpha == 0 {
		design.CorrectionAlpha = cfg.Analysis.CorrectionAlpha
	}

	return cfg, design, excel.NewDataReader(dataPath, sheet, logger), nil
}

func runAnalyze(ctx context.Context, opts sharedOptions, outputDir, runID string, noReport, noStore bool) error {
	logger := internal.NewDefaultLogger()

	cfg, design, reader, err := loadInputs(opts, logger)
	if err != nil {
		return err
	}

	var reportWriter ports.ReportWriter
	if !noReport {
		if outputDir == "" {
			outputDir = cfg.Paths.OutputDir
		}
		reportWriter = excel.NewReportWriter(outputDir, excel.WriterConfig{
			AddBlankRows:   cfg.Report.AddBlankRows,
			ApplyTimestamp: cfg.Report.ApplyTimestamp,
		}, logger)
	}

	var runWriter ports.RunWriter
	if !noStore && cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		if err := migration.NewRunner().Run(ctx, db); err != nil {
			return err
		}
		runWriter = postgres.NewRunRepository(db)
	}

	service := app.NewAnalysisService(reader, reportWriter, runWriter, logger)
	result, err := service.Run(ctx, app.AnalysisRequest{
		Design: design,
		RunID:  core.RunID(runID),
	})
	if err != nil {
		return err
	}

	fmt.Println(result.Record.Summary)
	if result.ReportPath != "" {
		fmt.Printf("Report workbook: %s\n", result.ReportPath)
	}
	if runWriter != nil {
		fmt.Printf("Stored as run %s\n", result.Record.ID)
	}
	return nil
}

func runBaseline(ctx context.Context, opts sharedOptions) error {
	logger := internal.NewDefaultLogger()

	_, design, reader, err := loadInputs(opts, logger)
	if err != nil {
		return err
	}
	design.ApplyDefaults()
	if err := design.Validate(); err != nil {
		return err
	}

	frame, err := reader.Read()
	if err != nil {
		return err
	}

	outcomes, skips := engine.NewBaselineAnalyzer(logger).Run(ctx, frame, design)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VARIABLE\tCHECK\tSTATISTIC\tP\tEFFECT\tN")
	for _, o := range outcomes {
		effect := "n/a"
		if o.EffectUnit != "" {
			effect = fmt.Sprintf("%s=%.3f", o.EffectUnit, o.EffectSize)
		}
		fmt.Fprintf(w, "%s\t%s\t%.4f\t%.4f\t%s\t%d\n",
			o.Variable, o.Kind, o.Statistic, o.PValue, effect, o.N)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, skip := range skips {
		fmt.Printf("skipped %s: %s\n", skip.Variable, skip.Reason)
	}
	return nil
}
