// Package main provides the ahtn-remap binary entry point.
// It converts trade datasets from AHTN 2017 to AHTN 2022 commodity codes.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"ahtnremap/internal/config"
	"ahtnremap/internal/infrastructure"
	"ahtnremap/internal/operations"
	"ahtnremap/pkg/contracts"
	"ahtnremap/pkg/contracts/domain"
)

const appName = "ahtn-remap"

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// options are the command-line overrides applied on top of the configuration
type options struct {
	configPath string
	inputDir   string
	outputDir  string
	datasets   []string
	workers    int
	logLevel   string
	shareMode  string
	noValidate bool
}

func rootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Remap trade data from AHTN 2017 to AHTN 2022",
		Long: `ahtn-remap converts trade values indexed by AHTN 2017 commodity codes
into AHTN 2022 codes using a correspondence table with allocation shares.

Every dataset named <NAME>_Trade.xlsx (or .csv) in the input directory is
remapped, cross-validated against an independent computation and written
to the output directory together with a run summary.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemap(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	flags.StringVarP(&opts.inputDir, "input", "i", "", "Input directory (overrides paths.input_dir)")
	flags.StringVarP(&opts.outputDir, "output", "o", "", "Output directory (overrides paths.output_dir)")
	flags.StringSliceVarP(&opts.datasets, "dataset", "d", nil, "Only process these datasets (repeatable)")
	flags.IntVarP(&opts.workers, "workers", "w", 0, "Datasets processed in parallel")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	run := &cobra.Command{
		Use:   "run",
		Short: "Remap every dataset of the input directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemap(cmd, opts)
		},
	}
	run.Flags().StringVar(&opts.shareMode, "share-mode", "", "Shares of the cross-validation (reciprocal, explicit)")
	run.Flags().BoolVar(&opts.noValidate, "no-validate", false, "Skip the cross-validation")

	changes := &cobra.Command{
		Use:   "changes",
		Short: "Measure trade under subheadings changed by AHTN 2022",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChanges(cmd, opts)
		},
	}

	version := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), contracts.GetFullVersionString())
		},
	}

	cmd.AddCommand(run, changes, version)
	return cmd
}

// loadConfig reads the configuration and applies the command-line overrides
func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.inputDir != "" {
		cfg.Paths.InputDir = opts.inputDir
	}
	if opts.outputDir != "" {
		cfg.Paths.OutputDir = opts.outputDir
	}
	if len(opts.datasets) > 0 {
		cfg.Paths.Datasets = opts.datasets
	}
	if opts.workers > 0 {
		cfg.Workers = opts.workers
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.shareMode != "" {
		cfg.Validation.ShareMode = opts.shareMode
	}
	if opts.noValidate {
		cfg.Validation.CrossValidate = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}

// session bundles what every command needs
type session struct {
	cfg       *config.Config
	logger    *slog.Logger
	telemetry *infrastructure.Telemetry
	logFile   *os.File
}

func newSession(cmd *cobra.Command, opts options) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger, file, err := infrastructure.NewLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	tel, err := infrastructure.InitializeTelemetry(cfg.Telemetry, logger)
	if err != nil {
		if file != nil {
			file.Close()
		}
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, telemetry: tel, logFile: file}, nil
}

func (s *session) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.telemetry.Shutdown(ctx)
	if s.logFile != nil {
		err = errors.Join(err, s.logFile.Close())
	}
	return err
}

func runRemap(cmd *cobra.Command, opts options) (err error) {
	s, err := newSession(cmd, opts)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.close())
	}()

	ctx := infrastructure.WithRunID(cmd.Context(), infrastructure.NewRunID())
	summary, runErr := operations.Execute(ctx, s.cfg, s.logger, s.telemetry)
	if summary != nil {
		printSummary(cmd.OutOrStdout(), summary)
	}
	return runErr
}

func runChanges(cmd *cobra.Command, opts options) (err error) {
	s, err := newSession(cmd, opts)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.close())
	}()

	ctx := infrastructure.WithRunID(cmd.Context(), infrastructure.NewRunID())
	analyses, runErr := operations.AnalyzeChanges(ctx, s.cfg, s.logger)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATASET\tSERIES\tTOTAL\tCOMPLETE %\tPARTIAL %")
	for _, a := range analyses {
		for _, ss := range a.Series {
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%.2f\n",
				a.Dataset, ss.Series, ss.Total, 100*ss.CompleteShare, 100*ss.PartialShare)
		}
	}
	if err := w.Flush(); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

func printSummary(out io.Writer, summary *domain.RunSummary) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATASET\tSTATUS\tROWS\tNEW CODES\tMAX DIFF\tERROR")
	for _, ds := range summary.Datasets {
		maxDiff := "-"
		if ds.Validation != nil {
			maxDiff = fmt.Sprintf("%.4g", ds.Validation.MaxDiff)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
			ds.Name, ds.Status, ds.Rows, ds.NewCodes, maxDiff, ds.Error)
	}
	_ = w.Flush()

	fmt.Fprintf(out, "\n%d ok, %d mismatch, %d failed, %d cancelled (run %s)\n",
		summary.Count(domain.DatasetStatusOK),
		summary.Count(domain.DatasetStatusMismatch),
		summary.Count(domain.DatasetStatusFailed),
		summary.Count(domain.DatasetStatusCancelled),
		summary.RunID)
}
