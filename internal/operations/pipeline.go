package operations

import (
	"context"
	"log/slog"
	"time"

	"ahtnremap/internal/config"
	"ahtnremap/internal/exporter"
	"ahtnremap/internal/files"
	"ahtnremap/internal/infrastructure"
	"ahtnremap/internal/validation"
	"ahtnremap/pkg/contracts/domain"
)

// Execute performs a full remapping run: it builds the allocation matrix,
// writes the partial flags, remaps every discovered dataset and writes the
// run summary. The returned error is non-nil when the run could not start
// or when at least one dataset failed; the summary is valid in both cases
// once the matrix was built.
func Execute(ctx context.Context, cfg *config.Config, logger *slog.Logger, tel *infrastructure.Telemetry) (*domain.RunSummary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx = infrastructure.EnsureRunID(ctx)
	runID := infrastructure.RunIDFromContext(ctx)
	started := time.Now()
	logger = infrastructure.WithComponent(logger, "pipeline")

	logger.InfoContext(ctx, "Remapping run started",
		slog.String("input_dir", cfg.Paths.InputDir),
		slog.String("output_dir", cfg.Paths.OutputDir),
		slog.Int("series", len(cfg.Trade.SeriesNames())),
		slog.Int("workers", cfg.Workers))

	err := validation.NewFileValidator(logger).Preflight(
		cfg.Paths.InputDir, cfg.Paths.ConcordancePath(), cfg.Paths.OutputDir)
	if err != nil {
		return nil, NewFatalError("preflight checks failed", err)
	}

	corr, err := LoadCorrespondence(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if tel != nil {
		corr.record(ctx, tel.Metrics)
	}

	var headings exporter.Headings
	if path := cfg.Paths.HeadingsPath(); path != "" {
		if headings, err = exporter.LoadHeadings(path, logger); err != nil {
			return nil, fatal(err)
		}
		logger.DebugContext(ctx, "Heading descriptions loaded",
			slog.String("source", path),
			slog.Int("headings", len(headings)))
	}

	sink, err := exporter.NewSink(cfg.Paths.OutputDir, exporter.SinkOptions{
		Format:            cfg.Output.Format,
		Sheet:             cfg.Output.Sheet,
		DescriptionColumn: cfg.Trade.DescriptionColumn,
		Headings:          headings,
		WriteDifferences:  cfg.Output.WriteDifferences,
		Logger:            logger,
	})
	if err != nil {
		return nil, NewFatalError("cannot prepare output", err)
	}
	if _, err := sink.WriteFlags(corr.Matrix.Flags()); err != nil {
		return nil, NewFatalError("cannot write partial flags", err)
	}

	datasets, err := files.NewDiscovery("").FindDatasets(cfg.Paths.InputDir, cfg.Trade.DatasetSuffix, cfg.Paths.Datasets)
	if err != nil {
		return nil, WrapError(err, StepDiscover, "")
	}
	if len(datasets) == 0 {
		return nil, NewValidationError(StepDiscover, "no *"+cfg.Trade.DatasetSuffix+" datasets in "+cfg.Paths.InputDir)
	}

	runner, err := NewRunner(corr, sink, cfg, WithLogger(logger), WithTelemetry(tel))
	if err != nil {
		return nil, err
	}
	results := runner.Run(ctx, datasets)

	summary := Summarize(runID, started, time.Now(), corr, runner.Series(), results)
	if _, err := sink.WriteRunSummary(summary); err != nil {
		return &summary, WrapError(err, StepSummary, "")
	}

	logger.InfoContext(ctx, "Remapping run finished",
		slog.Int("datasets", len(summary.Datasets)),
		slog.Int("ok", summary.Count(domain.DatasetStatusOK)),
		slog.Int("mismatch", summary.Count(domain.DatasetStatusMismatch)),
		slog.Int("failed", summary.Count(domain.DatasetStatusFailed)),
		slog.Int("cancelled", summary.Count(domain.DatasetStatusCancelled)),
		slog.Duration("duration", time.Since(started)))

	return &summary, Err(results)
}
