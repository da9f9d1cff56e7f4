package operations

import (
	"context"
	"log/slog"

	"ahtnremap/internal/changes"
	"ahtnremap/internal/config"
	"ahtnremap/internal/exporter"
	"ahtnremap/internal/files"
	"ahtnremap/internal/tabular"
	"ahtnremap/internal/tradedata"
)

// AnalyzeChanges measures, for every discovered dataset, how much trade
// falls under subheadings changed completely or partially by the new
// edition, and writes one workbook per dataset. Datasets that fail are
// reported in the returned ErrorList; the others are still analyzed.
func AnalyzeChanges(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]*changes.Analysis, error) {
	if logger == nil {
		logger = slog.Default()
	}

	lists, err := loadChangeLists(cfg, logger)
	if err != nil {
		return nil, err
	}

	datasets, err := files.NewDiscovery("").FindDatasets(cfg.Paths.InputDir, cfg.Trade.DatasetSuffix, cfg.Paths.Datasets)
	if err != nil {
		return nil, WrapError(err, StepDiscover, "")
	}

	sink, err := exporter.NewSink(cfg.Paths.OutputDir, exporter.SinkOptions{Logger: logger})
	if err != nil {
		return nil, NewFatalError("cannot prepare output", err)
	}

	spec := tradeSpec(cfg.Changes.CodeColumn, cfg.Trade.SeriesNames(), cfg)
	var (
		analyses []*changes.Analysis
		errs     ErrorList
	)
	for _, ds := range datasets {
		if ctx.Err() != nil {
			errs.Add(NewCancellationError(StepChanges, ds.Name))
			continue
		}
		a, err := analyzeDataset(ds, spec, lists, cfg, logger)
		if err == nil {
			_, err = sink.WriteChangeAnalysis(a)
		}
		if err != nil {
			errs.Add(WrapError(err, StepChanges, ds.Name))
			logger.ErrorContext(ctx, "Change analysis failed",
				slog.String("dataset", ds.Name),
				slog.String("error", err.Error()))
			continue
		}
		analyses = append(analyses, a)
		logger.InfoContext(ctx, "Change analysis written",
			slog.String("dataset", ds.Name),
			slog.Int("complete_codes", a.CompleteCodes),
			slog.Int("partial_codes", a.PartialCodes))
	}
	return analyses, errs.Err()
}

func analyzeDataset(ds files.Dataset, spec tradedata.LoadSpec, lists changes.Lists, cfg *config.Config, logger *slog.Logger) (*changes.Analysis, error) {
	table, err := tabular.ReadFile(ds.Path, tabular.ReadOptions{
		Sheet:  cfg.Trade.Sheet,
		Expect: spec.Required(),
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	frame, err := tradedata.Load(table, spec)
	if err != nil {
		return nil, err
	}
	return changes.Analyze(ds.Name, frame, lists, cfg.Changes.TopN)
}

func loadChangeLists(cfg *config.Config, logger *slog.Logger) (changes.Lists, error) {
	var lists changes.Lists
	if cfg.Changes.CompleteFile == "" && cfg.Changes.PartialFile == "" {
		return lists, NewValidationError(StepChanges, "no complete or partial change list configured")
	}

	read := func(name string) ([]string, error) {
		if name == "" {
			return nil, nil
		}
		table, err := tabular.ReadFile(cfg.Paths.InputPath(name), tabular.ReadOptions{
			Expect: []string{cfg.Changes.Column},
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
		return changes.CodesFromTable(table, cfg.Changes.Column)
	}

	var err error
	if lists.Complete, err = read(cfg.Changes.CompleteFile); err != nil {
		return lists, WrapError(err, StepChanges, "")
	}
	if lists.Partial, err = read(cfg.Changes.PartialFile); err != nil {
		return lists, WrapError(err, StepChanges, "")
	}
	return lists, nil
}
