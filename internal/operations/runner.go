package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"ahtnremap/internal/config"
	"ahtnremap/internal/exporter"
	"ahtnremap/internal/files"
	"ahtnremap/internal/infrastructure"
	"ahtnremap/internal/remap"
	"ahtnremap/internal/tabular"
	"ahtnremap/internal/tradedata"
	"ahtnremap/pkg/contracts/domain"
)

// Sink receives the outputs of every processed dataset
type Sink interface {
	WriteDataset(ctx context.Context, out exporter.DatasetOutput) ([]string, error)
}

// Runner remaps trade datasets with one correspondence table. A Runner is
// safe for concurrent use; datasets never share mutable state.
type Runner struct {
	corr    *Correspondence
	flags   map[string]int
	sink    Sink
	cfg     *config.Config
	spec    tradedata.LoadSpec
	workers int

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.RunMetrics
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTelemetry traces every dataset and records run metrics
func WithTelemetry(t *infrastructure.Telemetry) RunnerOption {
	return func(r *Runner) {
		if t != nil {
			r.tracer = t.Tracer
			r.metrics = t.Metrics
		}
	}
}

// NewRunner creates a runner for the series configured in cfg
func NewRunner(corr *Correspondence, sink Sink, cfg *config.Config, opts ...RunnerOption) (*Runner, error) {
	if corr == nil || corr.Matrix == nil {
		return nil, NewValidationError(StepConcordance, "no correspondence table")
	}
	if sink == nil {
		return nil, NewValidationError(StepWrite, "no output sink")
	}
	series := cfg.Trade.SeriesNames()
	if len(series) == 0 {
		return nil, NewValidationError(StepLoad, "no trade series configured")
	}

	r := &Runner{
		corr:    corr,
		flags:   corr.Flags(),
		sink:    sink,
		cfg:     cfg,
		spec:    tradeSpec(cfg.Trade.CodeColumn, series, cfg),
		workers: max(cfg.Workers, 1),
		logger:  slog.Default(),
		tracer:  tracenoop.NewTracerProvider().Tracer(infrastructure.MeterName),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = infrastructure.WithComponent(r.logger, "runner")
	return r, nil
}

// Series returns the trade series remapped by the runner
func (r *Runner) Series() []string {
	return append([]string(nil), r.spec.Series...)
}

// Run processes datasets with at most cfg.Workers in parallel. Results are
// returned in the order of datasets. A failing dataset never stops the
// others; once ctx is cancelled the remaining datasets are reported as
// cancelled.
func (r *Runner) Run(ctx context.Context, datasets []files.Dataset) []Result {
	results := make([]Result, len(datasets))

	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, ds := range datasets {
		g.Go(func() error {
			results[i] = r.Process(ctx, ds)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Process loads, aligns, remaps, validates and writes one dataset
func (r *Runner) Process(ctx context.Context, ds files.Dataset) (res Result) {
	start := time.Now()
	res = Result{Dataset: ds, Series: r.spec.Series}
	logger := r.logger.With(slog.String("dataset", ds.Name))

	ctx, span := traceDataset(ctx, r.tracer, ds.Name, ds.Path)
	defer span.End()
	defer func() {
		res.Duration = time.Since(start)
		recordCompletion(span, res)
		r.record(ctx, res)
		r.logResult(ctx, logger, res)
	}()

	var raw *tradedata.Frame
	err := runStep(ctx, r.tracer, StepLoad, ds.Name, func(ctx context.Context) error {
		table, err := tabular.ReadFile(ds.Path, tabular.ReadOptions{
			Sheet:  r.cfg.Trade.Sheet,
			Expect: r.spec.Required(),
			Logger: logger,
		})
		if err != nil {
			return err
		}
		raw, err = tradedata.Load(table, r.spec)
		return err
	})
	if err != nil {
		res.fail(err)
		return res
	}
	res.Rows = raw.Len()

	var aligned *tradedata.Frame
	err = runStep(ctx, r.tracer, StepAlign, ds.Name, func(ctx context.Context) error {
		var report tradedata.AlignReport
		aligned, report = remap.Align(r.corr.Matrix, raw)
		res.Align = &report
		if report.Leaks() {
			logger.WarnContext(ctx, "Trade codes missing from the correspondence table are not remapped",
				slog.Int("unmapped_codes", len(report.Unmapped)),
				slog.Any("codes", head(report.Unmapped, 10)))
		}
		if len(report.Missing) > 0 {
			logger.DebugContext(ctx, "Correspondence codes absent from dataset, zero-filled",
				slog.Int("missing_codes", len(report.Missing)))
		}
		return nil
	})
	if err != nil {
		res.fail(err)
		return res
	}

	var remapped *tradedata.Frame
	err = runStep(ctx, r.tracer, StepApply, ds.Name, func(ctx context.Context) error {
		var err error
		remapped, err = remap.Apply(r.corr.Matrix, aligned)
		if err != nil {
			return err
		}
		carryLabels(remapped, raw)
		return nil
	})
	if err != nil {
		res.fail(err)
		return res
	}
	res.NewCodes = remapped.Len()

	if r.cfg.Validation.CrossValidate {
		err = runStep(ctx, r.tracer, StepValidate, ds.Name, func(ctx context.Context) error {
			report, err := remap.CrossValidate(r.corr.Entries, raw, remapped,
				remap.WithShareMode(remap.ShareMode(r.cfg.Validation.ShareMode)),
				remap.WithDiffTolerance(r.cfg.Validation.DiffTolerance),
				remap.WithDataset(ds.Name),
			)
			if err != nil {
				return err
			}
			res.Report = report
			if mismatch := report.Err(); mismatch != nil {
				res.Status = domain.DatasetStatusMismatch
				logger.WarnContext(ctx, "Remapping methods disagree",
					slog.String("error", mismatch.Error()),
					slog.Float64("max_diff", report.MaxDiff),
					slog.Int("mismatches", len(report.Mismatches)))
			}
			return nil
		})
		if err != nil {
			res.fail(err)
			return res
		}
	}

	err = runStep(ctx, r.tracer, StepWrite, ds.Name, func(ctx context.Context) error {
		out := remapped
		if r.cfg.Output.DropZeroRows {
			out = remapped.DropZeroRows()
		}
		paths, err := r.sink.WriteDataset(ctx, exporter.DatasetOutput{
			Name:     ds.Name,
			Remapped: out,
			Flags:    r.flags,
			Report:   res.Report,
		})
		res.Outputs = paths
		return err
	})
	if err != nil {
		res.fail(err)
		return res
	}

	if res.Status == "" {
		res.Status = domain.DatasetStatusOK
	}
	return res
}

func (r *Runner) record(ctx context.Context, res Result) {
	obs := infrastructure.DatasetObservation{
		Dataset:  res.Dataset.Name,
		Status:   string(res.Status),
		Duration: res.Duration,
		Rows:     res.Rows,
	}
	if res.Align != nil {
		obs.Unmapped = len(res.Align.Unmapped)
	}
	if res.Report != nil {
		obs.Validated = true
		obs.Mismatches = len(res.Report.Mismatches)
		obs.MaxDiff = res.Report.MaxDiff
	}
	infrastructure.RecordDataset(ctx, r.metrics, obs)
}

func (r *Runner) logResult(ctx context.Context, logger *slog.Logger, res Result) {
	attrs := []any{
		slog.String("status", string(res.Status)),
		slog.Int("rows", res.Rows),
		slog.Int("new_codes", res.NewCodes),
		slog.Duration("duration", res.Duration),
	}
	if res.Err != nil {
		logger.ErrorContext(ctx, "Dataset failed",
			append(attrs,
				slog.String("step", res.Step()),
				slog.String("error_type", string(GetErrorType(res.Err))),
				slog.String("error", res.Err.Error()))...)
		return
	}
	logger.InfoContext(ctx, "Dataset remapped", append(attrs, slog.Int("outputs", len(res.Outputs)))...)
}

// carryLabels copies descriptive columns from raw to the remapped frame for
// new codes that already existed in the raw data
func carryLabels(remapped, raw *tradedata.Frame) {
	if len(raw.Labels) == 0 {
		return
	}
	pos := make(map[string]int, raw.Len())
	for i, c := range raw.Codes {
		pos[c] = i
	}
	for name, col := range raw.Labels {
		out := make([]string, remapped.Len())
		for i, c := range remapped.Codes {
			if src, ok := pos[c]; ok {
				out[i] = col[src]
			}
		}
		remapped.Labels[name] = out
	}
}

func tradeSpec(codeColumn string, series []string, cfg *config.Config) tradedata.LoadSpec {
	spec := tradedata.LoadSpec{
		CodeColumn: codeColumn,
		Series:     series,
		CodeWidth:  cfg.Concordance.CodeWidth,
	}
	if cfg.Trade.DescriptionColumn != "" {
		spec.Extra = []string{cfg.Trade.DescriptionColumn}
	}
	return spec
}

func head(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}

// Summarize builds the run summary from the runner results
func Summarize(runID string, started, finished time.Time, corr *Correspondence, series []string, results []Result) domain.RunSummary {
	summary := domain.RunSummary{
		RunID:      runID,
		Version:    versionString(),
		StartedAt:  started.UTC(),
		FinishedAt: finished.UTC(),
		Series:     series,
		Datasets:   make([]domain.DatasetSummary, len(results)),
	}
	if corr != nil {
		summary.Concordance = corr.Summary()
	}
	for i, res := range results {
		summary.Datasets[i] = res.Summary()
	}
	return summary
}

// Err returns an ErrorList of the failed datasets, nil when all succeeded
func Err(results []Result) error {
	var list ErrorList
	for _, res := range results {
		if res.Err == nil {
			continue
		}
		list.Add(WrapError(res.Err, res.Step(), res.Dataset.Name))
	}
	if err := list.Err(); err != nil {
		return fmt.Errorf("%d of %d datasets failed: %w", len(list.Errors), len(results), err)
	}
	return nil
}
