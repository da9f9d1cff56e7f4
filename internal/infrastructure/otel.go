package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"ahtnremap/internal/config"
	"ahtnremap/pkg/contracts"
)

const (
	ServiceName = "ahtn-remap"
	MeterName   = "ahtnremap"
)

// Telemetry holds the tracing and metrics providers of one run. When
// telemetry is disabled the tracer and meter are no-ops, so callers never
// need to check.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *prometheus.Registry
	Metrics        *RunMetrics

	metricsFile string
	traceFile   *os.File
	logger      *slog.Logger
}

// InitializeTelemetry sets up tracing to cfg.TraceFile and metrics collected
// into a Prometheus registry written to cfg.MetricsFile on shutdown.
func InitializeTelemetry(cfg config.TelemetryConfig, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = GetLogger()
	}
	t := &Telemetry{
		Tracer:      tracenoop.NewTracerProvider().Tracer(MeterName),
		Meter:       metricnoop.NewMeterProvider().Meter(MeterName),
		metricsFile: cfg.MetricsFile,
		logger:      logger,
	}

	if cfg.Enabled {
		res := resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(contracts.Version),
		)
		if cfg.TraceFile != "" {
			if err := t.initializeTracing(cfg.TraceFile, res); err != nil {
				return nil, fmt.Errorf("failed to initialize tracing: %w", err)
			}
		}
		if err := t.initializeMetrics(res); err != nil {
			t.Shutdown(context.Background())
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	metrics, err := NewRunMetrics(t.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create run metrics: %w", err)
	}
	t.Metrics = metrics

	logger.Debug("Telemetry initialized",
		slog.Bool("enabled", cfg.Enabled),
		slog.String("trace_file", cfg.TraceFile),
		slog.String("metrics_file", cfg.MetricsFile))
	return t, nil
}

func (t *Telemetry) initializeTracing(path string, res *resource.Resource) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(file))
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	t.traceFile = file
	t.TracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)
	t.Tracer = t.TracerProvider.Tracer(MeterName, trace.WithInstrumentationVersion(contracts.Version))
	return nil
}

func (t *Telemetry) initializeMetrics(res *resource.Resource) error {
	t.Registry = prometheus.NewRegistry()
	exporter, err := otelprom.New(
		otelprom.WithRegisterer(t.Registry),
		otelprom.WithoutScopeInfo(),
		otelprom.WithoutTargetInfo(),
	)
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	t.MeterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	t.Meter = t.MeterProvider.Meter(MeterName, metric.WithInstrumentationVersion(contracts.Version))
	return nil
}

// WriteMetrics writes the collected metrics in the Prometheus text format.
// It does nothing when metrics are disabled or no file is configured.
func (t *Telemetry) WriteMetrics() error {
	if t.Registry == nil || t.metricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(t.metricsFile, t.Registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}

// Shutdown flushes spans, writes the metrics file and releases providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if err := t.WriteMetrics(); err != nil {
		errs = append(errs, err)
	}
	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	if t.traceFile != nil {
		if err := t.traceFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("trace file close: %w", err))
		}
		t.traceFile = nil
	}
	return errors.Join(errs...)
}

// RunMetrics holds the remapping metrics
type RunMetrics struct {
	DatasetsProcessed     metric.Int64Counter
	DatasetDuration       metric.Float64Histogram
	RowsLoaded            metric.Int64Counter
	UnmappedCodes         metric.Int64Counter
	ValidationMismatch    metric.Int64Counter
	ValidationMaxDiff     metric.Float64Gauge
	ConcordanceEntries    metric.Int64Gauge
	ConcordanceDuplicates metric.Int64Gauge
}

// NewRunMetrics creates the remapping instruments on meter
func NewRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	var (
		m   RunMetrics
		err error
	)
	if m.DatasetsProcessed, err = meter.Int64Counter("remap_datasets_processed",
		metric.WithDescription("Datasets processed, by status")); err != nil {
		return nil, err
	}
	if m.DatasetDuration, err = meter.Float64Histogram("remap_dataset_duration",
		metric.WithDescription("Time spent remapping one dataset"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.RowsLoaded, err = meter.Int64Counter("remap_rows_loaded",
		metric.WithDescription("Trade rows loaded from datasets")); err != nil {
		return nil, err
	}
	if m.UnmappedCodes, err = meter.Int64Counter("remap_unmapped_codes",
		metric.WithDescription("Dataset codes absent from the correspondence table")); err != nil {
		return nil, err
	}
	if m.ValidationMismatch, err = meter.Int64Counter("remap_validation_mismatches",
		metric.WithDescription("Cells where the cross-validation exceeded tolerance")); err != nil {
		return nil, err
	}
	if m.ValidationMaxDiff, err = meter.Float64Gauge("remap_validation_max_diff",
		metric.WithDescription("Largest absolute cross-validation difference per dataset")); err != nil {
		return nil, err
	}
	if m.ConcordanceEntries, err = meter.Int64Gauge("remap_concordance_entries",
		metric.WithDescription("Entries in the correspondence table")); err != nil {
		return nil, err
	}
	if m.ConcordanceDuplicates, err = meter.Int64Gauge("remap_concordance_duplicate_pairs",
		metric.WithDescription("Repeated (old, new) pairs in the correspondence table")); err != nil {
		return nil, err
	}
	return &m, nil
}

// DatasetObservation is what RecordDataset reports for one dataset
type DatasetObservation struct {
	Dataset    string
	Status     string
	Duration   time.Duration
	Rows       int
	Unmapped   int
	Mismatches int
	MaxDiff    float64
	Validated  bool
}

// RecordDataset records the metrics of one processed dataset
func RecordDataset(ctx context.Context, m *RunMetrics, obs DatasetObservation) {
	if m == nil {
		return
	}
	ds := attribute.String("dataset", obs.Dataset)

	m.DatasetsProcessed.Add(ctx, 1, metric.WithAttributes(ds, attribute.String("status", obs.Status)))
	m.DatasetDuration.Record(ctx, obs.Duration.Seconds(), metric.WithAttributes(ds))
	m.RowsLoaded.Add(ctx, int64(obs.Rows), metric.WithAttributes(ds))
	m.UnmappedCodes.Add(ctx, int64(obs.Unmapped), metric.WithAttributes(ds))
	if obs.Validated {
		m.ValidationMismatch.Add(ctx, int64(obs.Mismatches), metric.WithAttributes(ds))
		m.ValidationMaxDiff.Record(ctx, obs.MaxDiff, metric.WithAttributes(ds))
	}
}

// RecordConcordance records the size of the correspondence table
func RecordConcordance(ctx context.Context, m *RunMetrics, entries, duplicates int) {
	if m == nil {
		return
	}
	m.ConcordanceEntries.Record(ctx, int64(entries))
	m.ConcordanceDuplicates.Record(ctx, int64(duplicates))
}

// TraceIDFromContext extracts trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
