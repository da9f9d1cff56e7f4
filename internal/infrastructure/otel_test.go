package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ahtnremap/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestInitializeTelemetry_Disabled(t *testing.T) {
	tel, err := InitializeTelemetry(config.TelemetryConfig{MetricsFile: filepath.Join(t.TempDir(), "m.prom")}, quietLogger())
	require.NoError(t, err)

	assert.Nil(t, tel.TracerProvider)
	assert.Nil(t, tel.MeterProvider)
	assert.Nil(t, tel.Registry)
	require.NotNil(t, tel.Metrics)

	ctx, span := tel.Tracer.Start(context.Background(), "noop")
	RecordDataset(ctx, tel.Metrics, DatasetObservation{Dataset: "CAM", Status: "ok"})
	span.End()

	assert.NoError(t, tel.WriteMetrics())
	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.Empty(t, TraceIDFromContext(ctx))
}

func TestInitializeTelemetry_WritesTracesAndMetrics(t *testing.T) {
	dir := t.TempDir()
	cfg := config.TelemetryConfig{
		Enabled:     true,
		TraceFile:   filepath.Join(dir, "traces.json"),
		MetricsFile: filepath.Join(dir, "remap.prom"),
	}

	tel, err := InitializeTelemetry(cfg, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, tel.TracerProvider)
	require.NotNil(t, tel.Registry)

	ctx, span := tel.Tracer.Start(context.Background(), "dataset.CAM")
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	RecordError(ctx, errors.New("boom"))
	RecordDataset(ctx, tel.Metrics, DatasetObservation{
		Dataset:    "CAM",
		Status:     "ok",
		Duration:   150 * time.Millisecond,
		Rows:       12,
		Unmapped:   2,
		Mismatches: 3,
		MaxDiff:    0.5,
		Validated:  true,
	})
	RecordConcordance(ctx, tel.Metrics, 100, 1)
	span.End()

	require.NoError(t, tel.Shutdown(context.Background()))

	metrics, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	text := string(metrics)
	assert.Contains(t, text, `remap_datasets_processed_total{dataset="CAM",status="ok"} 1`)
	assert.Contains(t, text, `remap_rows_loaded_total{dataset="CAM"} 12`)
	assert.Contains(t, text, `remap_validation_mismatches_total{dataset="CAM"} 3`)
	assert.Contains(t, text, "remap_dataset_duration_seconds")
	assert.Contains(t, text, "remap_concordance_entries 100")

	traces, err := os.ReadFile(cfg.TraceFile)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(traces, []byte(`"Name":"dataset.CAM"`)))
	assert.True(t, bytes.Contains(traces, []byte("boom")))
}

func TestInitializeTelemetry_BadTracePath(t *testing.T) {
	_, err := InitializeTelemetry(config.TelemetryConfig{
		Enabled:   true,
		TraceFile: filepath.Join(t.TempDir(), "missing", "dir", "traces.json"),
	}, quietLogger())
	assert.Error(t, err)
}

func TestRecordHelpers_NilSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordDataset(context.Background(), nil, DatasetObservation{})
		RecordConcordance(context.Background(), nil, 1, 0)
		RecordError(context.Background(), errors.New("no span"))
	})
}
