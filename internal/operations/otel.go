package operations

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ahtnremap/internal/infrastructure"
)

// span attribute keys
const (
	attrDataset  = "remap.dataset"
	attrSource   = "remap.source"
	attrStep     = "remap.step"
	attrStatus   = "remap.status"
	attrRows     = "remap.rows"
	attrMaxDiff  = "remap.max_diff"
	attrUnmapped = "remap.unmapped_codes"
)

// traceDataset creates the span covering one dataset
func traceDataset(ctx context.Context, tracer trace.Tracer, name, source string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "remap.dataset",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String(attrDataset, name),
			attribute.String(attrSource, source),
		),
	)
}

// runStep executes fn inside a child span named after the step. It refuses
// to start when ctx is already cancelled.
func runStep(ctx context.Context, tracer trace.Tracer, step, dataset string, fn func(context.Context) error) error {
	if ctx.Err() != nil {
		return NewCancellationError(step, dataset)
	}

	ctx, span := tracer.Start(ctx, "remap.step."+step,
		trace.WithAttributes(
			attribute.String(attrDataset, dataset),
			attribute.String(attrStep, step),
		),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	span.SetAttributes(attribute.Float64("remap.step.duration_seconds", time.Since(start).Seconds()))
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return WrapError(err, step, dataset)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// recordCompletion closes the dataset span with the outcome of res
func recordCompletion(span trace.Span, res Result) {
	span.SetAttributes(
		attribute.String(attrStatus, string(res.Status)),
		attribute.Int(attrRows, res.Rows),
	)
	if res.Align != nil {
		span.SetAttributes(attribute.Int(attrUnmapped, len(res.Align.Unmapped)))
	}
	if res.Report != nil {
		span.SetAttributes(attribute.Float64(attrMaxDiff, res.Report.MaxDiff))
	}
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
