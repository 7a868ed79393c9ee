package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tabclean/internal/cleaning"
	"tabclean/internal/infrastructure"
)

const TracerName = "tabclean.pipeline"

// RunTracer wraps pipeline runs and stages in spans and records their
// metrics. The zero value traces through the global provider and records
// no metrics.
type RunTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.Metrics
}

// NewRunTracer creates a tracer recording on the given providers
func NewRunTracer(providers *infrastructure.OTelProviders) (*RunTracer, error) {
	metrics, err := infrastructure.CreateMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	return &RunTracer{tracer: providers.Tracer, metrics: metrics}, nil
}

// NewRunTracerWithMetrics creates a tracer sharing already created instruments
func NewRunTracerWithMetrics(tracer trace.Tracer, metrics *infrastructure.Metrics) *RunTracer {
	return &RunTracer{tracer: tracer, metrics: metrics}
}

func (rt *RunTracer) spanTracer() trace.Tracer {
	if rt == nil || rt.tracer == nil {
		return otel.Tracer(TracerName)
	}
	return rt.tracer
}

func (rt *RunTracer) instruments() *infrastructure.Metrics {
	if rt == nil {
		return nil
	}
	return rt.metrics
}

// StartRun opens the span covering a whole run
func (rt *RunTracer) StartRun(ctx context.Context, plan, runID string, stages, rows int) (context.Context, trace.Span) {
	ctx, span := rt.spanTracer().Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("pipeline.plan", plan),
			attribute.String("pipeline.run_id", runID),
			attribute.Int("pipeline.stage_count", stages),
			attribute.Int("pipeline.rows_in", rows),
		),
	)
	infrastructure.RecordActiveRunChange(ctx, rt.instruments(), 1)
	return ctx, span
}

// EndRun closes the run span and records the run metrics
func (rt *RunTracer) EndRun(ctx context.Context, span trace.Span, plan string, duration time.Duration, rowsOut int, err error) {
	infrastructure.RecordActiveRunChange(ctx, rt.instruments(), -1)
	infrastructure.RecordRunMetrics(ctx, rt.instruments(), plan, duration, err == nil)

	span.SetAttributes(
		attribute.Int("pipeline.rows_out", rowsOut),
		attribute.Float64("pipeline.duration_seconds", duration.Seconds()),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "run completed")
	}
	span.End()
}

// StartStage opens the span for one stage
func (rt *RunTracer) StartStage(ctx context.Context, stage cleaning.Stage, position int) (context.Context, trace.Span) {
	return rt.spanTracer().Start(ctx, fmt.Sprintf("pipeline.stage.%s", stage.Kind()),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("stage.name", stage.Name()),
			attribute.String("stage.kind", string(stage.Kind())),
			attribute.Int("stage.position", position),
		),
	)
}

// EndStage closes a stage span and records the stage metrics
func (rt *RunTracer) EndStage(ctx context.Context, span trace.Span, stage cleaning.Stage, duration time.Duration, report cleaning.ChangeReport, err error) {
	infrastructure.RecordStageMetrics(ctx, rt.instruments(), string(stage.Kind()), duration, report.Affected(), err == nil)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(
			attribute.Int("stage.rows_in", report.RowsIn),
			attribute.Int("stage.rows_out", report.RowsOut),
			attribute.Int("stage.affected", report.Affected()),
		)
		span.SetStatus(codes.Ok, "stage completed")
	}
	span.End()
}
