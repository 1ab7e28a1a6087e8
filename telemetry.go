package hwprove

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/borzacchiello/hwprove"

type telemetry struct {
	tracer trace.Tracer

	handlerInvocations metric.Int64Counter
	cacheHits          metric.Int64Counter
	proofs             metric.Int64Counter
	solveDuration      metric.Float64Histogram
}

// newTelemetry builds the instruments of one session. Providers left nil in
// opts fall back to the otel globals; instruments that fail to register are
// replaced by no-ops so telemetry never fails a proof.
func newTelemetry(opts Options) *telemetry {
	mp := opts.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	meter := mp.Meter(instrumentationName)
	fallback := noop.NewMeterProvider().Meter(instrumentationName)
	t := &telemetry{tracer: tp.Tracer(instrumentationName)}

	var err error
	t.handlerInvocations, err = meter.Int64Counter(
		"hwprove_handler_invocations_total",
		metric.WithDescription("Total number of operator handler invocations"),
	)
	if err != nil {
		t.handlerInvocations, _ = fallback.Int64Counter("hwprove_handler_invocations_total")
	}

	t.cacheHits, err = meter.Int64Counter(
		"hwprove_cache_hits_total",
		metric.WithDescription("Total number of translation cache hits"),
	)
	if err != nil {
		t.cacheHits, _ = fallback.Int64Counter("hwprove_cache_hits_total")
	}

	t.proofs, err = meter.Int64Counter(
		"hwprove_proofs_total",
		metric.WithDescription("Total number of proof attempts by verdict"),
	)
	if err != nil {
		t.proofs, _ = fallback.Int64Counter("hwprove_proofs_total")
	}

	t.solveDuration, err = meter.Float64Histogram(
		"hwprove_solve_duration_seconds",
		metric.WithDescription("Duration of decision procedure invocations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		t.solveDuration, _ = fallback.Float64Histogram("hwprove_solve_duration_seconds")
	}
	return t
}

func (t *telemetry) recordHandler(ctx context.Context, kind int) {
	t.handlerInvocations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", KindName(kind)),
		attribute.String("family", FamilyName(Family(kind))),
	))
}

func (t *telemetry) recordCacheHit(ctx context.Context) {
	t.cacheHits.Add(ctx, 1)
}

func (t *telemetry) recordProof(ctx context.Context, backend string, verdict Verdict, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("verdict", verdict.String()),
	)
	t.proofs.Add(ctx, 1, attrs)
	t.solveDuration.Record(ctx, seconds, attrs)
}
