package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/matchsight/ensemble/internal/domain"
	"github.com/matchsight/ensemble/internal/ports"
)

// tracerName identifies the instrumentation scope for pipeline spans.
const tracerName = "github.com/matchsight/ensemble"

var _ ports.Unit = (*TracingUnit)(nil)

// TracingUnit wraps another Unit with OpenTelemetry spans and optional
// latency metrics. Each Execute call produces one span named after the
// wrapped unit, annotated with the request ID when present in state.
type TracingUnit struct {
	next    ports.Unit
	metrics ports.MetricsCollector
}

// WithTracing wraps the given unit in a TracingUnit. The metrics collector
// may be nil, in which case only spans are emitted.
func WithTracing(next ports.Unit, metrics ports.MetricsCollector) *TracingUnit {
	return &TracingUnit{next: next, metrics: metrics}
}

// Name returns the wrapped unit's identifier.
func (tu *TracingUnit) Name() string { return tu.next.Name() }

// Execute starts a span, delegates to the wrapped unit, and records the
// outcome and latency.
func (tu *TracingUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, tu.next.Name()+".Execute",
		trace.WithAttributes(attribute.String("ensemble.unit", tu.next.Name())))
	defer span.End()

	if requestID, ok := domain.Get(state, domain.KeyRequestID); ok {
		span.SetAttributes(attribute.String("ensemble.request_id", requestID))
	}

	start := time.Now()
	out, err := tu.next.Execute(ctx, state)
	elapsed := time.Since(start)

	if tu.metrics != nil {
		tu.metrics.RecordLatency("unit_execution", elapsed, map[string]string{
			"unit": tu.next.Name(),
		})
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return out, err
	}

	span.SetStatus(codes.Ok, "")
	return out, nil
}

// Validate delegates to the wrapped unit.
func (tu *TracingUnit) Validate() error { return tu.next.Validate() }
