package cellgraph

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the subset of go.opentelemetry.io/otel/trace.Tracer cellgraph
// needs to wrap recomputation and batch commit in spans. A Runtime with a
// nil Tracer (the default) creates no spans.
type Tracer = trace.Tracer

// traceRecompute wraps a Memo's recompute with a span, if rt.Tracer is set.
// The span records the cell's label and whether the compute produced a
// genuine change.
func traceRecompute(ctx context.Context, rt *Runtime, label string, fn func() (bool, error)) (bool, error) {
	if rt.Tracer == nil {
		return fn()
	}
	_, span := rt.Tracer.Start(ctx, "cellgraph.recompute", trace.WithAttributes(
		attribute.String("cellgraph.cell", label),
	))
	defer span.End()

	changed, err := fn()
	span.SetAttributes(attribute.Bool("cellgraph.changed", changed))
	if err != nil {
		span.RecordError(err)
	}
	return changed, err
}

// traceBatchCommit wraps a batch's commit phase with a span, if rt.Tracer
// is set.
func traceBatchCommit(ctx context.Context, rt *Runtime, fn func()) {
	if rt.Tracer == nil {
		fn()
		return
	}
	_, span := rt.Tracer.Start(ctx, "cellgraph.batch.commit")
	defer span.End()
	fn()
}
