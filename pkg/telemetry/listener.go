package telemetry

import (
	"context"
	"reflect"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/deepsize/pkg/meter"
)

// tracerName identifies spans emitted by this library.
const tracerName = "github.com/deepsize"

// TraceListenerFactory creates one traced listener per traversal. Each
// MeasureDeep call becomes a span carrying the root type, the node and edge
// counts, and the total measured size.
type TraceListenerFactory struct {
	ctx    context.Context
	tracer oteltrace.Tracer
}

var _ meter.ListenerFactory = (*TraceListenerFactory)(nil)

// NewTraceListenerFactory creates a factory parenting traversal spans under
// ctx. The tracer comes from the global TracerProvider, so Init must run
// before the first traversal for spans to be exported.
func NewTraceListenerFactory(ctx context.Context) *TraceListenerFactory {
	if ctx == nil {
		ctx = context.Background()
	}
	return &TraceListenerFactory{ctx: ctx, tracer: otel.Tracer(tracerName)}
}

// NewListener implements meter.ListenerFactory.
func (f *TraceListenerFactory) NewListener() meter.Listener {
	return &traceListener{ctx: f.ctx, tracer: f.tracer}
}

// traceListener records one traversal as a span. Failed traversals never
// reach Done; their span stays unended and is not exported with partial
// totals.
type traceListener struct {
	ctx    context.Context
	tracer oteltrace.Tracer
	span   oteltrace.Span
	nodes  int64
	edges  int64
}

func (l *traceListener) Started(root reflect.Value) {
	_, l.span = l.tracer.Start(l.ctx, "deepsize.measure_deep",
		oteltrace.WithAttributes(attribute.String("deepsize.root_type", root.Type().String())))
}

func (l *traceListener) ObjectMeasured(reflect.Value, int64) {
	l.nodes++
}

func (l *traceListener) FieldAdded(reflect.Value, string, reflect.Value) {
	l.edges++
}

func (l *traceListener) Done(total int64) {
	if l.span == nil {
		return
	}
	l.span.SetAttributes(
		attribute.Int64("deepsize.nodes", l.nodes),
		attribute.Int64("deepsize.edges", l.edges),
		attribute.Int64("deepsize.total_bytes", total),
	)
	l.span.End()
}
