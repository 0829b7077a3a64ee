package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Span names.
const (
	// SpanGate covers one request from headers to decision.
	SpanGate = "credgate.gate"
	// SpanExchange covers one credential exchange call.
	SpanExchange = "credgate.exchange"
)

// RequestMeta is attached to gate and exchange spans.
type RequestMeta struct {
	ContextID string
	Authority string
	Path      string
	CallID    uint32
}

func (m RequestMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("credgate.context_id", m.ContextID),
		attribute.Bool("credgate.error", false),
	}
	if m.Authority != "" {
		attrs = append(attrs, attribute.String("credgate.idp.authority", m.Authority))
	}
	if m.Path != "" {
		attrs = append(attrs, attribute.String("credgate.idp.path", m.Path))
	}
	if m.CallID != 0 {
		attrs = append(attrs, attribute.Int64("credgate.call_id", int64(m.CallID)))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing for gate spans.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a span named name with meta as attributes.
	StartSpan(ctx context.Context, name string, meta RequestMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording err if non-nil.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, name string, meta RequestMeta) (context.Context, trace.Span) {
	kind := trace.SpanKindInternal
	if name == SpanExchange {
		kind = trace.SpanKindClient
	}
	return t.tracer.Start(ctx, name,
		trace.WithAttributes(meta.attributes()...),
		trace.WithSpanKind(kind),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("credgate.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// NopTracer returns a tracer whose spans record nothing.
func NopTracer() Tracer {
	return NewTracer(tracenoop.NewTracerProvider().Tracer("noop"))
}
