package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newRecordingTracer(t *testing.T) (Tracer, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return NewTracer(tp.Tracer("test")), recorder
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracer_GateSpanAttributes(t *testing.T) {
	tracer, recorder := newRecordingTracer(t)

	_, span := tracer.StartSpan(context.Background(), SpanGate, RequestMeta{
		ContextID: "ctx-1",
		Authority: "idp.example.com",
		Path:      "/oauth/token",
	})
	tracer.EndSpan(span, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name() != SpanGate {
		t.Errorf("name = %q, want %q", s.Name(), SpanGate)
	}
	if s.SpanKind() != trace.SpanKindInternal {
		t.Errorf("kind = %v, want internal", s.SpanKind())
	}
	if v, _ := attrValue(s.Attributes(), "credgate.context_id"); v.AsString() != "ctx-1" {
		t.Errorf("context_id = %q, want ctx-1", v.AsString())
	}
	if v, _ := attrValue(s.Attributes(), "credgate.idp.authority"); v.AsString() != "idp.example.com" {
		t.Errorf("authority = %q", v.AsString())
	}
	if _, ok := attrValue(s.Attributes(), "credgate.call_id"); ok {
		t.Error("call_id must be omitted when zero")
	}
	if s.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", s.Status().Code)
	}
}

func TestTracer_ExchangeSpanIsClient(t *testing.T) {
	tracer, recorder := newRecordingTracer(t)

	_, span := tracer.StartSpan(context.Background(), SpanExchange, RequestMeta{CallID: 7})
	tracer.EndSpan(span, nil)

	s := recorder.Ended()[0]
	if s.SpanKind() != trace.SpanKindClient {
		t.Errorf("kind = %v, want client", s.SpanKind())
	}
	if v, _ := attrValue(s.Attributes(), "credgate.call_id"); v.AsInt64() != 7 {
		t.Errorf("call_id = %d, want 7", v.AsInt64())
	}
}

func TestTracer_ErrorRecording(t *testing.T) {
	tracer, recorder := newRecordingTracer(t)

	_, span := tracer.StartSpan(context.Background(), SpanGate, RequestMeta{ContextID: "ctx-2"})
	tracer.EndSpan(span, errors.New("gate: exchange timed out"))

	s := recorder.Ended()[0]
	if s.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", s.Status().Code)
	}
	if v, _ := attrValue(s.Attributes(), "credgate.error"); !v.AsBool() {
		t.Error("credgate.error should be true")
	}
	if len(s.Events()) == 0 {
		t.Error("expected recorded error event")
	}
}

func TestTracer_ChildSpanSharesTrace(t *testing.T) {
	tracer, recorder := newRecordingTracer(t)

	ctx, parent := tracer.StartSpan(context.Background(), SpanGate, RequestMeta{ContextID: "ctx-3"})
	_, child := tracer.StartSpan(ctx, SpanExchange, RequestMeta{ContextID: "ctx-3", CallID: 1})
	tracer.EndSpan(child, nil)
	tracer.EndSpan(parent, nil)

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].SpanContext().TraceID() != spans[1].SpanContext().TraceID() {
		t.Error("child and parent should share a trace")
	}
	if spans[0].Parent().SpanID() != spans[1].SpanContext().SpanID() {
		t.Error("exchange span should be a child of the gate span")
	}
}

func TestNopTracer(t *testing.T) {
	tracer := NopTracer()
	_, span := tracer.StartSpan(context.Background(), SpanGate, RequestMeta{})
	tracer.EndSpan(span, errors.New("ignored"))
}
