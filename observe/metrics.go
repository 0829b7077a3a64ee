package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric instrument names.
const (
	MetricDecisions        = "credgate.decisions.total"
	MetricDecisionDuration = "credgate.decision.duration_ms"
	MetricDispatched       = "credgate.exchange.dispatched"
)

// Decision describes a terminal gate outcome.
type Decision struct {
	// Outcome is "authorized", "denied" or "aborted".
	Outcome string
	// Reason is the denial reason label, "none" when authorized.
	Reason string
	// Duration is the time from request headers to the decision.
	Duration time.Duration
}

// Metrics records gate decisions.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly and never block the request path.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordDecision records one terminal decision.
	RecordDecision(ctx context.Context, d Decision)

	// RecordDispatch records an exchange dispatch attempt; err is the
	// synchronous dispatch error, if any.
	RecordDispatch(ctx context.Context, err error)
}

type metricsImpl struct {
	decisions  metric.Int64Counter
	duration   metric.Float64Histogram
	dispatched metric.Int64Counter
}

// NewMetrics creates the gate instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	decisions, err := meter.Int64Counter(
		MetricDecisions,
		metric.WithDescription("Gate decisions by outcome and reason"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		MetricDecisionDuration,
		metric.WithDescription("Time from request headers to gate decision in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	dispatched, err := meter.Int64Counter(
		MetricDispatched,
		metric.WithDescription("Credential exchange dispatch attempts"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		decisions:  decisions,
		duration:   duration,
		dispatched: dispatched,
	}, nil
}

func (m *metricsImpl) RecordDecision(ctx context.Context, d Decision) {
	opt := metric.WithAttributes(
		attribute.String("outcome", d.Outcome),
		attribute.String("reason", d.Reason),
	)
	m.decisions.Add(ctx, 1, opt)
	m.duration.Record(ctx, float64(d.Duration.Microseconds())/1000, opt)
}

func (m *metricsImpl) RecordDispatch(ctx context.Context, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.dispatched.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics {
	return nopMetrics{}
}

type nopMetrics struct{}

func (nopMetrics) RecordDecision(context.Context, Decision) {}
func (nopMetrics) RecordDispatch(context.Context, error)    {}
