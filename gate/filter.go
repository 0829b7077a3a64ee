package gate

import (
	"fmt"
	"time"

	"github.com/jonwraymond/credgate/observe"
)

// Filter is the process-wide root of the gate. It owns the validated Config
// and creates one Context per inbound request.
//
// Contract:
// - Concurrency: safe for concurrent use; NewContext may be called from any goroutine.
// - Ownership: the Config is never mutated after NewFilter returns.
type Filter struct {
	config    Config
	evaluator Evaluator
	logger    observe.Logger
	metrics   observe.Metrics
	tracer    observe.Tracer
	now       func() time.Time
}

// Option configures a Filter.
type Option func(*Filter)

// WithLogger sets the logger. Default: a no-op logger.
func WithLogger(l observe.Logger) Option {
	return func(f *Filter) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithMetrics sets the decision metrics recorder. Default: no-op.
func WithMetrics(m observe.Metrics) Option {
	return func(f *Filter) {
		if m != nil {
			f.metrics = m
		}
	}
}

// WithTracer sets the tracer. Default: no-op.
func WithTracer(t observe.Tracer) Option {
	return func(f *Filter) {
		if t != nil {
			f.tracer = t
		}
	}
}

// WithEvaluator overrides the evaluator chosen by Config.ResponseMode.
func WithEvaluator(e Evaluator) Option {
	return func(f *Filter) {
		if e != nil {
			f.evaluator = e
		}
	}
}

// WithClock sets the time source used for decision latency.
func WithClock(now func() time.Time) Option {
	return func(f *Filter) {
		if now != nil {
			f.now = now
		}
	}
}

// NewFilter validates cfg, applies defaults and returns a Filter.
func NewFilter(cfg Config, opts ...Option) (*Filter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	evaluator, err := NewEvaluator(cfg.ResponseMode)
	if err != nil {
		return nil, err
	}

	f := &Filter{
		config:    cfg,
		evaluator: evaluator,
		logger:    observe.NopLogger(),
		metrics:   observe.NopMetrics(),
		tracer:    observe.NopTracer(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Config returns a copy of the active configuration.
func (f *Filter) Config() Config {
	return f.config
}

// NewContext creates the Context for one request. id should be unique for
// the lifetime of the request; host is the pipeline the Context drives.
func (f *Filter) NewContext(id string, host Host) *Context {
	if host == nil {
		panic(fmt.Sprintf("gate: nil host for context %q", id))
	}

	cfg := f.config
	return &Context{
		id:        id,
		config:    cfg,
		host:      host,
		exchange:  &TokenExchangeClient{config: cfg},
		evaluator: f.evaluator,
		logger:    f.logger.With(observe.Field{Key: "context_id", Value: id}),
		metrics:   f.metrics,
		tracer:    f.tracer,
		now:       f.now,
		state:     StateCreated,
	}
}
