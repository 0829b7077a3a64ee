package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/credgate/gate"
	"github.com/jonwraymond/credgate/observe"
	"github.com/jonwraymond/credgate/resilience"
)

// Defaults.
const (
	DefaultMaxPending   = 1024
	DefaultMaxBodyBytes = 1 << 20
)

// Callback receives the outcome of one call. Exactly one of resp and err is
// non-nil.
type Callback func(id gate.CallID, resp *gate.ExchangeResponse, err error)

// Config configures a Dispatcher.
type Config struct {
	// Client sends the exchange. Its own Timeout should be zero; the
	// per-request deadline comes from ExchangeRequest.Timeout.
	// Default: a client with a cloned default transport
	Client *http.Client

	// MaxPending caps in-flight calls.
	// Default: 1024
	MaxPending int

	// MaxBodyBytes limits how much of a response body is read.
	// Default: 1 MiB
	MaxBodyBytes int64

	// DefaultTimeout applies when a request carries no timeout.
	// Default: 10 seconds
	DefaultTimeout time.Duration

	Tracer observe.Tracer
	Logger observe.Logger
}

// Dispatcher sends exchange calls asynchronously.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Dispatch never invokes the callback on the calling goroutine.
type Dispatcher struct {
	config   Config
	client   *http.Client
	bulkhead *resilience.Bulkhead
	timeout  *resilience.Timeout
	tracer   observe.Tracer
	logger   observe.Logger

	next atomic.Uint32
	wg   sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	pending map[gate.CallID]*call
}

type call struct {
	cancel context.CancelFunc
	done   Callback
}

// New creates a Dispatcher.
func New(cfg Config) *Dispatcher {
	if cfg.Client == nil {
		cfg.Client = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = DefaultMaxPending
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observe.NopTracer()
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}

	return &Dispatcher{
		config:   cfg,
		client:   cfg.Client,
		bulkhead: resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: cfg.MaxPending}),
		timeout:  resilience.NewTimeout(resilience.TimeoutConfig{Timeout: cfg.DefaultTimeout}),
		tracer:   cfg.Tracer,
		logger:   cfg.Logger,
		pending:  make(map[gate.CallID]*call),
	}
}

// Dispatch starts req and returns its CallID. done is called later from
// another goroutine. ctx supplies trace and log correlation only; cancelling
// it does not cancel the call, use Cancel for that.
func (d *Dispatcher) Dispatch(ctx context.Context, req *gate.ExchangeRequest, done Callback) (gate.CallID, error) {
	if done == nil {
		return 0, fmt.Errorf("%w: nil callback", ErrInvalidRequest)
	}
	httpReq, err := d.newHTTPRequest(req)
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return 0, ErrClosed
	}
	if err := d.bulkhead.TryAcquire(); err != nil {
		d.mu.Unlock()
		return 0, fmt.Errorf("%w: %d pending", ErrCapacity, d.config.MaxPending)
	}

	id := d.nextID()
	callCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d.pending[id] = &call{cancel: cancel, done: done}
	d.wg.Add(1)
	d.mu.Unlock()

	go d.run(callCtx, id, httpReq, req)
	return id, nil
}

// nextID skips zero so a zero CallID always means "no call".
func (d *Dispatcher) nextID() gate.CallID {
	for {
		if id := gate.CallID(d.next.Add(1)); id != 0 {
			if _, taken := d.pending[id]; !taken {
				return id
			}
		}
	}
}

func (d *Dispatcher) newHTTPRequest(req *gate.ExchangeRequest) (*http.Request, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	if req.Upstream == "" {
		return nil, fmt.Errorf("%w: no upstream", ErrInvalidRequest)
	}
	u, err := url.Parse(req.URL())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidRequest, u.Scheme)
	}

	method := req.Method
	if method == "" {
		method = http.MethodPost
	}
	httpReq, err := http.NewRequest(method, u.String(), bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	for _, h := range req.Headers {
		if strings.HasPrefix(h.Name, ":") {
			continue
		}
		httpReq.Header.Add(h.Name, h.Value)
	}
	if req.Authority != "" {
		httpReq.Host = req.Authority
	}
	httpReq.Header.Set("Accept", "application/json")
	return httpReq, nil
}

func (d *Dispatcher) run(ctx context.Context, id gate.CallID, httpReq *http.Request, req *gate.ExchangeRequest) {
	defer d.wg.Done()
	defer d.bulkhead.Release()

	ctx, span := d.tracer.StartSpan(ctx, observe.SpanExchange, observe.RequestMeta{
		Authority: req.Authority,
		Path:      req.Path,
		CallID:    uint32(id),
	})

	result := make(chan *gate.ExchangeResponse, 1)
	err := d.timeout.ExecuteFor(ctx, req.Timeout, func(ctx context.Context) error {
		r, err := d.send(httpReq.WithContext(ctx))
		if err != nil {
			return err
		}
		result <- r
		return nil
	})

	var resp *gate.ExchangeResponse
	switch {
	case err == nil:
		resp = <-result
	case errors.Is(err, resilience.ErrTimeout):
		err = fmt.Errorf("%w: no response within %s", gate.ErrTimeout, d.deadline(req))
	case errors.Is(err, context.Canceled):
		// Cancel was called; nobody is listening.
	default:
		err = fmt.Errorf("%w: %v", gate.ErrDispatchFailure, err)
	}
	d.tracer.EndSpan(span, err)

	d.finish(ctx, id, resp, err)
}

func (d *Dispatcher) send(req *http.Request) (*gate.ExchangeResponse, error) {
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.config.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &gate.ExchangeResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

func (d *Dispatcher) deadline(req *gate.ExchangeRequest) time.Duration {
	if req.Timeout > 0 {
		return req.Timeout
	}
	return d.timeout.Duration()
}

func (d *Dispatcher) finish(ctx context.Context, id gate.CallID, resp *gate.ExchangeResponse, err error) {
	d.mu.Lock()
	c, ok := d.pending[id]
	delete(d.pending, id)
	d.mu.Unlock()

	if !ok {
		d.logger.Debug(ctx, "exchange result dropped for cancelled call",
			observe.Field{Key: "call_id", Value: uint32(id)})
		return
	}
	c.cancel()

	if err != nil {
		d.logger.Debug(ctx, "exchange failed",
			observe.Field{Key: "call_id", Value: uint32(id)},
			observe.Field{Key: "error", Value: err.Error()})
		c.done(id, nil, err)
		return
	}
	c.done(id, resp, nil)
}

// Cancel abandons call id. Its callback will not fire. It reports whether
// the call was still pending.
func (d *Dispatcher) Cancel(id gate.CallID) bool {
	d.mu.Lock()
	c, ok := d.pending[id]
	delete(d.pending, id)
	d.mu.Unlock()

	if ok {
		c.cancel()
	}
	return ok
}

// Pending returns the number of calls whose callback has not fired.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Capacity returns MaxPending.
func (d *Dispatcher) Capacity() int {
	return d.config.MaxPending
}

// Close stops accepting calls and waits for in-flight calls to complete.
// When ctx ends first, remaining calls are cancelled, their callbacks receive
// gate.ErrDispatchFailure wrapping ErrClosed, and ctx.Err() is returned.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		d.mu.Lock()
		abandoned := d.pending
		d.pending = make(map[gate.CallID]*call)
		d.mu.Unlock()

		for id, c := range abandoned {
			c.cancel()
			c.done(id, nil, fmt.Errorf("%w: %w", gate.ErrDispatchFailure, ErrClosed))
		}
		return ctx.Err()
	}
}
