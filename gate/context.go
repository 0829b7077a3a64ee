package gate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/credgate/observe"
)

// State is the lifecycle position of a Context.
type State int

const (
	StateCreated State = iota
	StateCredentialExtracted
	StateTokenInFlight
	StateAuthorized
	StateDenied
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateCredentialExtracted:
		return "credential_extracted"
	case StateTokenInFlight:
		return "token_in_flight"
	case StateAuthorized:
		return "authorized"
	case StateDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateAuthorized || s == StateDenied
}

// Deny response constants.
const (
	PoweredByHeader = "Powered-By"

	// DenyBodyInvocationFailure is sent when credentials are missing or the
	// exchange could not be dispatched.
	DenyBodyInvocationFailure = "API invocation failure\n"

	// DenyBodyAccessDenied is sent when the exchange produced no token.
	DenyBodyAccessDenied = "Access Denied\n"
)

// Context is the per-request gate state machine. It is created by
// Filter.NewContext and is safe for use by the request goroutine and the
// exchange completion goroutine at the same time.
type Context struct {
	id        string
	config    Config
	host      Host
	exchange  *TokenExchangeClient
	evaluator Evaluator
	logger    observe.Logger
	metrics   observe.Metrics
	tracer    observe.Tracer
	now       func() time.Time

	mu       sync.Mutex
	state    State
	err      error
	action   Action
	creds    Credentials
	call     CallID
	started  time.Time
	traceCtx context.Context
	span     trace.Span
}

// outcome is a terminal transition computed under the lock and applied to
// the host after it is released.
type outcome struct {
	action  Action
	state   State
	err     error
	elapsed time.Duration
	body    string
}

// ID returns the context identifier.
func (c *Context) ID() string {
	return c.id
}

// State returns the current state.
func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the denial reason, or nil unless the state is StateDenied.
func (c *Context) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// LastAction returns the most recent action issued to the host.
func (c *Context) LastAction() Action {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.action
}

// CallID returns the in-flight exchange call and whether one exists.
func (c *Context) CallID() (CallID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.call, c.state == StateTokenInFlight
}

// OnRequestHeaders runs credential extraction and dispatches the exchange.
//
// It returns ActionPause when the exchange is in flight, or ActionFinalize
// when the request was denied locally (the deny response has already been
// handed to the host). Delivering headers a second time has no effect.
func (c *Context) OnRequestHeaders(ctx context.Context, headers Headers) Action {
	c.mu.Lock()
	if c.state != StateCreated {
		action := c.action
		c.mu.Unlock()
		c.logger.Warn(ctx, "request headers delivered twice; ignoring")
		return action
	}

	c.started = c.now()
	c.traceCtx, c.span = c.tracer.StartSpan(ctx, observe.SpanGate, observe.RequestMeta{
		ContextID: c.id,
		Authority: c.config.IdPAuthority,
		Path:      c.config.IdPPath,
	})

	creds, err := ExtractCredentials(headers, c.config)
	if err != nil {
		out := c.denyLocked(err)
		c.mu.Unlock()
		c.apply(out)
		return out.action
	}
	c.creds = creds
	c.state = StateCredentialExtracted
	c.logger.Debug(c.traceCtx, "credentials extracted",
		observe.Field{Key: "client_id", Value: creds.ClientID})

	id, err := c.exchange.Dispatch(c.traceCtx, c.host, creds)
	c.metrics.RecordDispatch(c.traceCtx, err)
	if err != nil {
		out := c.denyLocked(err)
		c.mu.Unlock()
		c.apply(out)
		return out.action
	}

	c.call = id
	c.state = StateTokenInFlight
	c.action = ActionPause
	c.mu.Unlock()

	c.logger.Debug(c.traceCtx, "exchange dispatched; request paused",
		observe.Field{Key: "call_id", Value: uint32(id)})
	return ActionPause
}

// OnExchangeResponse delivers the exchange response for call id. It returns
// false, and does nothing, if the Context is not waiting on that call.
func (c *Context) OnExchangeResponse(id CallID, resp *ExchangeResponse) bool {
	c.mu.Lock()
	if !c.awaitingLocked(id) {
		ctx := c.traceCtx
		c.mu.Unlock()
		c.ignored(ctx, id, "response")
		return false
	}

	if resp != nil {
		c.logger.Debug(c.traceCtx, "exchange response received",
			observe.Field{Key: "call_id", Value: uint32(id)},
			observe.Field{Key: "status", Value: resp.StatusCode},
			observe.Field{Key: "body_bytes", Value: len(resp.Body)})
	}

	var out outcome
	if err := c.evaluator.Evaluate(resp); err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			err = fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
		out = c.denyLocked(err)
	} else {
		out = c.authorizeLocked()
	}
	c.mu.Unlock()

	c.apply(out)
	return true
}

// OnExchangeFailure delivers a failed or timed-out exchange for call id.
// Errors matching ErrTimeout deny with the timeout reason; anything else is
// a dispatch failure. It returns false if the Context is not waiting on id.
func (c *Context) OnExchangeFailure(id CallID, cause error) bool {
	c.mu.Lock()
	if !c.awaitingLocked(id) {
		ctx := c.traceCtx
		c.mu.Unlock()
		c.ignored(ctx, id, "failure")
		return false
	}

	var err error
	switch {
	case errors.Is(cause, ErrTimeout), errors.Is(cause, context.DeadlineExceeded):
		err = fmt.Errorf("%w: %v", ErrTimeout, cause)
	case errors.Is(cause, ErrDispatchFailure):
		err = cause
	default:
		err = fmt.Errorf("%w: %v", ErrDispatchFailure, cause)
	}
	out := c.denyLocked(err)
	c.mu.Unlock()

	c.apply(out)
	return true
}

// Abort records that the caller abandoned the request. A pending exchange
// callback arriving later is ignored and no response is sent. Abort on a
// terminal Context does nothing.
func (c *Context) Abort() {
	c.mu.Lock()
	if c.state.Terminal() {
		c.mu.Unlock()
		return
	}
	c.state = StateDenied
	c.err = ErrAborted
	out := outcome{
		action:  ActionNone,
		state:   StateDenied,
		err:     ErrAborted,
		elapsed: c.elapsedLocked(),
	}
	c.mu.Unlock()

	c.apply(out)
}

func (c *Context) awaitingLocked(id CallID) bool {
	return c.state == StateTokenInFlight && c.call == id
}

func (c *Context) ignored(ctx context.Context, id CallID, kind string) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.logger.Debug(ctx, "late or foreign exchange callback ignored",
		observe.Field{Key: "call_id", Value: uint32(id)},
		observe.Field{Key: "callback", Value: kind})
}

func (c *Context) elapsedLocked() time.Duration {
	if c.started.IsZero() {
		return 0
	}
	return c.now().Sub(c.started)
}

func (c *Context) authorizeLocked() outcome {
	c.state = StateAuthorized
	c.action = ActionResume
	return outcome{
		action:  ActionResume,
		state:   StateAuthorized,
		elapsed: c.elapsedLocked(),
	}
}

func (c *Context) denyLocked(err error) outcome {
	c.state = StateDenied
	c.err = err
	c.action = ActionFinalize

	body := DenyBodyAccessDenied
	if errors.Is(err, ErrMissingCredentials) || errors.Is(err, ErrDispatchFailure) {
		body = DenyBodyInvocationFailure
	}
	return outcome{
		action:  ActionFinalize,
		state:   StateDenied,
		err:     err,
		elapsed: c.elapsedLocked(),
		body:    body,
	}
}

// apply issues the host action for a terminal outcome and records telemetry.
// It runs without the lock held; the state is already terminal, so no other
// goroutine can produce a second outcome.
func (c *Context) apply(out outcome) {
	ctx := c.traceCtx
	if ctx == nil {
		ctx = context.Background()
	}

	switch out.action {
	case ActionResume:
		c.logger.Info(ctx, "request authorized; resuming")
		c.host.Resume()
	case ActionFinalize:
		c.logger.Info(ctx, "request denied",
			observe.Field{Key: "reason", Value: Reason(out.err)},
			observe.Field{Key: "error", Value: out.err.Error()})
		c.host.SendResponse(http.StatusForbidden,
			[]HeaderPair{{Name: PoweredByHeader, Value: c.config.PoweredBy}},
			[]byte(out.body))
	default:
		c.logger.Info(ctx, "request aborted by caller; exchange result will be discarded")
	}

	result := "authorized"
	if out.state == StateDenied {
		result = "denied"
		if errors.Is(out.err, ErrAborted) {
			result = "aborted"
		}
	}
	c.metrics.RecordDecision(ctx, observe.Decision{
		Outcome:  result,
		Reason:   Reason(out.err),
		Duration: out.elapsed,
	})

	if c.span != nil {
		c.tracer.EndSpan(c.span, out.err)
	}
}
