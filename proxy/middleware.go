package proxy

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jonwraymond/credgate/dispatch"
	"github.com/jonwraymond/credgate/gate"
	"github.com/jonwraymond/credgate/observe"
)

// RequestIDHeader is reused as the gate context id when the caller sends it.
const RequestIDHeader = "X-Request-Id"

const denyContentType = "text/plain; charset=utf-8"

// Middleware gates HTTP requests.
type Middleware struct {
	filter     *gate.Filter
	dispatcher *dispatch.Dispatcher
	logger     observe.Logger
	newID      func() string
}

// Option configures a Middleware.
type Option func(*Middleware)

// WithLogger sets the logger. Default: no-op.
func WithLogger(l observe.Logger) Option {
	return func(m *Middleware) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithIDGenerator sets the context id source. Default: uuid.NewString.
func WithIDGenerator(fn func() string) Option {
	return func(m *Middleware) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// New creates a Middleware.
func New(filter *gate.Filter, d *dispatch.Dispatcher, opts ...Option) *Middleware {
	m := &Middleware{
		filter:     filter,
		dispatcher: d,
		logger:     observe.NopLogger(),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// authorize runs the gate for r and waits for its verdict. ok is false when
// the client went away first; nothing must be written then.
func (m *Middleware) authorize(r *http.Request) (verdict, bool) {
	id := r.Header.Get(RequestIDHeader)
	if id == "" {
		id = m.newID()
	}

	host := newRequestHost(m.dispatcher)
	gctx := m.filter.NewContext(id, host)
	host.gctx = gctx

	gctx.OnRequestHeaders(r.Context(), gate.HTTPHeaders(r.Header))

	select {
	case v := <-host.settled:
		return v, true
	case <-r.Context().Done():
		if call, inFlight := gctx.CallID(); inFlight {
			m.dispatcher.Cancel(call)
		}
		gctx.Abort()
		m.logger.Debug(r.Context(), "client went away during exchange",
			observe.Field{Key: "context_id", Value: id})
		return verdict{}, false
	}
}

// Wrap gates next.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, ok := m.authorize(r)
		if !ok {
			return
		}
		if !v.allow {
			writeDeny(w, v)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Gin returns the gate as gin middleware. Denied and abandoned requests are
// aborted; authorized ones continue down the chain.
func (m *Middleware) Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := m.authorize(c.Request)
		if !ok {
			c.Abort()
			return
		}
		if !v.allow {
			for _, h := range v.headers {
				c.Header(h.Name, h.Value)
			}
			c.Data(v.status, denyContentType, v.body)
			c.Abort()
			return
		}
		c.Next()
	}
}

func writeDeny(w http.ResponseWriter, v verdict) {
	for _, h := range v.headers {
		w.Header().Set(h.Name, h.Value)
	}
	w.Header().Set("Content-Type", denyContentType)
	w.WriteHeader(v.status)
	_, _ = w.Write(v.body)
}
