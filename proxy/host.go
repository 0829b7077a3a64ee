package proxy

import (
	"context"
	"sync"

	"github.com/jonwraymond/credgate/dispatch"
	"github.com/jonwraymond/credgate/gate"
)

// verdict is the host action a Context settled on.
type verdict struct {
	allow   bool
	status  int
	headers []gate.HeaderPair
	body    []byte
}

// requestHost is the gate.Host for one HTTP request. The first Resume or
// SendResponse wins; the handler goroutine receives it from settled.
type requestHost struct {
	dispatcher *dispatch.Dispatcher
	gctx       *gate.Context

	once    sync.Once
	settled chan verdict
}

func newRequestHost(d *dispatch.Dispatcher) *requestHost {
	return &requestHost{
		dispatcher: d,
		settled:    make(chan verdict, 1),
	}
}

func (h *requestHost) Dispatch(ctx context.Context, req *gate.ExchangeRequest) (gate.CallID, error) {
	return h.dispatcher.Dispatch(ctx, req, h.complete)
}

func (h *requestHost) complete(id gate.CallID, resp *gate.ExchangeResponse, err error) {
	if err != nil {
		h.gctx.OnExchangeFailure(id, err)
		return
	}
	h.gctx.OnExchangeResponse(id, resp)
}

func (h *requestHost) Resume() {
	h.settle(verdict{allow: true})
}

func (h *requestHost) SendResponse(status int, headers []gate.HeaderPair, body []byte) {
	h.settle(verdict{status: status, headers: headers, body: body})
}

func (h *requestHost) settle(v verdict) {
	h.once.Do(func() {
		h.settled <- v
	})
}

var _ gate.Host = (*requestHost)(nil)
