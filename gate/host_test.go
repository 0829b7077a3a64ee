package gate

import (
	"context"
	"sync"
)

type sentResponse struct {
	status  int
	headers []HeaderPair
	body    string
}

// fakeHost records every host call. Dispatch hands out sequential CallIDs.
type fakeHost struct {
	mu          sync.Mutex
	next        CallID
	dispatchErr error
	requests    []*ExchangeRequest
	dispatchCtx context.Context
	resumed     int
	responses   []sentResponse
}

func newFakeHost() *fakeHost {
	return &fakeHost{next: 1}
}

func (h *fakeHost) Dispatch(ctx context.Context, req *ExchangeRequest) (CallID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dispatchCtx = ctx
	if h.dispatchErr != nil {
		return 0, h.dispatchErr
	}
	h.requests = append(h.requests, req)
	id := h.next
	h.next++
	return id, nil
}

func (h *fakeHost) Resume() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resumed++
}

func (h *fakeHost) SendResponse(status int, headers []HeaderPair, body []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responses = append(h.responses, sentResponse{status: status, headers: headers, body: string(body)})
}

func (h *fakeHost) snapshot() (dispatched, resumed int, responses []sentResponse) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.requests), h.resumed, append([]sentResponse(nil), h.responses...)
}

func (h *fakeHost) lastRequest() *ExchangeRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.requests) == 0 {
		return nil
	}
	return h.requests[len(h.requests)-1]
}
