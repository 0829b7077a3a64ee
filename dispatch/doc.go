// Package dispatch runs credential exchange calls off the request path.
//
// A Dispatcher accepts a gate.ExchangeRequest, starts the HTTP POST on its
// own goroutine and returns a CallID straight away. The completion callback
// fires exactly once per call unless the call is cancelled first.
//
//	d := dispatch.New(dispatch.Config{MaxPending: 512})
//	id, err := d.Dispatch(ctx, req, func(id gate.CallID, resp *gate.ExchangeResponse, err error) {
//	    ...
//	})
//
// Transport failures are reported as gate.ErrDispatchFailure and an expired
// deadline as gate.ErrTimeout, so callbacks can be passed straight to
// gate.Context.
package dispatch
