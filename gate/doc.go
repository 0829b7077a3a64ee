// Package gate implements an inline client-credentials gate for request
// pipelines such as reverse proxies and API gateways.
//
// For every inbound request a Filter creates a Context. The Context extracts
// the client identifier and secret from request headers, dispatches a
// non-blocking client-credentials exchange to the identity provider through
// its Host, and asks the Host to pause the request. When the Host later
// delivers the exchange outcome the Context either resumes the request or
// finalizes it with a 403.
//
// # State machine
//
//	Created ──extract──▶ CredentialExtracted ──dispatch──▶ TokenInFlight
//	   │                        │                              │
//	   ▼                        ▼                              ├─▶ Authorized
//	Denied(missing)      Denied(dispatch)                      └─▶ Denied(invalid|timeout)
//
// Authorized and Denied are terminal. Callbacks that arrive for a terminal
// Context, or that carry a CallID other than the one in flight, are ignored.
//
// # Usage
//
//	filter, err := gate.NewFilter(gate.Config{
//	    IdPAuthority: "tenant.auth.example.com",
//	    IdPAudience:  "https://api.example.com/",
//	})
//	if err != nil {
//	    return err
//	}
//
//	gctx := filter.NewContext(requestID, host)
//	switch gctx.OnRequestHeaders(ctx, gate.HTTPHeaders(r.Header)) {
//	case gate.ActionPause:
//	    // wait for host to deliver OnExchangeResponse / OnExchangeFailure
//	case gate.ActionFinalize:
//	    // deny response already sent through host
//	}
package gate
