package gate

import "context"

// Action is what a Context asks its host pipeline to do with the request.
type Action int

const (
	// ActionNone means no action has been taken yet.
	ActionNone Action = iota
	// ActionPause suspends the request until the exchange resolves.
	ActionPause
	// ActionResume continues the suspended request upstream.
	ActionResume
	// ActionFinalize ends the request with a local deny response.
	ActionFinalize
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionPause:
		return "pause"
	case ActionResume:
		return "resume"
	case ActionFinalize:
		return "finalize"
	default:
		return "unknown"
	}
}

// Host is the request pipeline as seen by a single Context.
//
// Contract:
//   - Dispatch must not block on the exchange. It returns a CallID once the
//     call is started, or an error if it could not be started. It must not
//     deliver the completion callback before it returns. ctx carries the
//     gate span for correlation; it does not bound the call.
//   - For each accepted call the host delivers at most one of
//     Context.OnExchangeResponse or Context.OnExchangeFailure. A call whose
//     request was aborted may never be delivered.
//   - Resume and SendResponse are each called at most once per Context.
type Host interface {
	Dispatch(ctx context.Context, req *ExchangeRequest) (CallID, error)
	Resume()
	SendResponse(status int, headers []HeaderPair, body []byte)
}
