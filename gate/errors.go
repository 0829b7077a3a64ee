package gate

import "errors"

// Denial reasons. Callers see only one of two fixed deny bodies; these errors
// are for logs, metrics and errors.Is checks.
var (
	// ErrMissingCredentials means a credential header was absent.
	// No exchange is attempted.
	ErrMissingCredentials = errors.New("gate: missing credentials")

	// ErrDispatchFailure means the exchange call could not be started or the
	// identity provider could not be reached.
	ErrDispatchFailure = errors.New("gate: exchange dispatch failed")

	// ErrInvalidCredentials means the exchange answered without a token.
	ErrInvalidCredentials = errors.New("gate: invalid credentials")

	// ErrTimeout means no exchange response arrived before the deadline.
	ErrTimeout = errors.New("gate: exchange timed out")

	// ErrAborted marks a Context whose caller went away while the exchange
	// was in flight. No response is sent for it.
	ErrAborted = errors.New("gate: request aborted")
)

// Configuration errors.
var (
	// ErrMissingAuthority indicates Config.IdPAuthority is empty.
	ErrMissingAuthority = errors.New("gate: idp authority is required")

	// ErrInvalidResponseMode indicates an unknown Config.ResponseMode.
	ErrInvalidResponseMode = errors.New("gate: invalid response mode")

	// ErrInvalidTimeout indicates a negative Config.TimeoutSeconds.
	ErrInvalidTimeout = errors.New("gate: timeout must not be negative")
)

// Reason returns the short label of a denial reason for logs and metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrMissingCredentials):
		return "missing_credentials"
	case errors.Is(err, ErrDispatchFailure):
		return "dispatch_failure"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrAborted):
		return "aborted"
	default:
		return "unknown"
	}
}
