package dispatch

import "errors"

var (
	// ErrClosed is returned by Dispatch after Close.
	ErrClosed = errors.New("dispatch: dispatcher closed")

	// ErrCapacity is returned when MaxPending calls are already in flight.
	ErrCapacity = errors.New("dispatch: too many exchanges in flight")

	// ErrInvalidRequest is returned for requests that cannot be sent.
	ErrInvalidRequest = errors.New("dispatch: invalid exchange request")
)
