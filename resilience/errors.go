package resilience

import "errors"

// Sentinel errors for resilience operations.
var (
	// ErrBulkheadFull is returned when the bulkhead is at capacity.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrTimeout is returned when an operation outlives its deadline.
	ErrTimeout = errors.New("resilience: operation timed out")
)
