package health

import "errors"

var (
	// ErrCheckTimeout indicates a health check did not finish in time.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound indicates a checker was not found.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrAtCapacity indicates no more exchanges can be started.
	ErrAtCapacity = errors.New("health: exchange capacity exhausted")
)
