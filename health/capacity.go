package health

import (
	"context"
	"fmt"
)

// LoadReporter exposes in-flight exchange counts. *dispatch.Dispatcher
// implements it.
type LoadReporter interface {
	Pending() int
	Capacity() int
}

// CapacityChecker reports degraded above a threshold of in-flight exchanges
// and unhealthy when no slot is left.
type CapacityChecker struct {
	name      string
	load      LoadReporter
	threshold float64
}

// NewCapacityChecker creates a checker. threshold is the fraction of capacity
// at which the status turns degraded.
// Default threshold: 0.8
func NewCapacityChecker(name string, load LoadReporter, threshold float64) *CapacityChecker {
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.8
	}
	return &CapacityChecker{name: name, load: load, threshold: threshold}
}

// Name returns the checker name.
func (c *CapacityChecker) Name() string { return c.name }

// Check compares pending calls with capacity.
func (c *CapacityChecker) Check(context.Context) Result {
	pending, capacity := c.load.Pending(), c.load.Capacity()
	details := map[string]any{"pending": pending, "capacity": capacity}

	if capacity <= 0 {
		return Healthy("unbounded").WithDetails(details)
	}
	used := float64(pending) / float64(capacity)
	details["used"] = fmt.Sprintf("%.2f", used)

	switch {
	case pending >= capacity:
		return Unhealthy("no exchange slots left", ErrAtCapacity).WithDetails(details)
	case used >= c.threshold:
		return Degraded(fmt.Sprintf("%d of %d exchange slots in use", pending, capacity)).WithDetails(details)
	default:
		return Healthy("ok").WithDetails(details)
	}
}
