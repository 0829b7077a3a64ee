package resilience

import (
	"context"
	"errors"
	"time"
)

// DefaultTimeout is used when TimeoutConfig.Timeout is not positive.
const DefaultTimeout = 10 * time.Second

// TimeoutConfig configures the timeout wrapper.
type TimeoutConfig struct {
	// Timeout is the maximum duration of one operation.
	// Default: 10 seconds
	Timeout time.Duration
}

// Timeout runs operations under a deadline.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a new timeout wrapper.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Timeout{config: config}
}

// Execute runs op with a derived context that expires after the configured
// timeout. It returns ErrTimeout once the deadline passes even if op has not
// returned yet; op keeps running until it observes ctx.Done. Cancellation of
// the parent context is returned as ctx.Err().
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	return t.ExecuteFor(ctx, t.config.Timeout, op)
}

// ExecuteFor is Execute with an explicit deadline. A non-positive d uses the
// configured timeout.
func (t *Timeout) ExecuteFor(ctx context.Context, d time.Duration, op func(context.Context) error) error {
	if d <= 0 {
		d = t.config.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		if errors.Is(err, context.DeadlineExceeded) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctx.Err()
	}
}

// Duration returns the configured timeout.
func (t *Timeout) Duration() time.Duration {
	return t.config.Timeout
}
