// Package resilience bounds credential exchange calls in time and in number.
//
// A Timeout enforces the per-call deadline; a Bulkhead caps how many calls
// may be in flight at once. Neither retries: a failed exchange is a denied
// request.
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 1024})
//	to := resilience.NewTimeout(resilience.TimeoutConfig{Timeout: 10 * time.Second})
//
//	if err := bh.TryAcquire(); err != nil {
//	    return err // ErrBulkheadFull
//	}
//	go func() {
//	    defer bh.Release()
//	    err := to.Execute(ctx, post)
//	    // errors.Is(err, resilience.ErrTimeout) on deadline
//	}()
package resilience
