package directory

import (
	"context"
	"sync"
	"time"
)

// minIntervalLimiter enforces a minimum gap between successive remote calls
// on one client instance. It serializes callers: no two calls on the same
// limiter start closer together than the configured interval.
type minIntervalLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func newMinIntervalLimiter(interval time.Duration) *minIntervalLimiter {
	return &minIntervalLimiter{interval: interval}
}

// Wait blocks until the minimum interval since the previous call has
// elapsed, or ctx is done.
func (l *minIntervalLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.last.IsZero() {
		if remaining := l.interval - time.Since(l.last); remaining > 0 {
			timer := time.NewTimer(remaining)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	l.last = time.Now()
	return nil
}
