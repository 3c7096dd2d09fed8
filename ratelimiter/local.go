package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// ErrWaitExceeded is returned when the wait for capacity would exceed maxWait.
var ErrWaitExceeded = errors.New("rate limit wait exceeds max wait")

// RateLimiter paces requests per minute for one credential.
type RateLimiter struct {
	limiter *rate.Limiter
	now     func() time.Time
}

// Ensure RateLimiter implements Limiter.
var _ Limiter = (*RateLimiter)(nil)

// New creates a limiter allowing requestsPerMinute requests, with a burst of
// the full minute's allowance.
func New(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), requestsPerMinute),
		now:     time.Now,
	}
}

// TryConsume atomically checks capacity and consumes n requests if available.
func (rl *RateLimiter) TryConsume(n int) bool {
	return rl.limiter.AllowN(rl.now(), n)
}

// TimeUntilAvailable returns how long until n requests would be available.
// This does not modify state - use for informational purposes.
func (rl *RateLimiter) TimeUntilAvailable(n int) time.Duration {
	now := rl.now()
	r := rl.limiter.ReserveN(now, n)
	if !r.OK() {
		return rate.InfDuration
	}
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return delay
}

// WaitAndConsume waits until n requests are available (up to maxWait), then consumes them.
// If maxWait is 0, there is no limit on how long to wait.
func (rl *RateLimiter) WaitAndConsume(ctx context.Context, n int, maxWait time.Duration) error {
	if maxWait > 0 {
		if wait := rl.TimeUntilAvailable(n); wait > maxWait {
			return fmt.Errorf("%w: %v > %v", ErrWaitExceeded, wait, maxWait)
		}
	}
	return rl.limiter.WaitN(ctx, n)
}
