package ratelimiter

import (
	"context"
	"time"
)

// Limiter defines the interface for request pacers.
// Implementations can be local (in-memory) or distributed (Redis, etc.).
type Limiter interface {
	// TryConsume atomically checks capacity and consumes n requests if available.
	// Returns true if they were consumed, false if insufficient capacity.
	TryConsume(n int) bool

	// TimeUntilAvailable returns how long until n requests would be available (read-only).
	TimeUntilAvailable(n int) time.Duration

	// WaitAndConsume waits until n requests are available, then consumes them.
	// Returns error if context is cancelled or maxWait is exceeded.
	WaitAndConsume(ctx context.Context, n int, maxWait time.Duration) error
}
