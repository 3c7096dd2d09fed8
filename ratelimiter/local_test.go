package ratelimiter

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRateLimiter_TryConsume(t *testing.T) {
	rl := New(2)

	if !rl.TryConsume(1) {
		t.Error("should be able to proceed with 1st request")
	}
	if !rl.TryConsume(1) {
		t.Error("should be able to proceed with 2nd request")
	}
	if rl.TryConsume(1) {
		t.Error("should not proceed when requests exhausted")
	}
}

func TestRateLimiter_TimeUntilAvailable(t *testing.T) {
	rl := New(60) // 1 request per second

	if wait := rl.TimeUntilAvailable(1); wait != 0 {
		t.Errorf("expected no wait on a full limiter, got %v", wait)
	}

	// Drain the burst
	if !rl.TryConsume(60) {
		t.Fatal("failed to consume the full burst")
	}

	wait := rl.TimeUntilAvailable(1)
	if wait < 900*time.Millisecond || wait > 1100*time.Millisecond {
		t.Errorf("expected wait around 1s, got %v", wait)
	}

	// Read-only: asking again must not push the wait further out
	again := rl.TimeUntilAvailable(1)
	if again > wait {
		t.Errorf("TimeUntilAvailable consumed capacity: %v then %v", wait, again)
	}
}

func TestRateLimiter_WaitAndConsume_MaxWait(t *testing.T) {
	rl := New(1)
	if !rl.TryConsume(1) {
		t.Fatal("failed to consume the only request")
	}

	err := rl.WaitAndConsume(context.Background(), 1, 10*time.Millisecond)
	if !errors.Is(err, ErrWaitExceeded) {
		t.Errorf("expected ErrWaitExceeded, got %v", err)
	}
}

func TestRateLimiter_WaitAndConsume_Cancelled(t *testing.T) {
	rl := New(1)
	rl.TryConsume(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rl.WaitAndConsume(ctx, 1, 0); err == nil {
		t.Error("expected error for cancelled context")
	}
}
