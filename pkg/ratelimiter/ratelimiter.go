// Package ratelimiter throttles outbound API calls with a token bucket that can be
// paused when the remote side signals it is overloaded.
package ratelimiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type RateLimiter interface {
	TakeToken() bool
	Wait(ctx context.Context) error
}

type TokenBucket struct {
	limiter *rate.Limiter

	mu          sync.Mutex
	pausedUntil time.Time
	now         func() time.Time
}

// NewTokenBucket allows capacity requests in a burst, refilled at refillRate per second.
func NewTokenBucket(capacity, refillRate int64) *TokenBucket {
	// Ensure positive values to prevent issues
	if capacity <= 0 {
		capacity = 1
	}
	if refillRate <= 0 {
		refillRate = 1
	}

	return &TokenBucket{
		limiter: rate.NewLimiter(rate.Limit(refillRate), int(capacity)),
		now:     time.Now,
	}
}

// TakeToken consumes a token without blocking. It fails while the bucket is paused.
func (tb *TokenBucket) TakeToken() bool {
	if tb.pauseRemaining() > 0 {
		return false
	}
	return tb.limiter.Allow()
}

// Wait blocks until a token is available, the pause window has elapsed, or ctx is done.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	if d := tb.pauseRemaining(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return tb.limiter.Wait(ctx)
}

// Penalize stops handing out tokens for d, typically the Retry-After of a 429 reply.
// Overlapping penalties keep the later deadline.
func (tb *TokenBucket) Penalize(d time.Duration) {
	if d <= 0 {
		return
	}
	tb.mu.Lock()
	defer tb.mu.Unlock()

	until := tb.now().Add(d)
	if until.After(tb.pausedUntil) {
		tb.pausedUntil = until
	}
}

func (tb *TokenBucket) pauseRemaining() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.pausedUntil.Sub(tb.now())
}
