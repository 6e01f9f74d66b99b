package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outbound requests
type Limiter interface {
	Allow() bool
	Wait(ctx context.Context) error
	Reset()
}

// Interval lets one event through per period. The first event never waits.
type Interval struct {
	period  time.Duration
	limiter *rate.Limiter
	mu      sync.Mutex
}

// NewInterval returns a limiter spacing events by period.
// A non-positive period disables limiting.
func NewInterval(period time.Duration) Limiter {
	if period <= 0 {
		return Nop{}
	}
	return &Interval{
		period:  period,
		limiter: rate.NewLimiter(rate.Every(period), 1),
	}
}

func (i *Interval) Allow() bool {
	return i.current().Allow()
}

func (i *Interval) Wait(ctx context.Context) error {
	return i.current().Wait(ctx)
}

// Reset refills the burst so the next event passes immediately
func (i *Interval) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.limiter = rate.NewLimiter(rate.Every(i.period), 1)
}

func (i *Interval) current() *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.limiter
}

// TokenBucket hands out capacity tokens per refill period
type TokenBucket struct {
	capacity     int           // Maximum number of tokens
	tokens       int           // Current number of tokens
	refillPeriod time.Duration // Period after which bucket is refilled
	lastRefill   time.Time     // Last time the bucket was refilled
	mu           sync.Mutex
}

func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

// PerMinute is a bucket of n requests refilled every minute
func PerMinute(n int) Limiter {
	if n <= 0 {
		return Nop{}
	}
	return NewTokenBucket(n, time.Minute)
}

func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available or ctx is done
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for !tb.Allow() {
		tb.mu.Lock()
		timeUntilRefill := tb.refillPeriod - time.Since(tb.lastRefill)
		tb.mu.Unlock()

		if timeUntilRefill <= 0 {
			timeUntilRefill = 10 * time.Millisecond
		}

		timer := time.NewTimer(timeUntilRefill)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = time.Now()
}

func (tb *TokenBucket) refill() {
	now := time.Now()
	if now.Sub(tb.lastRefill) >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}
}

// Nop never limits
type Nop struct{}

func (Nop) Allow() bool                    { return true }
func (Nop) Wait(ctx context.Context) error { return ctx.Err() }
func (Nop) Reset()                         {}
