package orchestrator

import (
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitedError rejects a scan batch issued before the minimum interval elapsed.
type RateLimitedError struct {
	Wait time.Duration
}

// Seconds is the remaining wait rounded up to whole seconds.
func (e *RateLimitedError) Seconds() int {
	d := e.Wait.Round(time.Millisecond)
	return int(math.Ceil(d.Seconds()))
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: please wait %d seconds", e.Seconds())
}

// BatchLimiter admits at most one scan batch per interval, regardless of batch size.
// Rejected batches do not push the window back.
type BatchLimiter struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	interval time.Duration
	now      func() time.Time
}

func NewBatchLimiter(interval time.Duration) *BatchLimiter {
	return newBatchLimiter(interval, time.Now)
}

func newBatchLimiter(interval time.Duration, now func() time.Time) *BatchLimiter {
	lim := rate.NewLimiter(rate.Inf, 1)
	if interval > 0 {
		lim = rate.NewLimiter(rate.Every(interval), 1)
	}
	return &BatchLimiter{limiter: lim, interval: interval, now: now}
}

// Allow records a batch starting now, or returns a *RateLimitedError with the remaining wait.
func (b *BatchLimiter) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return &RateLimitedError{Wait: b.interval}
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return &RateLimitedError{Wait: d}
	}
	return nil
}

// Interval returns the configured minimum interval.
func (b *BatchLimiter) Interval() time.Duration { return b.interval }
