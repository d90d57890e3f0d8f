package orchestrator

import (
	"errors"
	"testing"
	"time"
)

func TestBatchLimiterRejectsWithinInterval(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	b := newBatchLimiter(10*time.Second, func() time.Time { return now })

	if err := b.Allow(); err != nil {
		t.Fatalf("first batch must pass: %v", err)
	}

	now = now.Add(3500 * time.Millisecond)
	err := b.Allow()
	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if rl.Seconds() != 7 {
		t.Fatalf("expected 7 seconds wait (6.5 rounded up), got %d", rl.Seconds())
	}
	if rl.Error() != "rate limited: please wait 7 seconds" {
		t.Fatalf("unexpected message %q", rl.Error())
	}

	// the rejection must not move the window
	now = now.Add(6500 * time.Millisecond)
	if err := b.Allow(); err != nil {
		t.Fatalf("batch after the full interval must pass: %v", err)
	}

	now = now.Add(9 * time.Second)
	if err := b.Allow(); !errors.As(err, &rl) || rl.Seconds() != 1 {
		t.Fatalf("expected 1 second wait, got %v", err)
	}
}

func TestBatchLimiterWholeSecondWait(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	b := newBatchLimiter(10*time.Second, func() time.Time { return now })
	_ = b.Allow()
	now = now.Add(4 * time.Second)
	var rl *RateLimitedError
	if err := b.Allow(); !errors.As(err, &rl) || rl.Seconds() != 6 {
		t.Fatalf("expected exactly 6 seconds, got %v", err)
	}
}

func TestBatchLimiterDisabled(t *testing.T) {
	b := NewBatchLimiter(0)
	for i := 0; i < 5; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("zero interval must never limit: %v", err)
		}
	}
}
