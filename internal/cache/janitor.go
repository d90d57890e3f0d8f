package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
)

// Janitor sweeps expired entries on a cron schedule. Reads already hide expired entries,
// so the sweep only bounds storage growth.
type Janitor struct {
	store  Store
	expr   *cronexpr.Expression
	logger *log.Logger
	now    func() time.Time
	after  func(time.Duration) <-chan time.Time
}

func NewJanitor(store Store, schedule string, logger *log.Logger) (*Janitor, error) {
	expr, err := cronexpr.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("parse cleanup schedule %q: %w", schedule, err)
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[JANITOR] ", log.LstdFlags)
	}
	return &Janitor{store: store, expr: expr, logger: logger, now: time.Now, after: time.After}, nil
}

// Run sweeps at every scheduled time until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	for {
		now := j.now()
		next := j.expr.Next(now)
		if next.IsZero() {
			j.logger.Printf("schedule has no future runs, stopping")
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-j.after(next.Sub(now)):
		}
		if _, err := j.Sweep(ctx); err != nil {
			j.logger.Printf("sweep failed: %v", err)
		}
	}
}

// Sweep removes expired entries once.
func (j *Janitor) Sweep(ctx context.Context) (int64, error) {
	n, err := j.store.Cleanup(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		j.logger.Printf("removed %d expired entries", n)
	}
	return n, nil
}
