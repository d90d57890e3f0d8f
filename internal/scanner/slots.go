package scanner

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Slots bounds how many browsers run at once. Waiters are served roughly in arrival order.
type Slots struct {
	sem   *semaphore.Weighted
	size  int
	inUse atomic.Int64
	// onChange sees the number of held slots after every acquire and release.
	onChange func(inUse int)
}

func NewSlots(size int) *Slots {
	if size <= 0 {
		size = 1
	}
	return &Slots{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Acquire blocks until a slot is free or ctx is done.
func (s *Slots) Acquire(ctx context.Context) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	n := s.inUse.Add(1)
	if s.onChange != nil {
		s.onChange(int(n))
	}
	return nil
}

// Release returns a slot taken by Acquire.
func (s *Slots) Release() {
	n := s.inUse.Add(-1)
	s.sem.Release(1)
	if s.onChange != nil {
		s.onChange(int(n))
	}
}

// InUse returns the number of held slots.
func (s *Slots) InUse() int { return int(s.inUse.Load()) }

// Size returns the pool size.
func (s *Slots) Size() int { return s.size }
