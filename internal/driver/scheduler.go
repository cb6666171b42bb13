package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Scheduler fires ticks for a driver.
type Scheduler interface {
	// Schedule calls tick repeatedly until stop is called or ctx is done.
	// Ticks never overlap. done is closed after the last tick has returned.
	// stop may be called from inside tick and more than once.
	Schedule(ctx context.Context, tick func(now time.Time)) (stop func(), done <-chan struct{}, err error)

	// Interval is the time budget of one tick.
	Interval() time.Duration
}

// IntervalScheduler ticks at a fixed rate from a single goroutine. Ticks
// that come due while a tick is still running are dropped.
type IntervalScheduler struct {
	interval time.Duration
}

// NewIntervalScheduler returns a scheduler ticking fps times per second.
func NewIntervalScheduler(fps int) *IntervalScheduler {
	s := &IntervalScheduler{}
	if fps > 0 {
		s.interval = time.Second / time.Duration(fps)
	}
	return s
}

// Interval returns the tick period.
func (s *IntervalScheduler) Interval() time.Duration {
	return s.interval
}

// Schedule starts the tick goroutine.
func (s *IntervalScheduler) Schedule(ctx context.Context, tick func(time.Time)) (func(), <-chan struct{}, error) {
	if s.interval <= 0 {
		return nil, nil, errors.New("frame rate must be positive")
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("context already done: %w", err)
	}

	ticker := time.NewTicker(s.interval)
	stopCh := make(chan struct{})
	done := make(chan struct{})

	var once sync.Once
	stop := func() {
		once.Do(func() { close(stopCh) })
	}

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				// A stop that raced with the ticker wins.
				select {
				case <-stopCh:
					return
				default:
				}
				tick(now)
			}
		}
	}()

	return stop, done, nil
}
