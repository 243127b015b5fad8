// Package ticker samples a clock at a fixed interval and hands each sample
// to a callback.
package ticker

import (
	"context"
	"sync"
	"time"

	"github.com/verte-zerg/examclock/internal/timing"
)

// Driver calls a tick function with a fresh, non-decreasing "now" once
// immediately and then once per interval until stopped.
type Driver struct {
	clock    timing.Clock
	interval time.Duration
	tick     func(now time.Time) bool

	stopOnce sync.Once
	stop     chan struct{}
	last     time.Time
}

// New builds a Driver. The tick function returns false to end the run.
func New(clock timing.Clock, interval time.Duration, tick func(now time.Time) bool) *Driver {
	if interval <= 0 {
		interval = time.Second
	}
	return &Driver{
		clock:    clock,
		interval: interval,
		tick:     tick,
		stop:     make(chan struct{}),
	}
}

// Run ticks until ctx is done, Stop is called or the tick function returns
// false. The underlying ticker is released before Run returns.
func (d *Driver) Run(ctx context.Context) error {
	if !d.fire() {
		return nil
	}
	t := time.NewTicker(d.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.stop:
			return nil
		case <-t.C:
			if !d.fire() {
				return nil
			}
		}
	}
}

// Stop ends Run. It is safe to call more than once.
func (d *Driver) Stop() {
	d.stopOnce.Do(func() {
		close(d.stop)
	})
}

func (d *Driver) fire() bool {
	now := d.clock.Now()
	if now.Before(d.last) {
		now = d.last
	}
	d.last = now
	return d.tick(now)
}
