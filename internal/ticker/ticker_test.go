package ticker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/verte-zerg/examclock/internal/timing"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type backwardsClock struct {
	mu    sync.Mutex
	times []time.Time
}

func (c *backwardsClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.times[0]
	if len(c.times) > 1 {
		c.times = c.times[1:]
	}
	return t
}

func TestDriverStopsWhenTickReturnsFalse(t *testing.T) {
	clock := timing.NewManualClock(time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))
	calls := 0
	d := New(clock, time.Millisecond, func(time.Time) bool {
		calls++
		clock.Advance(time.Second)
		return calls < 3
	})
	require.NoError(t, d.Run(context.Background()))
	require.Equal(t, 3, calls)
}

func TestDriverFiresImmediately(t *testing.T) {
	clock := timing.NewManualClock(time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))
	var got []time.Time
	d := New(clock, time.Hour, func(now time.Time) bool {
		got = append(got, now)
		return false
	})
	require.NoError(t, d.Run(context.Background()))
	require.Len(t, got, 1)
	require.Equal(t, clock.Now(), got[0])
}

func TestDriverNowNeverGoesBackwards(t *testing.T) {
	base := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	clock := &backwardsClock{times: []time.Time{base.Add(2 * time.Second), base, base.Add(3 * time.Second)}}
	var got []time.Time
	d := New(clock, time.Millisecond, func(now time.Time) bool {
		got = append(got, now)
		return len(got) < 3
	})
	require.NoError(t, d.Run(context.Background()))
	require.Equal(t, []time.Time{base.Add(2 * time.Second), base.Add(2 * time.Second), base.Add(3 * time.Second)}, got)
}

func TestDriverContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := New(timing.SystemClock{}, 5*time.Millisecond, func(time.Time) bool { return true })

	done := make(chan error, 1)
	go func() {
		done <- d.Run(ctx)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("driver did not stop after cancel")
	}
}

func TestDriverStopIsIdempotent(t *testing.T) {
	d := New(timing.SystemClock{}, 5*time.Millisecond, func(time.Time) bool { return true })
	done := make(chan error, 1)
	go func() {
		done <- d.Run(context.Background())
	}()
	d.Stop()
	d.Stop()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("driver did not stop")
	}
}
