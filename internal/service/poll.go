package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrPollTimeout is returned by Poll when the probe never reported done.
var ErrPollTimeout = errors.New("poll timed out")

// Clock abstracts time for the poll loop so tests can run it on simulated time.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// Sleep blocks for d or until ctx is done.
func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Probe checks once for the awaited condition.
type Probe[T any] func(ctx context.Context) (value T, done bool, err error)

// Poll runs probe every interval until it reports done or timeout has
// elapsed. The probe runs immediately and once more at the timeout boundary,
// so a condition that becomes true at exactly the deadline is still observed.
// Probe errors are logged and treated as a miss.
func Poll[T any](ctx context.Context, clock Clock, interval, timeout time.Duration, probe Probe[T]) (T, error) {
	var zero T
	start := clock.Now()
	var lastErr error

	for attempt := 1; ; attempt++ {
		v, done, err := probe(ctx)
		switch {
		case err != nil:
			lastErr = err
			slog.Warn("probe failed", "attempt", attempt, "error", err)
		case done:
			return v, nil
		}

		elapsed := clock.Now().Sub(start)
		if elapsed >= timeout {
			if lastErr != nil {
				return zero, fmt.Errorf("%w after %s: last error: %v", ErrPollTimeout, elapsed, lastErr)
			}
			return zero, fmt.Errorf("%w after %s", ErrPollTimeout, elapsed)
		}

		wait := interval
		if remaining := timeout - elapsed; remaining < wait {
			wait = remaining
		}
		if err := clock.Sleep(ctx, wait); err != nil {
			return zero, err
		}
	}
}
