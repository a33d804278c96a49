package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
	"github.com/arturoeanton/go-ecs-exec-evidence/internal/port"
)

func startEvent(sessionID, initiator string) domain.AuditEvent {
	return domain.AuditEvent{
		EventID:   "ev-" + sessionID,
		EventName: domain.SessionStartEventName,
		SessionID: sessionID,
		Initiator: initiator,
	}
}

func TestPollProbesImmediately(t *testing.T) {
	clock := newFakeClock()
	start := clock.Now()
	calls := 0
	v, err := Poll(context.Background(), clock, 10*time.Second, 30*time.Second, func(context.Context) (string, bool, error) {
		calls++
		return "hit", true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "hit", v)
	assert.Equal(t, 1, calls)
	assert.Equal(t, start, clock.Now())
}

func TestPollProbesAtTimeoutBoundary(t *testing.T) {
	clock := newFakeClock()
	start := clock.Now()
	var at []time.Duration
	_, err := Poll(context.Background(), clock, 10*time.Second, 25*time.Second, func(context.Context) (int, bool, error) {
		at = append(at, clock.Now().Sub(start))
		return 0, false, nil
	})
	require.ErrorIs(t, err, ErrPollTimeout)
	assert.Equal(t, []time.Duration{0, 10 * time.Second, 20 * time.Second, 25 * time.Second}, at)
}

func TestPollKeepsGoingAfterProbeError(t *testing.T) {
	clock := newFakeClock()
	calls := 0
	v, err := Poll(context.Background(), clock, time.Second, 10*time.Second, func(context.Context) (int, bool, error) {
		calls++
		if calls < 3 {
			return 0, false, errors.New("throttled")
		}
		return 7, true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 3, calls)
}

func TestPollTimeoutCarriesLastError(t *testing.T) {
	_, err := Poll(context.Background(), newFakeClock(), time.Second, 2*time.Second, func(context.Context) (int, bool, error) {
		return 0, false, errors.New("throttled")
	})
	require.ErrorIs(t, err, ErrPollTimeout)
	assert.Contains(t, err.Error(), "throttled")
}

func TestPollStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Poll(ctx, newFakeClock(), time.Second, time.Minute, func(context.Context) (int, bool, error) {
		return 0, false, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocateDelayedEvent(t *testing.T) {
	const timeout = 30 * time.Second
	tests := []struct {
		name      string
		delay     time.Duration
		wantFound bool
	}{
		{"already visible", 0, true},
		{"visible before timeout", 25 * time.Second, true},
		{"visible exactly at timeout", timeout, true},
		{"visible after timeout", 35 * time.Second, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			start := clock.Now()
			source := newPagedSource(clock, 10,
				delayedEvent{event: startEvent("other", "arn:aws:iam::1:role/Other")},
				delayedEvent{event: startEvent("sess-1", "arn:aws:iam::1:role/Admin"), after: tt.delay},
			)
			locator := NewLocator(source, LocatorConfig{Interval: 10 * time.Second}).WithClock(clock)

			ev, err := locator.Locate(context.Background(), "sess-1", timeout)
			if tt.wantFound {
				require.NoError(t, err)
				assert.Equal(t, "arn:aws:iam::1:role/Admin", ev.Initiator)
				assert.LessOrEqual(t, clock.Now().Sub(start), timeout)
				return
			}
			require.ErrorIs(t, err, port.ErrInitiatorNotFound)
			assert.GreaterOrEqual(t, clock.Now().Sub(start), timeout)
		})
	}
}

func TestLocateWalksPages(t *testing.T) {
	clock := newFakeClock()
	var events []delayedEvent
	for i := range 5 {
		events = append(events, delayedEvent{event: startEvent(fmt.Sprintf("sess-%d", i), "arn:aws:iam::1:role/R")})
	}
	source := newPagedSource(clock, 2, events...)

	ev, err := NewLocator(source, LocatorConfig{}).WithClock(clock).Locate(context.Background(), "sess-4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "sess-4", ev.SessionID)
	assert.Equal(t, 3, source.Calls())
}

func TestLocateRespectsMaxPages(t *testing.T) {
	clock := newFakeClock()
	var events []delayedEvent
	for i := range 5 {
		events = append(events, delayedEvent{event: startEvent(fmt.Sprintf("sess-%d", i), "arn:aws:iam::1:role/R")})
	}
	source := newPagedSource(clock, 2, events...)
	locator := NewLocator(source, LocatorConfig{Interval: 10 * time.Second, MaxPages: 2}).WithClock(clock)

	_, err := locator.Locate(context.Background(), "sess-4", 10*time.Second)
	require.ErrorIs(t, err, port.ErrInitiatorNotFound)
	// Two scans (at 0s and 10s) of two pages each.
	assert.Equal(t, 4, source.Calls())
}

func TestLocateSkipsEventsWithoutInitiator(t *testing.T) {
	clock := newFakeClock()
	source := newPagedSource(clock, 10, delayedEvent{event: startEvent("sess-1", "")})

	_, err := NewLocator(source, LocatorConfig{Interval: 5 * time.Second}).WithClock(clock).Locate(context.Background(), "sess-1", 5*time.Second)
	assert.ErrorIs(t, err, port.ErrInitiatorNotFound)
}

func TestLocateTreatsSourceErrorsAsMiss(t *testing.T) {
	clock := newFakeClock()
	source := newPagedSource(clock, 10)
	source.err = fmt.Errorf("%w: throttled", port.ErrTransient)

	_, err := NewLocator(source, LocatorConfig{Interval: 10 * time.Second}).WithClock(clock).Locate(context.Background(), "sess-1", 30*time.Second)
	require.ErrorIs(t, err, port.ErrInitiatorNotFound)
	assert.Equal(t, 4, source.Calls())
}

func TestLocateRequiresSessionID(t *testing.T) {
	source := newPagedSource(newFakeClock(), 10)
	_, err := NewLocator(source, LocatorConfig{}).Locate(context.Background(), "", time.Second)
	require.ErrorIs(t, err, port.ErrMissingField)
	assert.Zero(t, source.Calls())
}

func TestLocateClampsToContextDeadline(t *testing.T) {
	clock := newFakeClock()
	start := clock.Now()
	source := newPagedSource(clock, 10)

	ctx, cancel := context.WithTimeout(context.Background(), deadlineMargin+5*time.Second)
	defer cancel()

	_, err := NewLocator(source, LocatorConfig{Interval: 10 * time.Second}).WithClock(clock).Locate(ctx, "sess-1", 5*time.Minute)
	require.ErrorIs(t, err, port.ErrInitiatorNotFound)
	assert.LessOrEqual(t, clock.Now().Sub(start), 5*time.Second)
	assert.Equal(t, 2, source.Calls())
}

func TestLocateDeadlineInsideMargin(t *testing.T) {
	clock := newFakeClock()
	source := newPagedSource(clock, 10, delayedEvent{event: startEvent("sess-1", "arn:aws:iam::1:role/R")})

	ctx, cancel := context.WithTimeout(context.Background(), deadlineMargin/2)
	defer cancel()

	// No time left to wait, but an already visible event is still found.
	ev, err := NewLocator(source, LocatorConfig{}).WithClock(clock).Locate(ctx, "sess-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:iam::1:role/R", ev.Initiator)
	assert.Equal(t, 1, source.Calls())
}
