package alert

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/proximity-alert/internal/domain/proximity"
)

var errTestTimer = errors.New("test timer failure")

// event is one recorded actuator call.
type event struct {
	Kind     string
	Interval time.Duration
}

// recordingActuator stores start and stop calls and counts pulses.
type recordingActuator struct {
	mu sync.Mutex
	// events holds start/stop calls in order.
	events []event
	// pulses counts Pulse calls.
	pulses int
}

// StartPulses records a start event.
func (r *recordingActuator) StartPulses(_ context.Context, interval time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event{Kind: "start", Interval: interval})
}

// StopPulses records a stop event.
func (r *recordingActuator) StopPulses(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event{Kind: "stop"})
}

// Pulse counts a pulse.
func (r *recordingActuator) Pulse(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pulses++
}

// snapshot returns a copy of the recorded events and the pulse count.
func (r *recordingActuator) snapshot() ([]event, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]event(nil), r.events...), r.pulses
}

// requireEvents diffs the recorded events against want.
func requireEvents(t *testing.T, act *recordingActuator, want ...event) {
	t.Helper()

	got, _ := act.snapshot()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("actuator events mismatch (-want +got):\n%s", diff)
	}
}

// TestScheduler_RepeatIsIdempotent starts once for two identical decisions.
func TestScheduler_RepeatIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	act := new(recordingActuator)
	s := NewScheduler(act)
	defer s.Teardown(ctx)

	s.Apply(ctx, proximity.RepeatEvery(300*time.Millisecond))
	s.Apply(ctx, proximity.RepeatEvery(300*time.Millisecond))

	requireEvents(t, act, event{Kind: "start", Interval: 300 * time.Millisecond})
	require.Equal(t, proximity.AlertState{IsRunning: true, CurrentInterval: 300 * time.Millisecond}, s.State())
	require.NotNil(t, s.Ticks())
}

// TestScheduler_IntervalChangeRearms stops the old cadence before starting the new one.
func TestScheduler_IntervalChangeRearms(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	act := new(recordingActuator)
	s := NewScheduler(act)
	defer s.Teardown(ctx)

	s.Apply(ctx, proximity.RepeatEvery(300*time.Millisecond))
	first := s.Ticks()

	s.Apply(ctx, proximity.RepeatEvery(500*time.Millisecond))

	requireEvents(t, act,
		event{Kind: "start", Interval: 300 * time.Millisecond},
		event{Kind: "stop"},
		event{Kind: "start", Interval: 500 * time.Millisecond},
	)
	require.NotEqual(t, first, s.Ticks())
	require.Equal(t, 500*time.Millisecond, s.State().CurrentInterval)
}

// TestScheduler_NoAlert stops a running alert and ignores repeats while idle.
func TestScheduler_NoAlert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	act := new(recordingActuator)
	s := NewScheduler(act)

	s.Apply(ctx, proximity.Silence())
	requireEvents(t, act)

	s.Apply(ctx, proximity.RepeatEvery(time.Second))
	s.Apply(ctx, proximity.Silence())
	s.Apply(ctx, proximity.Silence())

	requireEvents(t, act,
		event{Kind: "start", Interval: time.Second},
		event{Kind: "stop"},
	)
	require.Equal(t, proximity.AlertState{}, s.State())
	require.Nil(t, s.Ticks())
}

// TestScheduler_TeardownIdempotent is safe on idle and running schedulers.
func TestScheduler_TeardownIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	act := new(recordingActuator)
	s := NewScheduler(act)

	s.Teardown(ctx)
	s.Teardown(ctx)
	requireEvents(t, act)
	require.False(t, s.State().IsRunning)

	s.Apply(ctx, proximity.RepeatEvery(100*time.Millisecond))
	s.Teardown(ctx)
	s.Teardown(ctx)

	requireEvents(t, act,
		event{Kind: "start", Interval: 100 * time.Millisecond},
		event{Kind: "stop"},
	)
	require.False(t, s.State().IsRunning)
	require.Nil(t, s.Ticks())
}

// TestScheduler_TimerFailureFailsSafe leaves the alert stopped when no ticker can be created.
func TestScheduler_TimerFailureFailsSafe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	act := new(recordingActuator)
	s := NewScheduler(act)

	s.Apply(ctx, proximity.RepeatEvery(time.Second))
	s.Apply(ctx, proximity.RepeatEvery(0))

	requireEvents(t, act,
		event{Kind: "start", Interval: time.Second},
		event{Kind: "stop"},
	)
	require.False(t, s.State().IsRunning)

	failing := NewScheduler(act, WithTickerFactory(func(time.Duration) (Ticker, error) {
		return nil, errTestTimer
	}))
	failing.Apply(ctx, proximity.RepeatEvery(time.Second))
	require.False(t, failing.State().IsRunning)
	require.Nil(t, failing.Ticks())
}

// TestScheduler_FirePulses delivers one pulse per tick of the live registration.
func TestScheduler_FirePulses(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		act := new(recordingActuator)
		s := NewScheduler(act)

		s.Apply(ctx, proximity.RepeatEvery(300*time.Millisecond))

		deadline := time.After(1000 * time.Millisecond)

	loop:
		for {
			select {
			case <-s.Ticks():
				s.Fire(ctx)
			case <-deadline:
				break loop
			}
		}

		s.Teardown(ctx)
		s.Fire(ctx)

		_, pulses := act.snapshot()
		require.Equal(t, 3, pulses)
	})
}
