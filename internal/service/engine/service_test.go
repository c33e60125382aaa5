package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/proximity-alert/internal/controller"
	domain "github.com/oshokin/proximity-alert/internal/domain/proximity"
)

// fixedClock returns a clock advancing one second per call.
func fixedClock() func() time.Time {
	at := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

	return func() time.Time {
		at = at.Add(time.Second)

		return at
	}
}

// TestStatusBoard_Empty reports the session before any update.
func TestStatusBoard_Empty(t *testing.T) {
	t.Parallel()

	b := newStatusBoard("s-1", fixedClock(), 4)

	state := b.GetProximityState(context.Background())
	require.Equal(t, "s-1", state.SessionID)
	require.Nil(t, state.Last)
	require.True(t, state.UpdatedAt.IsZero())
	require.Zero(t, state.Recent.Count)
}

// TestStatusBoard_Updates keeps the latest update and skips invalid readings in statistics.
func TestStatusBoard_Updates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := newStatusBoard("s-2", fixedClock(), 4)
	b.attach(func() controller.Counters {
		return controller.Counters{Accepted: 3, Throttled: 9, Overwritten: 1}
	})

	for _, v := range []float64{0.4, 0.8, -1} {
		sample := domain.NewDistanceSample(v, 1)
		b.OnDistanceUpdate(ctx, domain.NewUpdate(sample, 1.0, domain.Silence()))
	}

	state := b.GetProximityState(ctx)
	require.NotNil(t, state.Last)
	require.InDelta(t, domain.InvalidDistance, state.Last.Sample.Value, 0)
	require.Equal(t, 2, state.Recent.Count)
	require.InDelta(t, 0.6, state.Recent.Mean, 1e-12)
	require.InDelta(t, 0.4, state.Recent.Min, 0)
	require.InDelta(t, 0.8, state.Recent.Max, 0)
	require.Equal(t, uint64(3), state.FramesAccepted)
	require.Equal(t, uint64(9), state.FramesThrottled)
	require.Equal(t, uint64(1), state.FramesOverwritten)
	require.True(t, state.UpdatedAt.After(state.StartedAt))
}

// TestStatusBoard_SnapshotIsolation ensures a snapshot does not see later updates.
func TestStatusBoard_SnapshotIsolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := newStatusBoard("s-3", nil, 0)

	b.OnDistanceUpdate(ctx, domain.NewUpdate(domain.NewDistanceSample(0.3, 1), 1.0, domain.RepeatEvery(300*time.Millisecond)))
	first := b.GetProximityState(ctx)

	first.Last.Sample.Value = 42

	b.OnDistanceUpdate(ctx, domain.NewUpdate(domain.NewDistanceSample(0.9, 2), 1.0, domain.RepeatEvery(time.Second)))
	second := b.GetProximityState(ctx)

	require.InDelta(t, 0.9, second.Last.Sample.Value, 0)
	require.InDelta(t, 42.0, first.Last.Sample.Value, 0)
}
