package engine

import (
	"context"
	"sync"
	"time"

	"github.com/oshokin/proximity-alert/internal/controller"
	domain "github.com/oshokin/proximity-alert/internal/domain/proximity"
	"github.com/oshokin/proximity-alert/internal/stats"
)

// statusBoard records what the engine last presented and serves snapshots of it.
// It is a presenter on the owner goroutine and a status source for the API.
type statusBoard struct {
	// state is the latest snapshot without counters and statistics.
	state *domain.Status
	// recent keeps the latest valid distances.
	recent *stats.Window
	// counters reads the controller frame counters; nil until attached.
	counters func() controller.Counters
	// now stamps updates.
	now func() time.Time
	// mu protects state and counters.
	mu sync.RWMutex
}

// newStatusBoard returns an empty board for the given session.
func newStatusBoard(sessionID string, now func() time.Time, window int) *statusBoard {
	if now == nil {
		now = time.Now
	}

	return &statusBoard{
		state: &domain.Status{
			SessionID: sessionID,
			StartedAt: now(),
		},
		recent: stats.NewWindow(window),
		now:    now,
	}
}

// attach wires the frame counters of a running controller.
func (b *statusBoard) attach(counters func() controller.Counters) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.counters = counters
}

// OnDistanceUpdate records the update. Invalid readings do not enter the statistics.
func (b *statusBoard) OnDistanceUpdate(_ context.Context, update domain.Update) {
	if update.Sample.IsValid() {
		b.recent.Add(update.Sample.Value)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.state.Last = &update
	b.state.UpdatedAt = b.now()
}

// GetProximityState returns a snapshot that shares nothing with the board.
func (b *statusBoard) GetProximityState(context.Context) *domain.Status {
	b.mu.RLock()
	result := b.state.Clone()
	counters := b.counters
	b.mu.RUnlock()

	if counters != nil {
		c := counters()
		result.FramesAccepted = c.Accepted
		result.FramesThrottled = c.Throttled
		result.FramesOverwritten = c.Overwritten
	}

	summary := b.recent.Summary()
	result.Recent = domain.Summary{
		Count:  summary.Count,
		Mean:   summary.Mean,
		StdDev: summary.StdDev,
		Min:    summary.Min,
		Max:    summary.Max,
	}

	return result
}
