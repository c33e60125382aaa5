package depth

import (
	"errors"
	"fmt"
	"time"
)

// DefaultMinInterval is the default minimum spacing between accepted frames.
const DefaultMinInterval = 200 * time.Millisecond

// timestampTolerance absorbs float64 rounding in sensor timestamps, so 0.6-0.4 counts as 0.2.
const timestampTolerance = 1e-9

// ErrInvalidInterval is returned for a non-positive throttling interval.
var ErrInvalidInterval = errors.New("minimum frame interval must be positive")

// Throttler admits frames no closer together than a minimum interval.
// It has a single writer and is not safe for concurrent use.
type Throttler struct {
	interval    time.Duration
	minInterval float64
	last        float64
	primed      bool
}

// NewThrottler creates a throttler with the given minimum interval.
func NewThrottler(minInterval time.Duration) (*Throttler, error) {
	if minInterval <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInterval, minInterval)
	}

	return &Throttler{
		interval:    minInterval,
		minInterval: minInterval.Seconds(),
	}, nil
}

// Accept reports whether a frame stamped at timestamp seconds should be processed.
// The first frame is always accepted. A timestamp earlier than the last accepted
// one is taken as a sensor clock reset and restarts the baseline.
func (t *Throttler) Accept(timestamp float64) bool {
	if t.primed && timestamp >= t.last && timestamp-t.last < t.minInterval-timestampTolerance {
		return false
	}

	t.last = timestamp
	t.primed = true

	return true
}

// MinInterval returns the configured interval.
func (t *Throttler) MinInterval() time.Duration {
	return t.interval
}
