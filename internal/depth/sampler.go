package depth

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/oshokin/proximity-alert/internal/domain/proximity"
	"github.com/oshokin/proximity-alert/internal/logger"
)

// Sampler turns accepted frames into distance samples taken at the frame centre.
type Sampler struct {
	throttler *Throttler

	accepted atomic.Uint64
	dropped  atomic.Uint64
}

// Counters is a snapshot of how many frames the sampler let through.
type Counters struct {
	Accepted uint64
	Dropped  uint64
}

// NewSampler wraps the throttler.
func NewSampler(throttler *Throttler) *Sampler {
	return &Sampler{
		throttler: throttler,
	}
}

// Admit applies the throttle to the frame timestamp. Frames that are rejected
// need no further processing.
func (s *Sampler) Admit(frame *proximity.DepthFrame) bool {
	if !s.throttler.Accept(frame.Timestamp) {
		s.dropped.Add(1)

		return false
	}

	s.accepted.Add(1)

	return true
}

// Extract reads the centre distance of an admitted frame.
// It returns false when the frame has no depth payload.
func (s *Sampler) Extract(ctx context.Context, frame *proximity.DepthFrame) (proximity.DistanceSample, bool) {
	if frame.Depth == nil {
		logger.WarnKV(ctx, "No depth map available", "timestamp", frame.Timestamp)

		return proximity.DistanceSample{}, false
	}

	value, err := Read(frame, frame.Center())
	switch {
	case err == nil:
	case errors.Is(err, proximity.ErrDepthUnavailable):
		logger.WarnKV(ctx, "No depth map available", "timestamp", frame.Timestamp)

		return proximity.DistanceSample{}, false
	default:
		logger.WarnKV(ctx, "Failed to read depth buffer", "timestamp", frame.Timestamp, "error", err)
	}

	return proximity.NewDistanceSample(value, frame.Timestamp), true
}

// Process admits and extracts in one step.
func (s *Sampler) Process(ctx context.Context, frame *proximity.DepthFrame) (proximity.DistanceSample, bool) {
	if !s.Admit(frame) {
		return proximity.DistanceSample{}, false
	}

	return s.Extract(ctx, frame)
}

// Counters returns the admitted and throttled frame counts.
func (s *Sampler) Counters() Counters {
	return Counters{
		Accepted: s.accepted.Load(),
		Dropped:  s.dropped.Load(),
	}
}

// MinInterval returns the throttle interval.
func (s *Sampler) MinInterval() time.Duration {
	return s.throttler.MinInterval()
}
