package proximity

import "time"

// Summary describes recent valid distances.
type Summary struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Status is a point-in-time snapshot of a running engine.
type Status struct {
	// SessionID identifies the engine run.
	SessionID string
	// StartedAt is when the engine started.
	StartedAt time.Time
	// UpdatedAt is when Last was recorded; zero before the first sample.
	UpdatedAt time.Time
	// Last is the most recent update, nil before the first sample.
	Last *Update
	// FramesAccepted passed the throttle.
	FramesAccepted uint64
	// FramesThrottled were dropped by the throttle.
	FramesThrottled uint64
	// FramesOverwritten were replaced before extraction.
	FramesOverwritten uint64
	// Recent summarises the recent valid distances.
	Recent Summary
}

// Clone returns a copy of the status that shares nothing with the original.
func (s *Status) Clone() *Status {
	if s == nil {
		return nil
	}

	cloned := *s
	if s.Last != nil {
		last := *s.Last
		cloned.Last = &last
	}

	return &cloned
}
