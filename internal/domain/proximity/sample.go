package proximity

import (
	"fmt"
	"math"
	"time"
)

// InvalidDistance is the sentinel for an unavailable or unreadable distance.
const InvalidDistance = -1.0

// DistanceSample is the distance extracted from one accepted frame.
type DistanceSample struct {
	// Value is meters, or InvalidDistance.
	Value float64
	// Timestamp is the sensor time of the source frame in seconds.
	Timestamp float64
}

// NewDistanceSample normalises raw readings: NaN, infinities and negatives become InvalidDistance.
func NewDistanceSample(value, timestamp float64) DistanceSample {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		value = InvalidDistance
	}

	return DistanceSample{
		Value:     value,
		Timestamp: timestamp,
	}
}

// IsValid reports whether the sample holds a real measurement.
func (s DistanceSample) IsValid() bool {
	return s.Value >= 0
}

// CadenceKind enumerates cadence decisions.
type CadenceKind int

const (
	// NoAlert means the alert must be silent.
	NoAlert CadenceKind = iota
	// Repeat means the alert pulses every Interval.
	Repeat
)

// CadenceDecision is the alert cadence derived from a single distance.
type CadenceDecision struct {
	Kind     CadenceKind
	Interval time.Duration
}

// Silence returns a NoAlert decision.
func Silence() CadenceDecision {
	return CadenceDecision{Kind: NoAlert}
}

// RepeatEvery returns a Repeat decision with the given interval.
func RepeatEvery(interval time.Duration) CadenceDecision {
	return CadenceDecision{
		Kind:     Repeat,
		Interval: interval,
	}
}

// String renders the decision for logs.
func (d CadenceDecision) String() string {
	if d.Kind == NoAlert {
		return "no-alert"
	}

	return fmt.Sprintf("repeat every %s", d.Interval)
}

// AlertState describes the recurring actuation currently installed.
type AlertState struct {
	IsRunning       bool
	CurrentInterval time.Duration
}

// Update is the presentation signal emitted for every accepted sample.
type Update struct {
	// Sample is the distance the update was derived from.
	Sample DistanceSample
	// AlertLevel is the distance clamped to [0, 1]; invalid samples yield 0.
	AlertLevel float64
	// Critical reports a valid distance below the critical threshold.
	Critical bool
	// Decision is the cadence the scheduler was asked to apply.
	Decision CadenceDecision
	// Alert is the scheduler state after the decision was applied.
	Alert AlertState
}

// NewUpdate derives the presentation signal for a sample.
func NewUpdate(sample DistanceSample, criticalDistance float64, decision CadenceDecision) Update {
	level := 0.0
	if sample.IsValid() {
		level = math.Max(0, math.Min(sample.Value, 1))
	}

	return Update{
		Sample:     sample,
		AlertLevel: level,
		Critical:   sample.IsValid() && sample.Value < criticalDistance,
		Decision:   decision,
	}
}
