package proximity

import (
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/proximity-alert/internal/domain/proximity"
)

// Struct field names of the status document.
const (
	fieldSessionID         = "session_id"
	fieldStartedAt         = "started_at"
	fieldUpdatedAt         = "updated_at"
	fieldHasSample         = "has_sample"
	fieldDistance          = "distance"
	fieldTimestamp         = "timestamp"
	fieldAlertLevel        = "alert_level"
	fieldCritical          = "critical"
	fieldCadenceSeconds    = "cadence_interval_seconds"
	fieldAlertRunning      = "alert_running"
	fieldAlertSeconds      = "alert_interval_seconds"
	fieldFramesAccepted    = "frames_accepted"
	fieldFramesThrottled   = "frames_throttled"
	fieldFramesOverwritten = "frames_overwritten"
	fieldRecentCount       = "recent_count"
	fieldRecentMean        = "recent_mean"
	fieldRecentStdDev      = "recent_stddev"
	fieldRecentMin         = "recent_min"
	fieldRecentMax         = "recent_max"
)

// ToStruct converts a domain status into its protobuf Struct document.
func ToStruct(state *domain.Status) (*structpb.Struct, error) {
	fields := map[string]any{
		fieldSessionID:         state.SessionID,
		fieldStartedAt:         formatTime(state.StartedAt),
		fieldUpdatedAt:         formatTime(state.UpdatedAt),
		fieldHasSample:         state.Last != nil,
		fieldFramesAccepted:    float64(state.FramesAccepted),
		fieldFramesThrottled:   float64(state.FramesThrottled),
		fieldFramesOverwritten: float64(state.FramesOverwritten),
		fieldRecentCount:       float64(state.Recent.Count),
		fieldRecentMean:        state.Recent.Mean,
		fieldRecentStdDev:      state.Recent.StdDev,
		fieldRecentMin:         state.Recent.Min,
		fieldRecentMax:         state.Recent.Max,
	}

	if last := state.Last; last != nil {
		cadence := 0.0
		if last.Decision.Kind == domain.Repeat {
			cadence = last.Decision.Interval.Seconds()
		}

		fields[fieldDistance] = last.Sample.Value
		fields[fieldTimestamp] = last.Sample.Timestamp
		fields[fieldAlertLevel] = last.AlertLevel
		fields[fieldCritical] = last.Critical
		fields[fieldCadenceSeconds] = cadence
		fields[fieldAlertRunning] = last.Alert.IsRunning
		fields[fieldAlertSeconds] = last.Alert.CurrentInterval.Seconds()
	}

	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode status: %w", err)
	}

	return msg, nil
}

// FromStruct converts a status document back into the domain model.
// Missing fields keep their zero values.
func FromStruct(msg *structpb.Struct) *domain.Status {
	fields := msg.GetFields()
	num := func(name string) float64 { return fields[name].GetNumberValue() }
	flag := func(name string) bool { return fields[name].GetBoolValue() }
	text := func(name string) string { return fields[name].GetStringValue() }

	state := &domain.Status{
		SessionID:         text(fieldSessionID),
		StartedAt:         parseTime(text(fieldStartedAt)),
		UpdatedAt:         parseTime(text(fieldUpdatedAt)),
		FramesAccepted:    uint64(num(fieldFramesAccepted)),
		FramesThrottled:   uint64(num(fieldFramesThrottled)),
		FramesOverwritten: uint64(num(fieldFramesOverwritten)),
		Recent: domain.Summary{
			Count:  int(num(fieldRecentCount)),
			Mean:   num(fieldRecentMean),
			StdDev: num(fieldRecentStdDev),
			Min:    num(fieldRecentMin),
			Max:    num(fieldRecentMax),
		},
	}

	if !flag(fieldHasSample) {
		return state
	}

	decision := domain.Silence()
	if cadence := num(fieldCadenceSeconds); cadence > 0 {
		decision = domain.RepeatEvery(seconds(cadence))
	}

	state.Last = &domain.Update{
		Sample: domain.DistanceSample{
			Value:     num(fieldDistance),
			Timestamp: num(fieldTimestamp),
		},
		AlertLevel: num(fieldAlertLevel),
		Critical:   flag(fieldCritical),
		Decision:   decision,
		Alert: domain.AlertState{
			IsRunning:       flag(fieldAlertRunning),
			CurrentInterval: seconds(num(fieldAlertSeconds)),
		},
	}

	return state
}

// seconds converts float seconds to a duration rounded to the nanosecond.
func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// formatTime renders t, or an empty string for the zero time.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime is the inverse of formatTime; malformed input yields the zero time.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}

	return t
}
