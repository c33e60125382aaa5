package cadence

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/proximity-alert/internal/domain/proximity"
)

// TestMap_DefaultTable walks every band including the inclusive lower and exclusive upper bounds.
func TestMap_DefaultTable(t *testing.T) {
	t.Parallel()

	m := MustDefault()

	cases := map[float64]proximity.CadenceDecision{
		0:                         proximity.RepeatEvery(100 * time.Millisecond),
		0.19:                      proximity.RepeatEvery(100 * time.Millisecond),
		0.2:                       proximity.RepeatEvery(300 * time.Millisecond),
		0.49:                      proximity.RepeatEvery(300 * time.Millisecond),
		0.5:                       proximity.RepeatEvery(500 * time.Millisecond),
		0.7:                       proximity.RepeatEvery(time.Second),
		0.999:                     proximity.RepeatEvery(time.Second),
		1.0:                       proximity.Silence(),
		4.2:                       proximity.Silence(),
		proximity.InvalidDistance: proximity.Silence(),
		-0.3:                      proximity.Silence(),
		math.Inf(1):               proximity.Silence(),
	}

	for distance, want := range cases {
		require.Equal(t, want, m.Map(distance), "distance %v", distance)
	}

	require.Equal(t, proximity.Silence(), m.Map(math.NaN()))
	require.InDelta(t, 1.0, m.Limit(), 0)
}

// TestMap_NoAlertIffFar checks the NoAlert rule across a dense sweep of distances.
func TestMap_NoAlertIffFar(t *testing.T) {
	t.Parallel()

	m := MustDefault()

	for i := 0; i <= 300; i++ {
		d := float64(i) / 100
		silent := m.Map(d).Kind == proximity.NoAlert
		require.Equal(t, d >= 1.0, silent, "distance %v", d)
	}
}

// TestMap_Monotonic ensures intervals never grow as the distance shrinks.
func TestMap_Monotonic(t *testing.T) {
	t.Parallel()

	m := MustDefault()
	previous := time.Duration(0)

	for i := 0; i < 100; i++ {
		decision := m.Map(float64(i) / 100)
		require.Equal(t, proximity.Repeat, decision.Kind)
		require.GreaterOrEqual(t, decision.Interval, previous)
		previous = decision.Interval
	}
}

// TestNewMapper_Validation rejects malformed tables and copies valid ones.
func TestNewMapper_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewMapper(nil)
	require.ErrorIs(t, err, ErrNoBands)

	_, err = NewMapper([]Band{{Below: 0.5, Interval: time.Second}, {Below: 0.5, Interval: time.Second}})
	require.ErrorIs(t, err, ErrBandOrder)

	_, err = NewMapper([]Band{{Below: 0, Interval: time.Second}})
	require.ErrorIs(t, err, ErrBandOrder)

	_, err = NewMapper([]Band{{Below: 0.5, Interval: 0}})
	require.ErrorIs(t, err, ErrBandInterval)

	bands := []Band{{Below: 2, Interval: 2 * time.Second}}
	m, err := NewMapper(bands)
	require.NoError(t, err)

	bands[0].Interval = time.Hour
	require.Equal(t, proximity.RepeatEvery(2*time.Second), m.Map(1.5))
	require.Equal(t, proximity.Silence(), m.Map(2))
}
