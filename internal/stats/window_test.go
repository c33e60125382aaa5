package stats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestWindow_Summary computes mean, spread and extremes of the stored values.
func TestWindow_Summary(t *testing.T) {
	t.Parallel()

	w := NewWindow(4)
	require.Equal(t, Summary{}, w.Summary())

	w.Add(0.5)
	s := w.Summary()
	require.Equal(t, 1, s.Count)
	require.InDelta(t, 0.5, s.Mean, 1e-12)
	require.InDelta(t, 0.0, s.StdDev, 0)

	w.Add(1.5)
	s = w.Summary()
	require.Equal(t, 2, s.Count)
	require.InDelta(t, 1.0, s.Mean, 1e-12)
	require.InDelta(t, 0.7071067811865476, s.StdDev, 1e-12)
	require.InDelta(t, 0.5, s.Min, 0)
	require.InDelta(t, 1.5, s.Max, 0)
}

// TestWindow_Evicts keeps only the most recent values.
func TestWindow_Evicts(t *testing.T) {
	t.Parallel()

	w := NewWindow(3)
	for _, v := range []float64{9, 1, 2, 3} {
		w.Add(v)
	}

	s := w.Summary()
	require.Equal(t, 3, s.Count)
	require.InDelta(t, 2.0, s.Mean, 1e-12)
	require.InDelta(t, 1.0, s.Min, 0)
	require.InDelta(t, 3.0, s.Max, 0)

	require.Len(t, NewWindow(0).values, DefaultWindowSize)
}
