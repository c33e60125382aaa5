// Package stats keeps rolling statistics over the most recent valid distances.
package stats

import (
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultWindowSize is the number of recent samples summarised.
const DefaultWindowSize = 50

// Summary describes the samples currently in the window.
type Summary struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Window is a fixed-size ring of distances. It is safe for concurrent use.
type Window struct {
	mu     sync.Mutex
	values []float64
	next   int
	full   bool
}

// NewWindow returns a window holding up to size values; non-positive sizes use the default.
func NewWindow(size int) *Window {
	if size <= 0 {
		size = DefaultWindowSize
	}

	return &Window{
		values: make([]float64, size),
	}
}

// Add records a value, evicting the oldest one when full.
func (w *Window) Add(v float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.values[w.next] = v
	w.next = (w.next + 1) % len(w.values)

	if w.next == 0 {
		w.full = true
	}
}

// Summary computes statistics over the stored values.
func (w *Window) Summary() Summary {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := w.next
	if w.full {
		n = len(w.values)
	}

	if n == 0 {
		return Summary{}
	}

	data := w.values[:n]
	mean, std := stat.MeanStdDev(data, nil)

	if n == 1 {
		std = 0
	}

	return Summary{
		Count:  n,
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(data),
		Max:    floats.Max(data),
	}
}
