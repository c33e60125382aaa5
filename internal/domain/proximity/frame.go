package proximity

import "errors"

// Float32Size is the byte width of one depth element.
const Float32Size = 4

var (
	// ErrDepthUnavailable is reported when a frame carries no depth payload.
	ErrDepthUnavailable = errors.New("depth unavailable")
	// ErrBufferRead is reported when a depth buffer cannot be locked or mapped.
	ErrBufferRead = errors.New("depth buffer read failure")
)

// DepthBuffer is a lockable, read-only view over row-major float32 depth values in meters.
// Lock must be paired with Unlock on every path, including when Lock fails.
type DepthBuffer interface {
	Lock() ([]float32, error)
	Unlock()
}

// Float32Buffer is an in-memory DepthBuffer that never fails to lock.
type Float32Buffer []float32

// Lock returns the underlying slice.
func (b Float32Buffer) Lock() ([]float32, error) {
	return b, nil
}

// Unlock is a no-op for in-memory buffers.
func (Float32Buffer) Unlock() {}

// DepthFrame is one timestamped depth snapshot. It is owned by the sensor and only
// borrowed by the engine for the duration of a single extraction.
type DepthFrame struct {
	// Depth is the depth payload; nil means the frame has no depth data.
	Depth DepthBuffer
	// Width is the number of columns.
	Width int
	// Height is the number of rows.
	Height int
	// RowStrideBytes is the length of one row in bytes including padding.
	RowStrideBytes int
	// Timestamp is the sensor clock time in seconds.
	Timestamp float64
}

// Center returns the geometric centre of the frame.
func (f *DepthFrame) Center() Point {
	return Point{
		X: float64(f.Width) / 2,
		Y: float64(f.Height) / 2,
	}
}

// Point is a pixel position; fractional parts are truncated on lookup.
type Point struct {
	X float64
	Y float64
}

// NewUniformFrame builds a tightly packed frame where every pixel reports the same depth.
func NewUniformFrame(width, height int, depth float32, timestamp float64) DepthFrame {
	values := make(Float32Buffer, width*height)
	for i := range values {
		values[i] = depth
	}

	return DepthFrame{
		Depth:          values,
		Width:          width,
		Height:         height,
		RowStrideBytes: width * Float32Size,
		Timestamp:      timestamp,
	}
}
