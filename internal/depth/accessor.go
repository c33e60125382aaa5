package depth

import (
	"fmt"
	"math"

	"github.com/oshokin/proximity-alert/internal/domain/proximity"
)

// Sample returns the raw depth at point, or proximity.InvalidDistance when the
// buffer cannot be read or holds NaN. The point is clamped per axis to the frame.
func Sample(frame *proximity.DepthFrame, point proximity.Point) float64 {
	value, err := Read(frame, point)
	if err != nil {
		return proximity.InvalidDistance
	}

	return value
}

// Read is Sample with the failure reason exposed. NaN readings are not an error.
func Read(frame *proximity.DepthFrame, point proximity.Point) (float64, error) {
	if frame == nil || frame.Depth == nil {
		return proximity.InvalidDistance, proximity.ErrDepthUnavailable
	}

	if frame.Width <= 0 || frame.Height <= 0 || frame.RowStrideBytes < frame.Width*proximity.Float32Size {
		return proximity.InvalidDistance, fmt.Errorf(
			"%w: geometry %dx%d stride %d",
			proximity.ErrBufferRead, frame.Width, frame.Height, frame.RowStrideBytes,
		)
	}

	col := clamp(point.X, frame.Width-1)
	row := clamp(point.Y, frame.Height-1)
	index := row*(frame.RowStrideBytes/proximity.Float32Size) + col

	values, err := frame.Depth.Lock()
	defer frame.Depth.Unlock()

	if err != nil {
		return proximity.InvalidDistance, fmt.Errorf("%w: %w", proximity.ErrBufferRead, err)
	}

	if index >= len(values) {
		return proximity.InvalidDistance, fmt.Errorf(
			"%w: index %d beyond %d values", proximity.ErrBufferRead, index, len(values),
		)
	}

	raw := float64(values[index])
	if math.IsNaN(raw) {
		return proximity.InvalidDistance, nil
	}

	return raw, nil
}

// clamp truncates v and bounds it to [0, maxIndex]. NaN maps to 0.
func clamp(v float64, maxIndex int) int {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= float64(maxIndex):
		return maxIndex
	default:
		return int(v)
	}
}
