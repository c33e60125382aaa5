package depth

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/proximity-alert/internal/domain/proximity"
)

var errTestMap = errors.New("test map failure")

// trackingBuffer is a DepthBuffer that records lock balance and can fail on Lock.
type trackingBuffer struct {
	// values are returned from Lock.
	values []float32
	// lockErr is returned from Lock when set.
	lockErr error
	// locks counts Lock calls.
	locks int
	// unlocks counts Unlock calls.
	unlocks int
}

// Lock returns the configured values or error.
func (b *trackingBuffer) Lock() ([]float32, error) {
	b.locks++

	if b.lockErr != nil {
		return nil, b.lockErr
	}

	return b.values, nil
}

// Unlock records the release.
func (b *trackingBuffer) Unlock() {
	b.unlocks++
}

// gridFrame builds a 4x3 frame with one float of row padding; pixel (c, r) holds r*10+c.
func gridFrame() (*proximity.DepthFrame, *trackingBuffer) {
	const (
		width, height = 4, 3
		rowElements   = width + 1
	)

	values := make([]float32, rowElements*height)
	for r := range height {
		for c := range width {
			values[r*rowElements+c] = float32(r*10 + c)
		}

		values[r*rowElements+width] = -99
	}

	buf := &trackingBuffer{values: values}

	return &proximity.DepthFrame{
		Depth:          buf,
		Width:          width,
		Height:         height,
		RowStrideBytes: rowElements * proximity.Float32Size,
	}, buf
}

// TestSample_UsesStride verifies the stride-aware index for in-range points.
func TestSample_UsesStride(t *testing.T) {
	t.Parallel()

	frame, buf := gridFrame()

	require.InDelta(t, 21.0, Sample(frame, proximity.Point{X: 1, Y: 2}), 0)
	require.InDelta(t, 12.0, Sample(frame, proximity.Point{X: 2.9, Y: 1.2}), 0)
	require.Equal(t, buf.locks, buf.unlocks)
}

// TestSample_ClampsOutOfRange checks that points outside the frame read the nearest edge pixel.
func TestSample_ClampsOutOfRange(t *testing.T) {
	t.Parallel()

	frame, buf := gridFrame()

	cases := []struct {
		point proximity.Point
		want  float64
	}{
		{point: proximity.Point{X: 4, Y: 0}, want: 3},
		{point: proximity.Point{X: 100, Y: 100}, want: 23},
		{point: proximity.Point{X: -5, Y: -5}, want: 0},
		{point: proximity.Point{X: math.NaN(), Y: 1}, want: 10},
		{point: proximity.Point{X: math.Inf(1), Y: math.Inf(-1)}, want: 3},
	}

	for _, tc := range cases {
		require.InDelta(t, tc.want, Sample(frame, tc.point), 0, "point %+v", tc.point)
	}

	require.Equal(t, len(cases), buf.locks)
	require.Equal(t, buf.locks, buf.unlocks)
}

// TestSample_NaNBecomesInvalid ensures a NaN reading yields the sentinel without an error.
func TestSample_NaNBecomesInvalid(t *testing.T) {
	t.Parallel()

	frame := proximity.NewUniformFrame(2, 2, float32(math.NaN()), 0)

	value, err := Read(&frame, frame.Center())
	require.NoError(t, err)
	require.InDelta(t, proximity.InvalidDistance, value, 0)
}

// TestRead_LockFailureReleases verifies a mapping failure returns the sentinel and still unlocks.
func TestRead_LockFailureReleases(t *testing.T) {
	t.Parallel()

	frame, buf := gridFrame()
	buf.lockErr = errTestMap

	value, err := Read(frame, proximity.Point{})
	require.ErrorIs(t, err, proximity.ErrBufferRead)
	require.ErrorIs(t, err, errTestMap)
	require.InDelta(t, proximity.InvalidDistance, value, 0)
	require.Equal(t, 1, buf.locks)
	require.Equal(t, 1, buf.unlocks)

	require.InDelta(t, proximity.InvalidDistance, Sample(frame, proximity.Point{}), 0)
}

// TestRead_ShortBuffer guards against buffers smaller than the declared geometry.
func TestRead_ShortBuffer(t *testing.T) {
	t.Parallel()

	frame, buf := gridFrame()
	buf.values = buf.values[:3]

	_, err := Read(frame, proximity.Point{X: 3, Y: 2})
	require.ErrorIs(t, err, proximity.ErrBufferRead)
	require.Equal(t, 1, buf.unlocks)
}

// TestRead_BadGeometry rejects frames whose stride cannot hold a row.
func TestRead_BadGeometry(t *testing.T) {
	t.Parallel()

	frame, buf := gridFrame()
	frame.RowStrideBytes = 4

	_, err := Read(frame, proximity.Point{})
	require.ErrorIs(t, err, proximity.ErrBufferRead)
	require.Zero(t, buf.locks)

	_, err = Read(&proximity.DepthFrame{Width: 1, Height: 1}, proximity.Point{})
	require.ErrorIs(t, err, proximity.ErrDepthUnavailable)
}
