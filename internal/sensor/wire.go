package sensor

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/oshokin/proximity-alert/internal/domain/proximity"
)

// Wire layout, little-endian:
//
//	magic "DPTH" | width u16 | height u16 | stride u32 | timestamp f64 | height*stride payload bytes
//
// A zero stride marks a frame without depth data.
const (
	headerSize = 4 + 2 + 2 + 4 + 8
	// MaxDimension bounds width and height of a decoded frame.
	MaxDimension = 4096
	// MaxRowPadding bounds the bytes a row may carry beyond its depth values.
	MaxRowPadding = 64
	// MaxPayloadBytes bounds the depth payload of a single frame.
	MaxPayloadBytes = 8 << 20
)

var (
	// magic starts every frame on the wire.
	magic = []byte("DPTH")

	// ErrFrameHeader is returned for a header with impossible geometry.
	ErrFrameHeader = errors.New("invalid frame header")
)

// Decoder reads framed depth maps from a byte stream and resynchronises on the magic.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder wraps r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r: bufio.NewReader(r),
	}
}

// Decode reads the next frame. It returns io.EOF when the stream ends between frames.
func (d *Decoder) Decode() (proximity.DepthFrame, error) {
	if err := d.sync(); err != nil {
		return proximity.DepthFrame{}, err
	}

	var header [headerSize - 4]byte
	if _, err := io.ReadFull(d.r, header[:]); err != nil {
		return proximity.DepthFrame{}, fmt.Errorf("read frame header: %w", noEOF(err))
	}

	frame := proximity.DepthFrame{
		Width:          int(binary.LittleEndian.Uint16(header[0:2])),
		Height:         int(binary.LittleEndian.Uint16(header[2:4])),
		RowStrideBytes: int(binary.LittleEndian.Uint32(header[4:8])),
		Timestamp:      math.Float64frombits(binary.LittleEndian.Uint64(header[8:16])),
	}

	if err := checkHeader(&frame); err != nil {
		return proximity.DepthFrame{}, err
	}

	if frame.RowStrideBytes == 0 {
		return frame, nil
	}

	payload := make([]byte, frame.Height*frame.RowStrideBytes)
	if _, err := io.ReadFull(d.r, payload); err != nil {
		return proximity.DepthFrame{}, fmt.Errorf("read frame payload: %w", noEOF(err))
	}

	values := make(proximity.Float32Buffer, len(payload)/proximity.Float32Size)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[i*proximity.Float32Size:]))
	}

	frame.Depth = values

	return frame, nil
}

// Encode writes frame to w in wire format. A frame without depth is written with a zero stride.
func Encode(w io.Writer, frame *proximity.DepthFrame) error {
	header := *frame
	if frame.Depth == nil {
		header.RowStrideBytes = 0
	}

	if err := checkHeader(&header); err != nil {
		return err
	}

	var buf bytes.Buffer

	buf.Write(magic)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(header.Width))          //nolint:gosec // Bounded by checkHeader.
	_ = binary.Write(&buf, binary.LittleEndian, uint16(header.Height))         //nolint:gosec // Bounded by checkHeader.
	_ = binary.Write(&buf, binary.LittleEndian, uint32(header.RowStrideBytes)) //nolint:gosec // Bounded by checkHeader.
	_ = binary.Write(&buf, binary.LittleEndian, math.Float64bits(header.Timestamp))

	if header.RowStrideBytes > 0 {
		if err := writePayload(&buf, &header); err != nil {
			return err
		}
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	return nil
}

// writePayload appends height*stride bytes of depth values, holding the buffer lock meanwhile.
func writePayload(buf *bytes.Buffer, frame *proximity.DepthFrame) error {
	values, err := frame.Depth.Lock()
	defer frame.Depth.Unlock()

	if err != nil {
		return fmt.Errorf("%w: %w", proximity.ErrBufferRead, err)
	}

	need := frame.Height * frame.RowStrideBytes / proximity.Float32Size
	if len(values) < need {
		return fmt.Errorf("%w: %d values, need %d", ErrFrameHeader, len(values), need)
	}

	_ = binary.Write(buf, binary.LittleEndian, values[:need])

	return nil
}

// sync consumes bytes until the magic has been read.
func (d *Decoder) sync() error {
	matched := 0

	for matched < len(magic) {
		b, err := d.r.ReadByte()
		if err != nil {
			if matched > 0 {
				return fmt.Errorf("read frame magic: %w", noEOF(err))
			}

			return err
		}

		switch {
		case b == magic[matched]:
			matched++
		case b == magic[0]:
			matched = 1
		default:
			matched = 0
		}
	}

	return nil
}

// checkHeader rejects geometry that cannot describe a float32 depth map.
func checkHeader(f *proximity.DepthFrame) error {
	switch {
	case f.Width == 0 || f.Height == 0 || f.Width > MaxDimension || f.Height > MaxDimension:
		return fmt.Errorf("%w: size %dx%d", ErrFrameHeader, f.Width, f.Height)
	case f.RowStrideBytes == 0:
		return nil
	case f.RowStrideBytes%proximity.Float32Size != 0 ||
		f.RowStrideBytes < f.Width*proximity.Float32Size ||
		f.RowStrideBytes > f.Width*proximity.Float32Size+MaxRowPadding:
		return fmt.Errorf("%w: stride %d for width %d", ErrFrameHeader, f.RowStrideBytes, f.Width)
	case f.Height*f.RowStrideBytes > MaxPayloadBytes:
		return fmt.Errorf("%w: payload %d bytes exceeds %d", ErrFrameHeader, f.Height*f.RowStrideBytes, MaxPayloadBytes)
	default:
		return nil
	}
}

// noEOF turns a clean EOF inside a frame into io.ErrUnexpectedEOF.
func noEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}

	return err
}
