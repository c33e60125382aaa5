package sensor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.bug.st/serial"

	"github.com/oshokin/proximity-alert/internal/logger"
)

// DefaultBaudRate is used when the configuration leaves the baud rate unset.
const DefaultBaudRate = 115200

// PortOptions describes the serial link to the sensor.
type PortOptions struct {
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
}

// Normalize validates the options and applies defaults for unset values.
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = DefaultBaudRate
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}

	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}

	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	switch strings.ToUpper(strings.TrimSpace(opts.Parity)) {
	case "", "N", "NONE":
		opts.Parity = "N"
	case "E", "EVEN":
		opts.Parity = "E"
	case "O", "ODD":
		opts.Parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", o.Parity)
	}

	return opts, nil
}

// SerialMode converts the options into the mode used by go.bug.st/serial.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		StopBits: serial.OneStopBit,
		Parity:   serial.NoParity,
	}

	if opts.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}

	switch opts.Parity {
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	}

	return mode, nil
}

// PortOpener opens the device at path.
type PortOpener func(path string, mode *serial.Mode) (io.ReadCloser, error)

// openSerialPort is the PortOpener backed by a real serial port.
func openSerialPort(path string, mode *serial.Mode) (io.ReadCloser, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	return port, nil
}

// SerialSource streams wire-encoded frames from a serial-attached ranging sensor.
type SerialSource struct {
	path    string
	options PortOptions
	open    PortOpener
}

// SerialOption configures a SerialSource.
type SerialOption func(*SerialSource)

// WithPortOpener replaces the real serial port, mainly for tests.
func WithPortOpener(open PortOpener) SerialOption {
	return func(s *SerialSource) {
		if open != nil {
			s.open = open
		}
	}
}

// NewSerialSource returns a source reading from the device at path.
func NewSerialSource(path string, options PortOptions, opts ...SerialOption) *SerialSource {
	s := &SerialSource{
		path:    path,
		options: options,
		open:    openSerialPort,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run decodes frames until the port closes or ctx is done. Malformed frames are
// logged and skipped.
func (s *SerialSource) Run(ctx context.Context, sink FrameSink) error {
	ctx = logger.WithName(ctx, "serial-sensor")

	mode, err := s.options.SerialMode()
	if err != nil {
		return fmt.Errorf("serial options: %w", err)
	}

	port, err := s.open(s.path, mode)
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", s.path, err)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = port.Close()
	})

	defer func() {
		if stop() {
			_ = port.Close()
		}
	}()

	logger.InfoKV(ctx, "Reading depth frames", "port", s.path, "baud_rate", mode.BaudRate)

	decoder := NewDecoder(port)

	for {
		frame, err := decoder.Decode()

		switch {
		case err == nil:
			sink.OnFrame(ctx, frame)
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, io.EOF):
			logger.Info(ctx, "Serial stream ended")

			return nil
		case errors.Is(err, ErrFrameHeader):
			logger.WarnKV(ctx, "Skipping malformed frame", "error", err)
		default:
			return fmt.Errorf("read serial stream: %w", err)
		}
	}
}
