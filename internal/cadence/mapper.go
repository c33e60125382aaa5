// Package cadence maps a distance to the repetition interval of the alert.
package cadence

import (
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/proximity-alert/internal/domain/proximity"
)

// Band assigns Interval to distances below Below and at or above the previous band's bound.
type Band struct {
	// Below is the exclusive upper bound in meters.
	Below float64 `yaml:"below"`
	// Interval is the pulse spacing inside the band.
	Interval time.Duration `yaml:"interval"`
}

var (
	// ErrNoBands is returned for an empty cadence table.
	ErrNoBands = errors.New("cadence table has no bands")
	// ErrBandOrder is returned when band bounds are not strictly ascending and positive.
	ErrBandOrder = errors.New("cadence bands must have strictly ascending positive bounds")
	// ErrBandInterval is returned for a non-positive pulse interval.
	ErrBandInterval = errors.New("cadence band interval must be positive")
)

// DefaultBands returns the built-in table; urgency grows as the obstacle gets closer.
func DefaultBands() []Band {
	return []Band{
		{Below: 0.2, Interval: 100 * time.Millisecond},
		{Below: 0.5, Interval: 300 * time.Millisecond},
		{Below: 0.7, Interval: 500 * time.Millisecond},
		{Below: 1.0, Interval: time.Second},
	}
}

// Mapper is a pure distance-to-cadence policy. It is safe for concurrent use.
type Mapper struct {
	bands []Band
}

// NewMapper validates the table and returns a mapper over a private copy of it.
func NewMapper(bands []Band) (*Mapper, error) {
	if err := Validate(bands); err != nil {
		return nil, err
	}

	return &Mapper{
		bands: append([]Band(nil), bands...),
	}, nil
}

// MustDefault returns a mapper over DefaultBands.
func MustDefault() *Mapper {
	m, err := NewMapper(DefaultBands())
	if err != nil {
		panic(err)
	}

	return m
}

// Validate checks bound ordering and interval positivity.
func Validate(bands []Band) error {
	if len(bands) == 0 {
		return ErrNoBands
	}

	previous := 0.0
	for i, b := range bands {
		if !(b.Below > previous) {
			return fmt.Errorf("%w: band %d bound %v", ErrBandOrder, i, b.Below)
		}

		if b.Interval <= 0 {
			return fmt.Errorf("%w: band %d interval %s", ErrBandInterval, i, b.Interval)
		}

		previous = b.Below
	}

	return nil
}

// Map returns the cadence for distance. Invalid readings and distances at or
// beyond the last bound yield NoAlert.
func (m *Mapper) Map(distance float64) proximity.CadenceDecision {
	if !(distance >= 0) {
		return proximity.Silence()
	}

	for _, b := range m.bands {
		if distance < b.Below {
			return proximity.RepeatEvery(b.Interval)
		}
	}

	return proximity.Silence()
}

// Limit returns the distance from which the mapper stays silent.
func (m *Mapper) Limit() float64 {
	return m.bands[len(m.bands)-1].Below
}
