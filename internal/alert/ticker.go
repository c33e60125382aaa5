package alert

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInterval is returned when a ticker is requested with a non-positive period.
var ErrInvalidInterval = errors.New("pulse interval must be positive")

// Ticker delivers recurring ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a ticker firing every interval.
type TickerFactory func(interval time.Duration) (Ticker, error)

// timeTicker adapts *time.Ticker to Ticker.
type timeTicker struct {
	ticker *time.Ticker
}

// C returns the tick channel.
func (t *timeTicker) C() <-chan time.Time {
	return t.ticker.C
}

// Stop releases the ticker.
func (t *timeTicker) Stop() {
	t.ticker.Stop()
}

// NewTimeTicker is the default TickerFactory backed by time.NewTicker.
func NewTimeTicker(interval time.Duration) (Ticker, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}

	return &timeTicker{
		ticker: time.NewTicker(interval),
	}, nil
}
