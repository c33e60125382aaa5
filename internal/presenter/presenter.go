package presenter

import (
	"context"
	"fmt"

	"github.com/oshokin/proximity-alert/internal/domain/proximity"
	"github.com/oshokin/proximity-alert/internal/logger"
)

// Presenter receives distance updates on the controller's owner goroutine.
type Presenter interface {
	OnDistanceUpdate(ctx context.Context, update proximity.Update)
}

// Fanout forwards each update to every presenter in order.
type Fanout []Presenter

// OnDistanceUpdate forwards the update.
func (f Fanout) OnDistanceUpdate(ctx context.Context, update proximity.Update) {
	for _, p := range f {
		if p != nil {
			p.OnDistanceUpdate(ctx, update)
		}
	}
}

// Log writes the distance readout; critical readings are logged as warnings.
type Log struct{}

// Readout formats the distance the way the display shows it.
func Readout(update proximity.Update) string {
	return fmt.Sprintf("Distance: %.2f m", update.Sample.Value)
}

// OnDistanceUpdate logs the readout.
func (Log) OnDistanceUpdate(ctx context.Context, update proximity.Update) {
	kvs := []any{
		"alert_level", update.AlertLevel,
		"cadence", update.Decision.String(),
	}

	if update.Critical {
		logger.WarnKV(ctx, Readout(update), kvs...)

		return
	}

	logger.InfoKV(ctx, Readout(update), kvs...)
}
