package alert

import (
	"context"
	"time"

	"github.com/oshokin/proximity-alert/internal/domain/proximity"
	"github.com/oshokin/proximity-alert/internal/logger"
)

// Actuator produces the audible and haptic alert.
// StartPulses and StopPulses bracket a recurring alert; Pulse is one tone plus one haptic pulse.
type Actuator interface {
	StartPulses(ctx context.Context, interval time.Duration)
	StopPulses(ctx context.Context)
	Pulse(ctx context.Context)
}

// Scheduler starts, re-arms and stops the recurring alert.
type Scheduler struct {
	// actuator receives start, stop and pulse calls.
	actuator Actuator
	// newTicker creates the recurring registration.
	newTicker TickerFactory
	// ticker is the live registration, nil when idle.
	ticker Ticker
	// state mirrors ticker for callers.
	state proximity.AlertState
}

// Option configures the scheduler.
type Option func(*Scheduler)

// WithTickerFactory replaces the time.Ticker based factory.
func WithTickerFactory(factory TickerFactory) Option {
	return func(s *Scheduler) {
		if factory != nil {
			s.newTicker = factory
		}
	}
}

// NewScheduler returns an idle scheduler driving the actuator.
func NewScheduler(actuator Actuator, opts ...Option) *Scheduler {
	s := &Scheduler{
		actuator:  actuator,
		newTicker: NewTimeTicker,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Apply moves the state machine toward the decision.
// Repeating at the interval already running is a no-op.
func (s *Scheduler) Apply(ctx context.Context, decision proximity.CadenceDecision) {
	if decision.Kind == proximity.NoAlert {
		s.stop(ctx)

		return
	}

	if s.state.IsRunning && s.state.CurrentInterval == decision.Interval {
		return
	}

	s.stop(ctx)

	ticker, err := s.newTicker(decision.Interval)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to schedule pulses, alert stays stopped",
			"interval", decision.Interval, "error", err)

		return
	}

	s.ticker = ticker
	s.state = proximity.AlertState{
		IsRunning:       true,
		CurrentInterval: decision.Interval,
	}

	s.actuator.StartPulses(ctx, decision.Interval)
	logger.InfoKV(ctx, "Pulses started", "interval", decision.Interval)
}

// Teardown stops any recurring alert. It is idempotent.
func (s *Scheduler) Teardown(ctx context.Context) {
	s.stop(ctx)
}

// Ticks returns the channel of the live registration. It is nil while idle so
// a select on it blocks forever.
func (s *Scheduler) Ticks() <-chan time.Time {
	if s.ticker == nil {
		return nil
	}

	return s.ticker.C()
}

// Fire emits one pulse if the alert is running.
func (s *Scheduler) Fire(ctx context.Context) {
	if !s.state.IsRunning {
		return
	}

	s.actuator.Pulse(ctx)
}

// State returns the current alert state.
func (s *Scheduler) State() proximity.AlertState {
	return s.state
}

// stop cancels the live registration before anything else can be installed.
func (s *Scheduler) stop(ctx context.Context) {
	if !s.state.IsRunning {
		return
	}

	previous := s.state.CurrentInterval

	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}

	s.state = proximity.AlertState{}

	s.actuator.StopPulses(ctx)
	logger.InfoKV(ctx, "Pulses stopped", "previous_interval", previous)
}
