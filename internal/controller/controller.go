// Package controller wires depth sampling, cadence mapping and alert
// scheduling into the proximity-alert pipeline.
//
// Frames are pushed through OnFrame by the sensor. Accepted frames go through
// a single-slot mailbox to a background extraction worker, and the resulting
// samples are handed to the owner goroutine running Run. Only that goroutine
// touches the scheduler and the presenter.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/oshokin/proximity-alert/internal/alert"
	"github.com/oshokin/proximity-alert/internal/cadence"
	"github.com/oshokin/proximity-alert/internal/depth"
	"github.com/oshokin/proximity-alert/internal/domain/proximity"
	"github.com/oshokin/proximity-alert/internal/logger"
)

// DefaultCriticalDistance is the distance in meters below which an update is critical.
const DefaultCriticalDistance = 1.0

// ErrInvalidCriticalDistance is returned for a non-positive critical distance.
var ErrInvalidCriticalDistance = errors.New("critical distance must be positive")

// Presenter receives the display signal for every accepted sample.
type Presenter interface {
	OnDistanceUpdate(ctx context.Context, update proximity.Update)
}

// Settings are the tunables of the pipeline.
type Settings struct {
	// MinFrameInterval is the throttle spacing between processed frames.
	MinFrameInterval time.Duration
	// CriticalDistance marks updates as critical below it.
	CriticalDistance float64
	// Bands is the cadence table; nil selects cadence.DefaultBands.
	Bands []cadence.Band
}

// DefaultSettings returns the built-in tunables.
func DefaultSettings() Settings {
	return Settings{
		MinFrameInterval: depth.DefaultMinInterval,
		CriticalDistance: DefaultCriticalDistance,
		Bands:            cadence.DefaultBands(),
	}
}

// Counters report frame flow through the pipeline.
type Counters struct {
	// Accepted frames passed the throttle.
	Accepted uint64
	// Throttled frames arrived too soon after the previous accepted one.
	Throttled uint64
	// Overwritten frames were accepted but replaced in the mailbox before extraction.
	Overwritten uint64
}

// Controller is the proximity-alert pipeline.
type Controller struct {
	sampler          *depth.Sampler
	mapper           *cadence.Mapper
	scheduler        *alert.Scheduler
	presenter        Presenter
	criticalDistance float64

	// frames is the single-slot mailbox between OnFrame and the extraction worker.
	frames chan proximity.DepthFrame
	// samples carries extracted distances to the owner goroutine.
	samples chan proximity.DistanceSample
	// flushes asks the worker to drain the mailbox; flushed hands the request to the owner.
	flushes chan chan struct{}
	flushed chan chan struct{}

	overwritten atomic.Uint64
}

// New validates the settings and builds an idle controller.
func New(
	settings Settings,
	actuator alert.Actuator,
	presenter Presenter,
	opts ...alert.Option,
) (*Controller, error) {
	if !(settings.CriticalDistance > 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCriticalDistance, settings.CriticalDistance)
	}

	throttler, err := depth.NewThrottler(settings.MinFrameInterval)
	if err != nil {
		return nil, fmt.Errorf("create throttler: %w", err)
	}

	bands := settings.Bands
	if bands == nil {
		bands = cadence.DefaultBands()
	}

	mapper, err := cadence.NewMapper(bands)
	if err != nil {
		return nil, fmt.Errorf("create cadence mapper: %w", err)
	}

	return &Controller{
		sampler:          depth.NewSampler(throttler),
		mapper:           mapper,
		scheduler:        alert.NewScheduler(actuator, opts...),
		presenter:        presenter,
		criticalDistance: settings.CriticalDistance,
		frames:           make(chan proximity.DepthFrame, 1),
		samples:          make(chan proximity.DistanceSample),
		flushes:          make(chan chan struct{}),
		flushed:          make(chan chan struct{}),
	}, nil
}

// OnFrame is the push interface for the sensor. It never blocks: throttled
// frames are dropped and an accepted frame replaces one still waiting for the worker.
// Deliveries must not overlap.
func (c *Controller) OnFrame(_ context.Context, frame proximity.DepthFrame) {
	if !c.sampler.Admit(&frame) {
		return
	}

	select {
	case c.frames <- frame:
		return
	default:
	}

	select {
	case <-c.frames:
		c.overwritten.Add(1)
	default:
	}

	select {
	case c.frames <- frame:
	default:
		c.overwritten.Add(1)
	}
}

// Run owns the alert state until ctx is done. It always leaves the alert stopped.
func (c *Controller) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "controller")

	workerDone := make(chan struct{})

	go func() {
		defer close(workerDone)

		c.extract(ctx)
	}()

	defer func() {
		c.scheduler.Teardown(ctx)
		<-workerDone
	}()

	logger.InfoKV(ctx, "Proximity controller started",
		"min_frame_interval", c.sampler.MinInterval(),
		"critical_distance", c.criticalDistance,
		"silent_from", c.mapper.Limit())

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, stopping controller")

			return nil
		case sample := <-c.samples:
			c.handle(ctx, sample)
		case <-c.scheduler.Ticks():
			c.scheduler.Fire(ctx)
		case done := <-c.flushed:
			close(done)
		}
	}
}

// Flush blocks until every frame accepted before the call has been presented.
// Run must be active; Flush returns ctx.Err() if ctx ends first.
func (c *Controller) Flush(ctx context.Context) error {
	done := make(chan struct{})

	select {
	case c.flushes <- done:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Counters returns the frame flow counters. Safe for concurrent use.
func (c *Controller) Counters() Counters {
	sampled := c.sampler.Counters()

	return Counters{
		Accepted:    sampled.Accepted,
		Throttled:   sampled.Dropped,
		Overwritten: c.overwritten.Load(),
	}
}

// extract runs on the background worker and never touches alert state.
func (c *Controller) extract(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-c.frames:
			if !c.deliver(ctx, &frame) {
				return
			}
		case done := <-c.flushes:
			select {
			case frame := <-c.frames:
				if !c.deliver(ctx, &frame) {
					return
				}
			default:
			}

			// The owner handles samples in order, so done closes after the last one is presented.
			select {
			case c.flushed <- done:
			case <-ctx.Done():
				return
			}
		}
	}
}

// deliver extracts the frame and hands the sample to the owner.
// It returns false once ctx is done.
func (c *Controller) deliver(ctx context.Context, frame *proximity.DepthFrame) bool {
	sample, ok := c.sampler.Extract(ctx, frame)
	if !ok {
		return true
	}

	select {
	case c.samples <- sample:
		return true
	case <-ctx.Done():
		return false
	}
}

// handle applies one sample on the owner goroutine.
func (c *Controller) handle(ctx context.Context, sample proximity.DistanceSample) {
	decision := c.mapper.Map(sample.Value)
	c.scheduler.Apply(ctx, decision)

	update := proximity.NewUpdate(sample, c.criticalDistance, decision)
	update.Alert = c.scheduler.State()

	logger.DebugKV(ctx, "Distance sampled",
		"distance", sample.Value, "timestamp", sample.Timestamp, "decision", decision.String())

	if c.presenter != nil {
		c.presenter.OnDistanceUpdate(ctx, update)
	}
}
