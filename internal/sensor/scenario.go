package sensor

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/proximity-alert/internal/domain/proximity"
	"github.com/oshokin/proximity-alert/internal/logger"
)

const (
	// defaultScenarioWidth matches a common phone LiDAR depth map.
	defaultScenarioWidth = 256
	// defaultScenarioHeight matches a common phone LiDAR depth map.
	defaultScenarioHeight = 192
	// defaultFrameInterval is roughly a 60 Hz sensor.
	defaultFrameInterval = 16 * time.Millisecond
)

var (
	// ErrEmptyScenario is returned for a scenario without steps.
	ErrEmptyScenario = errors.New("scenario has no steps")
	// ErrInvalidStep is returned for a step with a non-positive duration.
	ErrInvalidStep = errors.New("scenario step duration must be positive")
)

// Step holds one depth for a while. Missing means frames carry no depth payload.
type Step struct {
	Distance float64       `yaml:"distance"`
	Duration time.Duration `yaml:"duration"`
	Missing  bool          `yaml:"missing"`
}

// Scenario is a scripted sequence of depths. YAML `.nan` produces NaN readings.
type Scenario struct {
	Width         int           `yaml:"width"`
	Height        int           `yaml:"height"`
	FrameInterval time.Duration `yaml:"frame_interval"`
	Loop          bool          `yaml:"loop"`
	Steps         []Step        `yaml:"steps"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(contents, &sc); err != nil {
		return nil, fmt.Errorf("unmarshal scenario: %w", err)
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}

	return &sc, nil
}

// Validate fills defaults and checks the steps.
func (sc *Scenario) Validate() error {
	if sc.Width <= 0 {
		sc.Width = defaultScenarioWidth
	}

	if sc.Height <= 0 {
		sc.Height = defaultScenarioHeight
	}

	if sc.FrameInterval <= 0 {
		sc.FrameInterval = defaultFrameInterval
	}

	if len(sc.Steps) == 0 {
		return ErrEmptyScenario
	}

	for i, st := range sc.Steps {
		if st.Duration <= 0 {
			return fmt.Errorf("%w: step %d", ErrInvalidStep, i)
		}
	}

	return nil
}

// Frames yields one pass of the scenario starting at sensor time start seconds.
// Frames are rendered lazily so long scenarios stay cheap.
func (sc *Scenario) Frames(start float64) iter.Seq[proximity.DepthFrame] {
	return func(yield func(proximity.DepthFrame) bool) {
		stepStart := time.Duration(0)

		// Every step starts at its declared offset so a pass never runs past Duration.
		for _, st := range sc.Steps {
			stepEnd := stepStart + st.Duration

			for at := stepStart; at < stepEnd; at += sc.FrameInterval {
				frame := proximity.DepthFrame{
					Width:     sc.Width,
					Height:    sc.Height,
					Timestamp: start + at.Seconds(),
				}

				if !st.Missing {
					frame = proximity.NewUniformFrame(sc.Width, sc.Height, float32(st.Distance), frame.Timestamp)
				}

				if !yield(frame) {
					return
				}
			}

			stepStart = stepEnd
		}
	}
}

// Duration returns the sensor time covered by one pass.
func (sc *Scenario) Duration() time.Duration {
	var total time.Duration
	for _, st := range sc.Steps {
		total += st.Duration
	}

	return total
}

// ScenarioSource paces scenario frames in real time.
type ScenarioSource struct {
	scenario *Scenario
}

// NewScenarioSource returns a source replaying sc.
func NewScenarioSource(sc *Scenario) *ScenarioSource {
	return &ScenarioSource{
		scenario: sc,
	}
}

// Run pushes one frame per frame interval until the scenario ends or ctx is done.
func (s *ScenarioSource) Run(ctx context.Context, sink FrameSink) error {
	ctx = logger.WithName(ctx, "scenario-sensor")

	ticker := time.NewTicker(s.scenario.FrameInterval)
	defer ticker.Stop()

	logger.InfoKV(ctx, "Replaying scenario",
		"steps", len(s.scenario.Steps),
		"frame_interval", s.scenario.FrameInterval,
		"loop", s.scenario.Loop)

	start := 0.0

	for {
		for frame := range s.scenario.Frames(start) {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				sink.OnFrame(ctx, frame)
			}
		}

		if !s.scenario.Loop {
			logger.Info(ctx, "Scenario finished")

			return nil
		}

		start += s.scenario.Duration().Seconds()
	}
}
