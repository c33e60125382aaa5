package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/proximity-alert/internal/config"
	domain "github.com/oshokin/proximity-alert/internal/domain/proximity"
	"github.com/oshokin/proximity-alert/internal/logger"
	"github.com/oshokin/proximity-alert/internal/presenter"
	"github.com/oshokin/proximity-alert/internal/service/common"
)

// Options controls the monitor polling behavior and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ServerAddress provides an optional gRPC address override.
	ServerAddress string
	// PollInterval defines the interval between status checks.
	PollInterval time.Duration
	// FailOnCritical stops the monitor with ErrCriticalDistance on the first critical reading.
	FailOnCritical bool
}

// DefaultPollInterval defines the default polling interval for status checks.
const DefaultPollInterval = time.Second

// ErrCriticalDistance reports that the engine saw an obstacle inside the critical distance.
var ErrCriticalDistance = errors.New("critical distance reached")

// Run polls the engine status until ctx is canceled.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "proximity-monitor")

	// Load settings from configuration file.
	// The monitor never opens a sensor, so that section may be incomplete.
	cfg, err := config.Load(opts.ConfigPath, config.WithoutSensor, func(cfg *config.Config) {
		if opts.ServerAddress != "" {
			cfg.API.GRPCAddress = opts.ServerAddress
		}
	})
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	ctx = logger.WithKV(ctx, "server_address", cfg.API.GRPCAddress)

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	dialOptions := []common.Option{common.WithCallTimeout(cfg.Timeout)}

	// The actor only tags requests in the engine log, so failing to detect it is not fatal.
	actor, err := common.DetectActor()
	if err != nil {
		logger.WarnKV(ctx, "Unable to detect actor", "error", err)
	} else {
		dialOptions = append(dialOptions, common.WithActor(actor))
	}

	client, err := common.Dial(ctx, cfg.API.GRPCAddress, dialOptions...)
	if err != nil {
		return fmt.Errorf("dial engine: %w", err)
	}

	// Ensure connection cleanup on function exit.
	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Polling proximity state", "interval", pollInterval.String())

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")

			return nil
		case <-ticker.C:
			err = checkState(ctx, client, opts.FailOnCritical)
			if errors.Is(err, ErrCriticalDistance) {
				return err
			}

			if err != nil {
				logger.ErrorKV(ctx, "Check state failed", "error", err)
			}
		}
	}
}

// statusClient is the part of the client the monitor needs.
type statusClient interface {
	GetProximityState(ctx context.Context) (*domain.Status, error)
}

// checkState fetches one snapshot and logs it. A critical reading is logged as
// a warning and, when failOnCritical is set, returned as ErrCriticalDistance.
func checkState(ctx context.Context, client statusClient, failOnCritical bool) error {
	state, err := client.GetProximityState(ctx)
	if err != nil {
		return err
	}

	kvs := []any{
		"session_id", state.SessionID,
		"frames_accepted", state.FramesAccepted,
		"frames_throttled", state.FramesThrottled,
	}

	last := state.Last
	if last == nil {
		logger.InfoKV(ctx, "Waiting for the first reading", kvs...)

		return nil
	}

	kvs = append(kvs,
		"alert_running", last.Alert.IsRunning,
		"alert_interval", last.Alert.CurrentInterval.String(),
		"recent_mean", state.Recent.Mean,
		"recent_min", state.Recent.Min)

	if !last.Critical {
		logger.InfoKV(ctx, presenter.Readout(*last), kvs...)

		return nil
	}

	logger.WarnKV(ctx, presenter.Readout(*last), kvs...)

	if failOnCritical {
		return fmt.Errorf("%w: %.2f m", ErrCriticalDistance, last.Sample.Value)
	}

	return nil
}
