package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/oshokin/proximity-alert/internal/actuator"
	api "github.com/oshokin/proximity-alert/internal/api/grpc/proximity"
	"github.com/oshokin/proximity-alert/internal/config"
	"github.com/oshokin/proximity-alert/internal/controller"
	"github.com/oshokin/proximity-alert/internal/logger"
	"github.com/oshokin/proximity-alert/internal/presenter"
	"github.com/oshokin/proximity-alert/internal/sensor"
	"github.com/oshokin/proximity-alert/internal/stats"
	"github.com/oshokin/proximity-alert/internal/version"
)

// Options controls the engine process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ListenAddress overrides the gRPC status address from the settings.
	ListenAddress string
	// WebSocketAddress overrides the dashboard stream address from the settings.
	WebSocketAddress string
	// ScenarioFile overrides the scenario file and selects the scenario source.
	ScenarioFile string
	// SerialPort overrides the serial device and selects the serial source.
	SerialPort string
	// LogLevel overrides the log level from the settings.
	LogLevel string
	// Mute silences the terminal bell; haptic pulses are still logged.
	Mute bool
	// Bell receives the audible pulses; nil means stdout.
	Bell io.Writer
}

// errSourceUnavailable is returned when no sensor source can be built.
var errSourceUnavailable = errors.New("sensor source is not available")

// Run starts the engine and blocks until ctx is canceled, the sensor stream
// ends, or a component fails.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "proximity-alert")

	// Load configuration first, then let the command line win.
	cfg, err := config.Load(opts.ConfigPath, opts.override)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	level, _ := logger.ParseLogLevel(cfg.LogLevel)
	logger.SetLevel(level)

	sessionID := uuid.NewString()
	ctx = logger.WithFields(ctx, sessionFields(sessionID)...)

	source, err := newSource(cfg)
	if err != nil {
		return err
	}

	board := newStatusBoard(sessionID, time.Now, stats.DefaultWindowSize)
	presenters := presenter.Fanout{presenter.Log{}, board}

	var hub *presenter.WebSocketHub
	if cfg.API.WebSocketAddress != "" {
		hub = presenter.NewWebSocketHub()
		presenters = append(presenters, hub)
	}

	pulser := actuator.NewPulser(actuator.NewTerminalBell(opts.bell()), actuator.LogHaptic{})

	ctrl, err := controller.New(cfg.Settings(), pulser, presenters)
	if err != nil {
		return fmt.Errorf("create controller: %w", err)
	}

	board.attach(ctrl.Counters)

	// Bind before starting anything so a busy port fails fast.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", cfg.API.GRPCAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.API.GRPCAddress, err)
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(api.LoggingInterceptor(ctx)))
	api.RegisterStatusServer(grpcServer, api.NewServer(board))

	logger.InfoKV(ctx, "Engine starting",
		"source", cfg.Sensor.Source,
		"grpc_address", lis.Addr().String(),
		"websocket_address", cfg.API.WebSocketAddress)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return ctrl.Run(groupCtx)
	})

	group.Go(func() error {
		// A finished stream ends the session.
		defer cancel()

		if err := source.Run(groupCtx, ctrl); err != nil {
			return fmt.Errorf("sensor: %w", err)
		}

		if groupCtx.Err() != nil {
			return nil
		}

		logger.Info(groupCtx, "Sensor stream ended")

		// Present the final reading before the session ends.
		if err := ctrl.Flush(groupCtx); err != nil {
			logger.WarnKV(groupCtx, "Final frame was not presented", "error", err)
		}

		return nil
	})

	group.Go(func() error {
		return serveGRPC(groupCtx, grpcServer, lis)
	})

	if hub != nil {
		group.Go(func() error {
			return hub.Serve(groupCtx, cfg.API.WebSocketAddress)
		})
	}

	err = group.Wait()

	counters := ctrl.Counters()
	logger.InfoKV(ctx, "Engine stopped",
		"frames_accepted", counters.Accepted,
		"frames_throttled", counters.Throttled,
		"frames_overwritten", counters.Overwritten,
		"pulses", pulser.Pulses())

	return err
}

// sessionFields are attached to every log line of one engine run.
func sessionFields(sessionID string) []any {
	return append([]any{"session_id", sessionID}, version.Fields()...)
}

// override applies the command line values on top of the loaded settings.
func (o *Options) override(cfg *config.Config) {
	if o.ListenAddress != "" {
		cfg.API.GRPCAddress = o.ListenAddress
	}

	if o.WebSocketAddress != "" {
		cfg.API.WebSocketAddress = o.WebSocketAddress
	}

	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}

	switch {
	case o.ScenarioFile != "":
		cfg.Sensor.Source = config.SourceScenario
		cfg.Sensor.ScenarioFile = o.ScenarioFile
	case o.SerialPort != "":
		cfg.Sensor.Source = config.SourceSerial
		cfg.Sensor.SerialPort = o.SerialPort
	}
}

// bell returns where audible pulses go.
func (o *Options) bell() io.Writer {
	switch {
	case o.Mute:
		return io.Discard
	case o.Bell != nil:
		return o.Bell
	default:
		return os.Stdout
	}
}

// newSource builds the configured depth frame source.
func newSource(cfg *config.Config) (sensor.Source, error) {
	switch cfg.Sensor.Source {
	case config.SourceScenario:
		sc, err := sensor.LoadScenario(cfg.Sensor.ScenarioFile)
		if err != nil {
			return nil, fmt.Errorf("load scenario: %w", err)
		}

		return sensor.NewScenarioSource(sc), nil
	case config.SourceSerial:
		options, err := sensor.PortOptions{
			BaudRate: cfg.Sensor.BaudRate,
			DataBits: cfg.Sensor.DataBits,
			StopBits: cfg.Sensor.StopBits,
			Parity:   cfg.Sensor.Parity,
		}.Normalize()
		if err != nil {
			return nil, fmt.Errorf("serial options: %w", err)
		}

		return sensor.NewSerialSource(cfg.Sensor.SerialPort, options), nil
	default:
		return nil, fmt.Errorf("%w: %q", errSourceUnavailable, cfg.Sensor.Source)
	}
}

// serveGRPC serves the status API until ctx is done, then stops gracefully.
func serveGRPC(ctx context.Context, server *grpc.Server, lis net.Listener) error {
	// Done channel is closed after GracefulStop finishes so we return only
	// once the server has fully stopped.
	done := make(chan struct{})

	go func() {
		defer close(done)

		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		server.GracefulStop()
	}()

	// On failure the group context is canceled and the goroutine above exits.
	if err := server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}
