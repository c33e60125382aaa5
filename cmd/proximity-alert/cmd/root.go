package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/proximity-alert/internal/config"
	"github.com/oshokin/proximity-alert/internal/service/engine"
	"github.com/oshokin/proximity-alert/internal/version"
)

var (
	// options collects the command line overrides.
	options = new(engine.Options)

	// rootCmd represents the base command for running the engine.
	rootCmd = &cobra.Command{
		Use:   "proximity-alert [listen-address]",
		Short: "Turn a depth sensor stream into a graduated proximity alert.",
		Long: `Reads depth frames from a serial sensor or a scripted scenario, samples the
distance at the frame centre and drives a beeping alert whose cadence rises as an
obstacle gets closer.

The status of the running engine is served over gRPC; proximity-monitor reads it.
The listen address argument overrides api.grpc_address from the configuration file.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if len(args) > 0 {
				options.ListenAddress = args[0]
			}

			return engine.Run(ctx, options)
		},
	}
)

// Execute runs the proximity-alert CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&options.ConfigPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVar(&options.ScenarioFile, "scenario", "", "replay a scenario file instead of the configured source")
	flags.StringVar(&options.SerialPort, "serial", "", "read frames from this serial device instead of the configured source")
	flags.StringVar(&options.WebSocketAddress, "websocket", "", "serve the dashboard stream on this address")
	flags.StringVarP(&options.LogLevel, "log-level", "l", "", "log level: debug, info, warn, error")
	flags.BoolVarP(&options.Mute, "mute", "m", false, "do not ring the terminal bell")

	rootCmd.MarkFlagsMutuallyExclusive("scenario", "serial")
}
