package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/proximity-alert/internal/config"
	"github.com/oshokin/proximity-alert/internal/service/monitor"
	"github.com/oshokin/proximity-alert/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// pollInterval between status checks.
	pollInterval = monitor.DefaultPollInterval
	// failOnCritical exits with an error on the first critical reading.
	failOnCritical bool

	// rootCmd represents the base command for the status poller.
	rootCmd = &cobra.Command{
		Use:   "proximity-monitor [server-address]",
		Short: "Poll a running proximity-alert engine and log its state.",
		Long: `Connects to the gRPC status API of a running proximity-alert engine and logs
the latest distance, alert cadence and frame counters at a fixed interval.

Server address can be provided as argument to override api.grpc_address from the
configuration file. With --fail-on-critical the monitor exits with a non-zero
status as soon as the engine reports a critical distance.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var serverAddress string
			if len(args) > 0 {
				serverAddress = args[0]
			}

			options := &monitor.Options{
				ConfigPath:     configPath,
				ServerAddress:  serverAddress,
				PollInterval:   pollInterval,
				FailOnCritical: failOnCritical,
			}

			return monitor.Run(ctx, options)
		},
	}
)

// Execute runs the proximity-monitor CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().DurationVarP(&pollInterval, "interval", "i", monitor.DefaultPollInterval, "interval between status checks")
	rootCmd.Flags().BoolVar(&failOnCritical, "fail-on-critical", false, "exit with an error on the first critical reading")
}
