package integration

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/proximity-alert/internal/config"
	"github.com/oshokin/proximity-alert/internal/service/engine"
)

// reservePort returns address on a free TCP port and closes it.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// writeSettings stores a scenario and a settings file pointing at it.
// An empty wsAddr leaves the dashboard stream disabled.
func writeSettings(t *testing.T, scenario, grpcAddr, wsAddr string) string {
	t.Helper()

	dir := t.TempDir()
	scenarioPath := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(scenarioPath, []byte(scenario), 0o600))

	cfgPath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, config.Save(cfgPath, &config.Config{
		Timeout: time.Second,
		Sensor: config.Sensor{
			Source:       config.SourceScenario,
			ScenarioFile: scenarioPath,
		},
		API: config.API{
			GRPCAddress:      grpcAddr,
			WebSocketAddress: wsAddr,
		},
	}))

	return cfgPath
}

// startEngine runs the engine in the background.
// The returned stop cancels it and returns the error of Run.
func startEngine(t *testing.T, cfgPath string) (stop func() error, done <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)

	go func() {
		result <- engine.Run(ctx, &engine.Options{
			ConfigPath: cfgPath,
			Mute:       true,
		})
	}()

	stop = func() error {
		cancel()

		select {
		case err := <-result:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("engine did not stop")

			return nil
		}
	}

	return stop, result
}
