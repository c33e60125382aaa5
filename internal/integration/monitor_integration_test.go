package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/proximity-alert/internal/service/monitor"
)

// TestMonitor_FailsOnCritical polls a live engine until it reports a critical reading.
func TestMonitor_FailsOnCritical(t *testing.T) {
	t.Parallel()

	grpcAddr := reservePort(t)
	cfgPath := writeSettings(t, closeScenario, grpcAddr, "")

	stop, _ := startEngine(t, cfgPath)
	defer func() {
		require.NoError(t, stop())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := monitor.Run(ctx, &monitor.Options{
		ConfigPath:     cfgPath,
		PollInterval:   50 * time.Millisecond,
		FailOnCritical: true,
	})
	require.ErrorIs(t, err, monitor.ErrCriticalDistance)
}

// TestMonitor_ReturnsOnCancel keeps polling until its context is canceled.
func TestMonitor_ReturnsOnCancel(t *testing.T) {
	t.Parallel()

	grpcAddr := reservePort(t)
	cfgPath := writeSettings(t, closeScenario, grpcAddr, "")

	stop, _ := startEngine(t, cfgPath)
	defer func() {
		require.NoError(t, stop())
	}()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- monitor.Run(ctx, &monitor.Options{
			ConfigPath:    cfgPath,
			ServerAddress: grpcAddr,
			PollInterval:  50 * time.Millisecond,
		})
	}()

	time.Sleep(300 * time.Millisecond)
	cancel()

	require.NoError(t, <-done)
}
