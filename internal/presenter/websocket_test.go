package presenter

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/proximity-alert/internal/domain/proximity"
)

// TestWebSocketHub_Broadcast streams an update to a connected dashboard.
func TestWebSocketHub_Broadcast(t *testing.T) {
	t.Parallel()

	hub := NewWebSocketHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
		_ = conn.Close()
	}()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	u := proximity.NewUpdate(proximity.NewDistanceSample(0.6, 1.2), 1, proximity.RepeatEvery(500*time.Millisecond))
	hub.OnDistanceUpdate(context.Background(), u)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var got Message
	require.NoError(t, conn.ReadJSON(&got))
	require.InDelta(t, 0.6, got.Distance, 1e-12)
	require.True(t, got.Critical)
	require.InDelta(t, 1.2, got.Timestamp, 1e-12)

	hub.Close()
	require.Zero(t, hub.Clients())

	_, _, err = conn.ReadMessage()
	require.Error(t, err)
}

// TestWebSocketHub_ClientLeaves unregisters clients that disconnect.
func TestWebSocketHub_ClientLeaves(t *testing.T) {
	t.Parallel()

	hub := NewWebSocketHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)

	_ = resp.Body.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

// TestWebSocketHub_Serve stops serving when the context is canceled.
func TestWebSocketHub_Serve(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- NewWebSocketHub().Serve(ctx, "127.0.0.1:0")
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
