package presenter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oshokin/proximity-alert/internal/domain/proximity"
	"github.com/oshokin/proximity-alert/internal/logger"
)

const (
	// clientBuffer is how many updates may queue per client before updates are dropped.
	clientBuffer = 8
	// writeTimeout bounds a single websocket write.
	writeTimeout = 2 * time.Second
	// shutdownTimeout bounds the HTTP server shutdown.
	shutdownTimeout = 3 * time.Second
)

// Message is the JSON document streamed to dashboards.
type Message struct {
	Distance        float64 `json:"distance"`
	AlertLevel      float64 `json:"alert_level"`
	Critical        bool    `json:"critical"`
	AlertRunning    bool    `json:"alert_running"`
	IntervalSeconds float64 `json:"interval_seconds"`
	Timestamp       float64 `json:"timestamp"`
}

// NewMessage converts an update into its wire document.
func NewMessage(update proximity.Update) Message {
	return Message{
		Distance:        update.Sample.Value,
		AlertLevel:      update.AlertLevel,
		Critical:        update.Critical,
		AlertRunning:    update.Alert.IsRunning,
		IntervalSeconds: update.Alert.CurrentInterval.Seconds(),
		Timestamp:       update.Sample.Timestamp,
	}
}

// wsClient is one connected dashboard.
type wsClient struct {
	// conn is the upgraded connection.
	conn *websocket.Conn
	// send queues messages for the writer goroutine; closed on removal.
	send chan Message
}

// WebSocketHub broadcasts updates to every connected websocket client.
// Slow clients lose updates instead of delaying the controller.
type WebSocketHub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// NewWebSocketHub returns an empty hub.
func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*wsClient]struct{}),
	}
}

// ServeHTTP upgrades the request and streams updates until the client goes away.
func (h *WebSocketHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithName(r.Context(), "websocket")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnKV(ctx, "Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)

		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan Message, clientBuffer),
	}

	h.add(client)
	logger.InfoKV(ctx, "Dashboard connected", "remote", r.RemoteAddr)

	go h.write(client)

	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}

	h.remove(client)
	logger.InfoKV(ctx, "Dashboard disconnected", "remote", r.RemoteAddr)
}

// OnDistanceUpdate queues the update for every client without blocking.
func (h *WebSocketHub) OnDistanceUpdate(ctx context.Context, update proximity.Update) {
	msg := NewMessage(update)

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			logger.DebugKV(ctx, "Dashboard too slow, update dropped", "remote", c.conn.RemoteAddr().String())
		}
	}
}

// Clients returns the number of connected clients.
func (h *WebSocketHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// Close disconnects every client.
func (h *WebSocketHub) Close() {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))

	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.remove(c)
	}
}

// Serve listens on address and serves the hub at /ws until ctx is done.
func (h *WebSocketHub) Serve(ctx context.Context, address string) error {
	ctx = logger.WithName(ctx, "websocket")

	mux := http.NewServeMux()
	mux.Handle("/ws", h)

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", address, err)
	}

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: writeTimeout,
	}

	done := make(chan struct{})

	go func() {
		defer close(done)

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		h.Close()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WarnKV(ctx, "Websocket server shutdown failed", "error", err)
		}
	}()

	logger.InfoKV(ctx, "Websocket dashboard stream listening", "listen_address", lis.Addr().String())

	if err := server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve websocket: %w", err)
	}

	<-done

	return nil
}

// add registers a client.
func (h *WebSocketHub) add(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = struct{}{}
}

// remove unregisters a client once and closes its queue.
func (h *WebSocketHub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}

	delete(h.clients, c)
	close(c.send)
}

// write drains the client queue onto the connection.
func (h *WebSocketHub) write(c *wsClient) {
	defer func() {
		_ = c.conn.Close()
	}()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))

		if err := c.conn.WriteJSON(msg); err != nil {
			h.remove(c)

			return
		}
	}

	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout),
	)
}
