package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"vizpipe/internal/infrastructure"
	"vizpipe/pkg/contracts/events"
)

// Hub maintains the set of active drill-down sessions
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Messages for every client
	broadcast chan []byte

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	mu sync.RWMutex

	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics

	totalConnections int64
	messagesSent     int64

	// Control
	quit     chan struct{}
	running  bool
	stopOnce sync.Once
}

// NewHub creates a new Hub. metrics may be nil.
func NewHub(metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = infrastructure.WithComponent(logger, "websocket.hub")

	return &Hub{
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger,
		metrics:    metrics,
		quit:       make(chan struct{}),
	}
}

// Start runs the hub loop in its own goroutine
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run is the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.totalConnections++
			h.mu.Unlock()

			h.metrics.SessionOpened(client.ctx)
			h.logger.InfoContext(client.ctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
			}
			count := len(h.clients)
			h.mu.Unlock()

			if ok {
				client.Close()
				h.metrics.SessionClosed(client.ctx)
				h.logger.InfoContext(client.ctx, "Client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			}

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			failCount := 0
			for _, client := range clients {
				select {
				case client.send <- message:
					h.mu.Lock()
					h.messagesSent++
					h.mu.Unlock()
				case <-client.done:
				default:
					failCount++
				}
			}

			if failCount > 0 {
				h.logger.Warn("Some clients failed to receive broadcast",
					slog.Int("success_count", len(clients)-failCount),
					slog.Int("fail_count", failCount))
			}
		}
	}
}

// Broadcast queues msg for every connected client
func (h *Hub) Broadcast(msg events.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Error marshaling broadcast message",
			slog.String("type", msg.Type),
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.quit:
	}
}

// BroadcastReload tells every chart that the datasets were reloaded
func (h *Hub) BroadcastReload(ctx context.Context) {
	h.logger.InfoContext(ctx, "Broadcasting dataset reload", slog.Int("client_count", h.ClientCount()))
	h.Broadcast(events.NewServerMessage(events.TypeReload))
}

// Register adds a client to the hub. The connection message is queued
// before the client's pumps can produce any reply.
func (h *Hub) Register(client *Client) {
	msg := events.NewServerMessage(events.TypeConnection)
	msg.ClientID = client.id
	msg.Message = "connected"
	client.Send(msg)

	select {
	case h.register <- client:
	case <-h.quit:
		client.Close()
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop closes every session and ends the hub loop
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)

		h.mu.Lock()
		defer h.mu.Unlock()
		h.running = false
		for client := range h.clients {
			h.metrics.SessionClosed(client.ctx)
			client.Close()
			delete(h.clients, client)
		}
	})
}

// GetHubMetrics returns the hub counters
func (h *Hub) GetHubMetrics() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]interface{}{
		"active_clients":    len(h.clients),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
	}
}
