package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	apperrors "vizpipe/internal/errors"
	"vizpipe/internal/infrastructure"
	"vizpipe/internal/services"
	"vizpipe/pkg/contracts/events"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Default keepalive timing; pings go out at 9/10 of it
	defaultPongWait = 60 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 1024

	sendBufferSize = 64
)

// Client is one drill-down session: it reads hover and leave messages
// from a chart and answers each with the matching records
type Client struct {
	hub     *Hub
	conn    Connection
	service DrillDowner
	metrics *infrastructure.PipelineMetrics

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	id          string
	remoteAddr  string
	connectedAt time.Time
	pingPeriod  time.Duration
	pongWait    time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// ClientOptions carries the per-session settings
type ClientOptions struct {
	TraceID    string
	PingPeriod time.Duration
	PongWait   time.Duration
	Metrics    *infrastructure.PipelineMetrics
}

// NewClient creates a session over conn
func NewClient(hub *Hub, conn Connection, service DrillDowner, opts ClientOptions, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if opts.PongWait <= 0 {
		opts.PongWait = defaultPongWait
	}
	if opts.PingPeriod <= 0 || opts.PingPeriod >= opts.PongWait {
		opts.PingPeriod = (opts.PongWait * 9) / 10
	}

	id := uuid.New().String()
	logger = infrastructure.WithComponent(logger, "websocket.client").
		With(slog.String("client_id", id))

	// sessions outlive the upgrade request, so they get their own context
	ctx, cancel := context.WithCancel(context.Background())
	if opts.TraceID != "" {
		ctx = infrastructure.WithTraceID(ctx, opts.TraceID)
	}
	ctx = infrastructure.EnsureTraceID(ctx)

	return &Client{
		hub:         hub,
		conn:        conn,
		service:     service,
		metrics:     opts.Metrics,
		send:        make(chan []byte, sendBufferSize),
		done:        make(chan struct{}),
		id:          id,
		remoteAddr:  addrString(conn.RemoteAddr()),
		connectedAt: time.Now(),
		pingPeriod:  opts.PingPeriod,
		pongWait:    opts.PongWait,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// ID returns the session id
func (c *Client) ID() string { return c.id }

// Close stops the session; safe to call more than once
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.done)
	})
}

// Send queues a message. It reports false when the session is closed or
// its buffer is full.
func (c *Client) Send(msg events.ServerMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.ErrorContext(c.ctx, "failed to encode message",
			slog.String("type", msg.Type),
			slog.String("error", err.Error()))
		return false
	}

	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	default:
		c.logger.WarnContext(c.ctx, "send buffer full, message dropped", slog.String("type", msg.Type))
		return false
	}
}

// ReadPump reads client messages until the connection fails. Messages are
// handled in arrival order, so answers arrive in hover order.
func (c *Client) ReadPump() {
	defer func() {
		c.logger.InfoContext(c.ctx, "WebSocket client disconnected",
			slog.Duration("connection_duration", time.Since(c.connectedAt)))
		c.hub.Unregister(c)
		c.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.WarnContext(c.ctx, "unexpected WebSocket close", slog.String("error", err.Error()))
			}
			return
		}
		if reply, ok := c.handle(data); ok {
			c.Send(reply)
		}
	}
}

// handle turns one client message into its reply. Failures never end the
// session; they are answered with an error message and an empty list.
func (c *Client) handle(data []byte) (events.ServerMessage, bool) {
	var msg events.ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.metrics.RecordMessage(c.ctx, "invalid")
		return events.Error("invalid message: " + err.Error()), true
	}
	c.metrics.RecordMessage(c.ctx, msg.Type)

	switch msg.Type {
	case events.TypeHover:
		resp, err := c.service.DrillDown(c.ctx, services.DrillDownRequest{
			Outer: msg.Outer,
			Inner: msg.Inner,
			Limit: msg.Limit,
		})
		if err != nil {
			c.logger.WarnContext(c.ctx, "drill-down failed",
				slog.String("outer", msg.Outer.String()),
				slog.String("inner", msg.Inner.String()),
				slog.String("error", err.Error()))
			return events.Error(clientError(err)), true
		}
		return events.DrillDown(resp.Selection, resp.Records), true
	case events.TypeLeave:
		return events.NewServerMessage(events.TypeClear), true
	case events.TypeHeartbeat:
		return events.ServerMessage{}, false
	default:
		return events.Error("unknown message type " + `"` + msg.Type + `"`), true
	}
}

// clientError hides internal failures from the chart
func clientError(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrDatasetNotLoaded):
		return "datasets are not loaded yet"
	case errors.Is(err, apperrors.ErrInvalidRecord):
		return err.Error()
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Type == apperrors.ErrTypeValidation {
		return appErr.Message
	}
	return "drill-down failed"
}

// WritePump writes queued messages and keepalive pings until the session
// closes
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.DebugContext(c.ctx, "write failed", slog.String("error", err.Error()))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.ctx, "ping failed", slog.String("error", err.Error()))
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
