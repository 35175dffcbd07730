package websocket

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"vizpipe/internal/config"
	"vizpipe/internal/infrastructure"
	appmiddleware "vizpipe/internal/middleware"
)

// Handler upgrades HTTP requests to drill-down sessions
type Handler struct {
	hub      *Hub
	service  DrillDowner
	cfg      config.WebSocketConfig
	origins  []string
	metrics  *infrastructure.PipelineMetrics
	upgrader websocket.Upgrader
	logger   *slog.Logger
	// untagged logger handed to sessions
	base     *slog.Logger
}

// NewHandler creates a handler. An empty origins list accepts only
// requests without an Origin header; "*" accepts every origin.
func NewHandler(hub *Hub, service DrillDowner, cfg config.WebSocketConfig, origins []string, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	h := &Handler{
		hub:     hub,
		service: service,
		cfg:     cfg,
		origins: origins,
		metrics: metrics,
		logger:  infrastructure.WithComponent(logger, "websocket.handler"),
		base:    logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.logger.WarnContext(r.Context(), "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			http.Error(w, http.StatusText(status), status)
		},
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.origins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	h.logger.WarnContext(r.Context(), "WebSocket origin check - origin not allowed",
		slog.String("origin", origin),
		slog.Any("allowed_origins", h.origins))
	return false
}

// ServeHTTP upgrades the connection and starts the session pumps
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := appmiddleware.GetRequestID(ctx)

	h.logger.InfoContext(ctx, "WebSocket upgrade request",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("origin", r.Header.Get("Origin")),
		slog.String("user_agent", r.UserAgent()))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already answered the request
		return
	}

	client := NewClient(h.hub, conn, h.service, ClientOptions{
		TraceID:    reqID,
		PingPeriod: h.cfg.PingPeriod,
		PongWait:   h.cfg.PongWait,
		Metrics:    h.metrics,
	}, h.base)

	h.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()

	h.logger.InfoContext(ctx, "WebSocket client connected",
		slog.String("client_id", client.ID()),
		slog.String("request_id", reqID))
}
