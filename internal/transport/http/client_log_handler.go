package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apperrors "vizpipe/internal/errors"
	appmiddleware "vizpipe/internal/middleware"
)

// ClientLogHandler accepts log entries from chart front ends so that
// renderer failures show up next to the server logs
type ClientLogHandler struct {
	logger       *slog.Logger
	validator    *appmiddleware.Validator
	errorHandler *apperrors.ErrorHandler
}

// NewClientLogHandler creates a new client log handler
func NewClientLogHandler(logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *ClientLogHandler {
	return &ClientLogHandler{
		logger:       logger.With(slog.String("handler", "client_log")),
		validator:    appmiddleware.NewValidator(),
		errorHandler: errorHandler,
	}
}

// LogRequest represents a client log entry
type LogRequest struct {
	Level   string                 `json:"level" validate:"omitempty,oneof=debug info warn error"`
	Message string                 `json:"message" validate:"required,max=2000"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Source  string                 `json:"source,omitempty" validate:"max=200"`
}

// Handle processes POST /api/logs
func (h *ClientLogHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req LogRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	attrs := []slog.Attr{slog.String("client_source", req.Source)}
	if req.Data != nil {
		attrs = append(attrs, slog.Any("data", req.Data))
	}

	level := slog.LevelInfo
	switch req.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	h.logger.LogAttrs(r.Context(), level, req.Message, attrs...)
	render.JSON(w, r, map[string]interface{}{"success": true})
}
