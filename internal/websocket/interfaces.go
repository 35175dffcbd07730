package websocket

import (
	"context"
	"net"
	"time"

	"github.com/gorilla/websocket"

	"vizpipe/internal/services"
)

// Connection is the part of *websocket.Conn a session uses. Tests swap in
// an in-memory implementation.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	RemoteAddr() net.Addr
}

var _ Connection = (*websocket.Conn)(nil)

// DrillDowner answers hover selections. services.PipelineService
// implements it.
type DrillDowner interface {
	DrillDown(ctx context.Context, req services.DrillDownRequest) (*services.DrillDownResponse, error)
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}
