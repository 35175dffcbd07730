// Package events defines the drill-down WebSocket message contract shared by
// the server and chart clients.
package events

import (
	"time"

	"vizpipe/pkg/contracts/domain"
)

// Client message types
const (
	TypeHover     = "hover"
	TypeLeave     = "leave"
	TypeHeartbeat = "heartbeat"
)

// Server message types
const (
	TypeConnection = "connection"
	TypeDrillDown  = "drilldown"
	TypeClear      = "clear"
	TypeError      = "error"
	TypeReload     = "reload"
)

// ClientMessage is sent by a chart when the pointer enters or leaves a bar.
// Outer and inner may be numbers or numeric strings.
type ClientMessage struct {
	Type  string        `json:"type"`
	Outer domain.Scalar `json:"outer"`
	Inner domain.Scalar `json:"inner"`
	Limit int           `json:"limit,omitempty"`
}

// ServerMessage answers a client message or announces a server event.
// Every message carries a record list, empty unless it is a drill-down, so
// a chart can always render from it.
type ServerMessage struct {
	Type      string            `json:"type"`
	Selection *domain.Selection `json:"selection,omitempty"`
	Records   []domain.Record   `json:"records"`
	Message   string            `json:"message,omitempty"`
	ClientID  string            `json:"client_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewServerMessage returns a message of msgType with an empty record list
func NewServerMessage(msgType string) ServerMessage {
	return ServerMessage{Type: msgType, Records: []domain.Record{}, Timestamp: time.Now()}
}

// DrillDown returns the answer to a hover over sel
func DrillDown(sel domain.Selection, records []domain.Record) ServerMessage {
	msg := NewServerMessage(TypeDrillDown)
	msg.Selection = &sel
	if records != nil {
		msg.Records = records
	}
	return msg
}

// Error returns an error message with an empty record list
func Error(text string) ServerMessage {
	msg := NewServerMessage(TypeError)
	msg.Message = text
	return msg
}
