// Package websocket serves interactive drill-down sessions.
//
// A chart opens /ws/drilldown and sends a hover message whenever the
// pointer enters a bar:
//
//	{"type":"hover","outer":2015,"inner":7,"limit":5}
//
// The server answers with the top records of that bucket:
//
//	{"type":"drilldown","selection":{"outer":2015,"inner":7},"records":[...]}
//
// A leave message is answered with clear, and failures are answered with
// an error message. Every server message carries a records list, empty
// unless it is a drill-down, so a chart can always redraw from it. Replies
// keep the order of the hover messages that caused them.
//
// The message types live in pkg/contracts/events. The Hub tracks sessions
// and broadcasts reload when datasets change.
// Sessions are kept alive with ping/pong at the configured period.
package websocket
