package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vizpipe/internal/config"
	apperrors "vizpipe/internal/errors"
	"vizpipe/internal/services"
	"vizpipe/internal/shared/testutil"
	"vizpipe/pkg/contracts/domain"
	"vizpipe/pkg/contracts/events"
)

type stubDrillDowner func(ctx context.Context, req services.DrillDownRequest) (*services.DrillDownResponse, error)

func (f stubDrillDowner) DrillDown(ctx context.Context, req services.DrillDownRequest) (*services.DrillDownResponse, error) {
	return f(ctx, req)
}

func TestClient_Handle(t *testing.T) {
	catan := testutil.Game("Catan", 2015, 7.2, 50)
	service := stubDrillDowner(func(_ context.Context, req services.DrillDownRequest) (*services.DrillDownResponse, error) {
		if req.Outer.IsMissing() {
			return nil, apperrors.NewAppValidationError("outer key is required")
		}
		if req.Outer.Equal(domain.Number(1999)) {
			return nil, errors.New("disk on fire")
		}
		return &services.DrillDownResponse{
			Selection: domain.Selection{Outer: req.Outer, Inner: req.Inner},
			Records:   []domain.Record{catan},
		}, nil
	})

	tests := []struct {
		name        string
		input       string
		wantReply   bool
		wantType    string
		wantRecords int
		wantMessage string
	}{
		{"hover", `{"type":"hover","outer":2015,"inner":7}`, true, events.TypeDrillDown, 1, ""},
		{"hover without outer", `{"type":"hover","inner":7}`, true, events.TypeError, 0, "outer key is required"},
		{"internal failure is hidden", `{"type":"hover","outer":1999,"inner":7}`, true, events.TypeError, 0, "drill-down failed"},
		{"leave", `{"type":"leave"}`, true, events.TypeClear, 0, ""},
		{"heartbeat", `{"type":"heartbeat"}`, false, "", 0, ""},
		{"unknown type", `{"type":"zoom"}`, true, events.TypeError, 0, `unknown message type "zoom"`},
		{"invalid JSON", `{not json`, true, events.TypeError, 0, "invalid message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			client := NewClient(NewHub(nil, logger), newFakeConn(), service, ClientOptions{}, logger)

			reply, ok := client.handle([]byte(tt.input))
			require.Equal(t, tt.wantReply, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantType, reply.Type)
			assert.NotNil(t, reply.Records)
			assert.Len(t, reply.Records, tt.wantRecords)
			assert.Contains(t, reply.Message, tt.wantMessage)
		})
	}
}

func TestClient_NewClientKeepalive(t *testing.T) {
	tests := []struct {
		name       string
		opts       ClientOptions
		wantPing   time.Duration
		wantPongOK time.Duration
	}{
		{"defaults", ClientOptions{}, 54 * time.Second, 60 * time.Second},
		{"configured", ClientOptions{PingPeriod: time.Second, PongWait: 2 * time.Second}, time.Second, 2 * time.Second},
		{"ping not shorter than pong", ClientOptions{PingPeriod: 5 * time.Second, PongWait: time.Second}, 900 * time.Millisecond, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			client := NewClient(NewHub(nil, logger), newFakeConn(), nil, tt.opts, logger)
			assert.Equal(t, tt.wantPing, client.pingPeriod)
			assert.Equal(t, tt.wantPongOK, client.pongWait)
		})
	}
}

func TestClient_SessionOverFakeConnection(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	hub := NewHub(nil, logger)
	hub.Start()
	defer hub.Stop()

	service := stubDrillDowner(func(_ context.Context, req services.DrillDownRequest) (*services.DrillDownResponse, error) {
		return &services.DrillDownResponse{
			Selection: domain.Selection{Outer: req.Outer, Inner: req.Inner},
			Records:   []domain.Record{},
		}, nil
	})

	conn := newFakeConn()
	client := NewClient(hub, conn, service, ClientOptions{}, logger)
	hub.Register(client)
	go client.WritePump()
	go client.ReadPump()

	conn.push(`{"type":"hover","outer":2016,"inner":8}`)
	conn.push(`{"type":"hover","outer":2015,"inner":7}`)
	conn.push(`{"type":"leave"}`)

	require.Eventually(t, func() bool { return len(conn.textFrames()) == 4 }, time.Second, 10*time.Millisecond)

	var types []string
	var outers []string
	for _, frame := range conn.textFrames() {
		var msg events.ServerMessage
		require.NoError(t, json.Unmarshal(frame, &msg))
		types = append(types, msg.Type)
		if msg.Selection != nil {
			outers = append(outers, msg.Selection.Outer.String())
		}
	}
	assert.Equal(t, []string{events.TypeConnection, events.TypeDrillDown, events.TypeDrillDown, events.TypeClear}, types)
	assert.Equal(t, []string{"2016", "2015"}, outers)
	assert.Equal(t, 1, hub.ClientCount())

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
	assert.True(t, logs.ContainsMessage("Client unregistered"))
}

func TestHub_StopClosesSessions(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(nil, logger)
	hub.Start()

	conn := newFakeConn()
	client := NewClient(hub, conn, nil, ClientOptions{}, logger)
	hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Stop()
	hub.Stop()

	assert.Equal(t, 0, hub.ClientCount())
	select {
	case <-client.done:
	case <-time.After(time.Second):
		t.Fatal("client was not closed")
	}
	assert.False(t, client.Send(events.NewServerMessage(events.TypeClear)))

	// registering after Stop must not block
	late := NewClient(hub, newFakeConn(), nil, ClientOptions{}, logger)
	hub.Register(late)
	hub.Unregister(late)
}

func newTestServer(t *testing.T, origins []string) (*httptest.Server, *Hub) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	cfg := config.Default()
	cfg.Datasets.DataDir = testutil.WriteDatasets(t)
	svc := services.NewPipelineService(cfg, nil, logger)
	require.NoError(t, svc.Load(context.Background()))

	hub := NewHub(nil, logger)
	hub.Start()
	t.Cleanup(hub.Stop)

	server := httptest.NewServer(NewHandler(hub, svc, cfg.WebSocket, origins, nil, logger))
	t.Cleanup(server.Close)
	return server, hub
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func readMessage(t *testing.T, conn *websocket.Conn) events.ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg events.ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHandler_DrillDownSession(t *testing.T) {
	server, hub := newTestServer(t, nil)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server), nil)
	require.NoError(t, err)
	defer conn.Close()

	hello := readMessage(t, conn)
	assert.Equal(t, events.TypeConnection, hello.Type)
	assert.NotEmpty(t, hello.ClientID)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "hover", "outer": 2015, "inner": 7}))
	msg := readMessage(t, conn)
	require.Equal(t, events.TypeDrillDown, msg.Type)
	require.NotNil(t, msg.Selection)
	assert.True(t, msg.Selection.Outer.Equal(domain.Number(2015)))
	var names []string
	for _, rec := range msg.Records {
		name, _ := rec.Get("name")
		names = append(names, name.String())
	}
	assert.Equal(t, []string{"Catan", "Carcassonne"}, names)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "hover", "outer": "2015", "inner": 7, "limit": 1}))
	msg = readMessage(t, conn)
	assert.Equal(t, events.TypeDrillDown, msg.Type)
	assert.Len(t, msg.Records, 1)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "hover", "inner": 7}))
	msg = readMessage(t, conn)
	assert.Equal(t, events.TypeError, msg.Type)
	assert.NotNil(t, msg.Records)
	assert.Empty(t, msg.Records)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "leave"}))
	assert.Equal(t, events.TypeClear, readMessage(t, conn).Type)

	hub.BroadcastReload(context.Background())
	assert.Equal(t, events.TypeReload, readMessage(t, conn).Type)

	require.Eventually(t, func() bool {
		m := hub.GetHubMetrics()
		return m["active_clients"] == 1 && m["total_connections"] == int64(1) && m["messages_sent"] == int64(1)
	}, time.Second, 10*time.Millisecond)
}

func TestHandler_CheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		wantOK  bool
	}{
		{"no origin header", nil, "", true},
		{"allowed origin", []string{"http://localhost:8080"}, "http://localhost:8080", true},
		{"wildcard", []string{"*"}, "http://example.com", true},
		{"rejected origin", []string{"http://localhost:8080"}, "http://evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newTestServer(t, tt.origins)

			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(wsURL(server), header)
			if tt.wantOK {
				require.NoError(t, err)
				conn.Close()
				return
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}
