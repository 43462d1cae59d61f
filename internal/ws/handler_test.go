package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/sandpad/internal/domain/studio"
	"github.com/GriffinCanCode/sandpad/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sandpad/internal/templates"
	"github.com/GriffinCanCode/sandpad/internal/testutil"
)

type frame struct {
	Type        string          `json:"type"`
	WorkspaceID string          `json:"workspace_id"`
	Payload     json.RawMessage `json:"payload"`
	Timestamp   int64           `json:"timestamp"`
}

type fixture struct {
	manager *studio.Manager
	handler *Handler
	metrics *monitoring.Metrics
	server  *httptest.Server
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	metrics := monitoring.NewMetricsWithRegistry(prometheus.NewRegistry())
	t.Cleanup(metrics.Stop)

	manager := studio.NewManager(testutil.NewMockExecutor(t), templates.Default(), zap.NewNop())
	t.Cleanup(manager.Close)

	handler := NewHandler(manager, zap.NewNop(), 1024).WithMetrics(metrics)
	router := gin.New()
	handler.Register(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	t.Cleanup(handler.Close)

	return &fixture{manager: manager, handler: handler, metrics: metrics, server: server}
}

func (f *fixture) dial(t *testing.T, workspaceID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/workspaces/" + workspaceID + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// next reads frames until one of type want arrives
func next(t *testing.T, conn *websocket.Conn, want string) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Type == want {
			return f
		}
	}
}

func TestConnectSendsSnapshot(t *testing.T) {
	f := setup(t)
	inst, err := f.manager.Create(nil)
	require.NoError(t, err)

	conn := f.dial(t, inst.ID().String())
	msg := next(t, conn, TypeSnapshot)

	assert.Equal(t, inst.ID().String(), msg.WorkspaceID)
	assert.NotZero(t, msg.Timestamp)

	var snap studio.Snapshot
	require.NoError(t, json.Unmarshal(msg.Payload, &snap))
	assert.Equal(t, "/App.js", snap.ActiveFile)

	require.Eventually(t, func() bool { return f.handler.Connections() == 1 }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, f.metrics.Snapshot().ActiveConnections)
}

func TestUnknownWorkspaceIsRejected(t *testing.T) {
	f := setup(t)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/workspaces/missing/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPingPong(t *testing.T) {
	f := setup(t)
	inst, err := f.manager.Create(nil)
	require.NoError(t, err)

	conn := f.dial(t, inst.ID().String())
	next(t, conn, TypeSnapshot)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": TypePing}))
	msg := next(t, conn, TypePong)
	assert.Equal(t, inst.ID().String(), msg.WorkspaceID)
}

func TestFilesUpdateStreamsChange(t *testing.T) {
	f := setup(t)
	inst, err := f.manager.Create(nil)
	require.NoError(t, err)

	conn := f.dial(t, inst.ID().String())
	next(t, conn, TypeSnapshot)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":    TypeFilesUpdate,
		"payload": FilesUpdate{Path: "/styles.css", Content: "h1 { color: red }"},
	}))

	msg := next(t, conn, string(studio.EventFilesChanged))
	var change struct {
		Op   string `json:"op"`
		Path string `json:"path"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &change))
	assert.Equal(t, "update", change.Op)
	assert.Equal(t, "/styles.css", change.Path)

	content, err := inst.Workspace.File("/styles.css")
	require.NoError(t, err)
	assert.Equal(t, "h1 { color: red }", content)
}

func TestEventsFromOtherWritersAreStreamed(t *testing.T) {
	f := setup(t)
	inst, err := f.manager.Create(nil)
	require.NoError(t, err)

	conn := f.dial(t, inst.ID().String())
	next(t, conn, TypeSnapshot)

	inst.Layout.ToggleConsole()
	next(t, conn, string(studio.EventLayoutChanged))
}

func TestRejectedMessages(t *testing.T) {
	f := setup(t)
	inst, err := f.manager.Create(nil)
	require.NoError(t, err)

	conn := f.dial(t, inst.ID().String())
	next(t, conn, TypeSnapshot)

	tests := []struct {
		name string
		send string
		kind string
	}{
		{"malformed", `{"type":`, "bad_request"},
		{"unknown type", `{"type":"chat"}`, "bad_request"},
		{"missing payload", `{"type":"files.update"}`, "bad_request"},
		{"missing file", `{"type":"files.update","payload":{"path":"/nope.js","content":"x"}}`, "not_found"},
		{"invalid path", `{"type":"files.update","payload":{"path":"","content":"x"}}`, "invalid_path"},
		{"too large", `{"type":"files.update","payload":{"path":"/App.js","content":"` + strings.Repeat("x", 1025) + `"}}`, "too_large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.send)))

			msg := next(t, conn, TypeError)
			var payload ErrorPayload
			require.NoError(t, json.Unmarshal(msg.Payload, &payload))
			assert.Equal(t, tt.kind, string(payload.Kind))
			assert.NotEmpty(t, payload.Message)
		})
	}
}

func TestDisconnectReleasesClient(t *testing.T) {
	f := setup(t)
	inst, err := f.manager.Create(nil)
	require.NoError(t, err)

	conn := f.dial(t, inst.ID().String())
	next(t, conn, TypeSnapshot)
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool { return f.handler.Connections() == 0 }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 0, f.metrics.Snapshot().ActiveConnections)
}
