package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/agent"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/visibility"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/browserdesk/tests/helpers/testutil"
)

type wsFixture struct {
	server *httptest.Server
	hub    *Hub
	bridge *session.Bridge
	mock   *testutil.MockAgent
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(nil)
	vis := visibility.NewController(hub)
	bridge, err := session.NewBridge(session.Config{}, vis, hub, nil)
	require.NoError(t, err)

	ag := testutil.NewMockAgent(t)
	agents := agent.NewRegistry(func(ctx context.Context, taskID string, cfg agent.Config) (agent.Agent, error) {
		return ag, nil
	}, agent.Config{ModelTier: "standard"}, nil)

	h := NewHandler(bridge, agents, hub, nil)
	router := gin.New()
	router.GET("/stream", h.HandleStream)
	router.GET("/host", h.HandleHost)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return &wsFixture{server: srv, hub: hub, bridge: bridge, mock: ag}
}

func (f *wsFixture) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, sonic.Unmarshal(data, &out))
	return out
}

func send(t *testing.T, conn *websocket.Conn, msg types.WSMessage) {
	t.Helper()
	data, err := sonic.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func TestStreamWelcome(t *testing.T) {
	f := newWSFixture(t)
	ui := f.dial(t, "/stream")

	msg := readJSON(t, ui)
	assert.Equal(t, "system", msg["type"])
}

func TestHostReceivesLifecycleNotifications(t *testing.T) {
	f := newWSFixture(t)
	host := f.dial(t, "/host")
	require.Eventually(t, func() bool { return f.hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	ui := f.dial(t, "/stream")
	readJSON(t, ui) // welcome

	send(t, ui, types.WSMessage{Type: MsgSessionCreated, SessionID: "A"})

	created := readJSON(t, host)
	assert.Equal(t, string(types.NotifySessionCreated), created["type"])
	assert.Equal(t, "A", created["sessionId"])

	switched := readJSON(t, host)
	assert.Equal(t, string(types.NotifySessionSwitched), switched["type"])

	send(t, ui, types.WSMessage{Type: MsgSessionDeleted, SessionID: "A"})
	require.Eventually(t, func() bool { return f.bridge.Active() == "" }, 2*time.Second, 10*time.Millisecond)
}

func TestStreamPingAndUnknown(t *testing.T) {
	f := newWSFixture(t)
	ui := f.dial(t, "/stream")
	readJSON(t, ui)

	send(t, ui, types.WSMessage{Type: MsgPing})
	assert.Equal(t, "pong", readJSON(t, ui)["type"])

	send(t, ui, types.WSMessage{Type: "bogus"})
	reply := readJSON(t, ui)
	assert.Equal(t, "error", reply["type"])
	assert.Equal(t, "unknown message type", reply["message"])
}

func TestStreamChat(t *testing.T) {
	f := newWSFixture(t)
	f.mock.On("HandleChat", mock.Anything, types.ChatRequest{Message: "hi"}).Return(testutil.ChatStream(
		types.ChatEvent{Type: "token", Content: "hello", Timestamp: 1},
		types.ChatEvent{Type: "complete", Timestamp: 2},
	), nil)

	ui := f.dial(t, "/stream")
	readJSON(t, ui)

	send(t, ui, types.WSMessage{Type: MsgChat, TaskID: "task-1", Message: "hi"})

	first := readJSON(t, ui)
	assert.Equal(t, "token", first["type"])
	assert.Equal(t, "hello", first["content"])
	assert.Equal(t, "task-1", first["taskId"])
	assert.Equal(t, "complete", readJSON(t, ui)["type"])
}

func TestStreamChatRequiresTask(t *testing.T) {
	f := newWSFixture(t)
	ui := f.dial(t, "/stream")
	readJSON(t, ui)

	send(t, ui, types.WSMessage{Type: MsgChat, Message: "hi"})
	assert.Equal(t, "error", readJSON(t, ui)["type"])
}

func TestStreamRejectsMalformedMessages(t *testing.T) {
	f := newWSFixture(t)
	ui := f.dial(t, "/stream")
	readJSON(t, ui)

	tests := []struct {
		name string
		msg  types.WSMessage
		want string
	}{
		{"created without session", types.WSMessage{Type: MsgSessionCreated}, "sessionId"},
		{"mount without container", types.WSMessage{Type: MsgContainerMounted, SessionID: "A"}, "containerId"},
		{"resize without rect", types.WSMessage{Type: MsgContainerResized, ContainerID: "c1"}, "rect"},
		{"hide with bad reason", types.WSMessage{Type: MsgViewHide, SessionID: "A", Reason: "Bad Reason"}, "reason"},
		{"blank chat", types.WSMessage{Type: MsgChat, TaskID: "task-1", Message: "   "}, "message"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send(t, ui, tt.msg)
			reply := readJSON(t, ui)
			assert.Equal(t, "error", reply["type"])
			assert.Contains(t, reply["message"], tt.want)
		})
	}
}

func TestHubDropsWhenQueueFull(t *testing.T) {
	hub := NewHub(nil)
	c := &client{id: "slow", role: RoleHost, send: make(chan []byte, 1), done: make(chan struct{})}
	hub.clients[c.id] = c

	hub.Notify(types.Notification{Type: types.NotifySessionCreated, SessionID: "A"})
	hub.Notify(types.Notification{Type: types.NotifySessionDeleted, SessionID: "A"})

	assert.Len(t, c.send, 1)
	assert.Equal(t, 1, hub.Count())
}
