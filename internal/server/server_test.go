package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/browserdesk/tests/helpers/testutil"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.RateLimit.Enabled = false
	cfg.View.ShowDelay = 0

	srv, err := NewServer(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func serve(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/", "/health", "/agents", "/services", "/sessions/state"} {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, http.StatusOK, serve(t, srv, "GET", path, "").Code)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	serve(t, srv, "GET", "/health", "")

	w := serve(t, srv, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestInMemoryTabsFollowSessions(t *testing.T) {
	srv := newTestServer(t)
	require.NotNil(t, srv.tabs)

	srv.bridge.Created("sess_a")
	tb, ok := srv.tabs.ForSession("sess_a")
	require.True(t, ok)

	w := serve(t, srv, "POST", "/views/"+tb.ID()+"/navigate", `{"url":"example.com"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://example.com", tb.URL())

	srv.bridge.Deleted("sess_a")
	_, ok = srv.tabs.ForSession("sess_a")
	assert.False(t, ok)

	w = serve(t, srv, "POST", "/views/"+tb.ID()+"/refresh", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskWithoutAPIKeyFails(t *testing.T) {
	srv := newTestServer(t)

	w := serve(t, srv, "POST", "/tasks", `{"task_id":"task_1"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Empty(t, srv.agents.ListActive())
}

func TestRemoteHostMode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.ViewHost.Address = "http://127.0.0.1:1"
	cfg.ViewHost.Timeout = config.Duration(100 * time.Millisecond)

	srv, err := NewServer(cfg, nil)
	require.NoError(t, err)
	defer srv.Close()
	assert.Nil(t, srv.tabs)
}

func TestRunStopsOnCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.Server.Port = "0"

	srv, err := NewServer(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestFanoutDeliversInOrder(t *testing.T) {
	a, b := &testutil.NotificationRecorder{}, &testutil.NotificationRecorder{}
	f := fanout{a, b}

	f.Notify(types.Notification{Type: types.NotifySessionCreated, SessionID: "s"})
	f.Notify(types.Notification{Type: types.NotifySessionDeleted, SessionID: "s"})

	for _, rec := range []*testutil.NotificationRecorder{a, b} {
		all := rec.All()
		require.Len(t, all, 2)
		assert.Equal(t, types.NotifySessionCreated, all[0].Type)
		assert.Equal(t, types.NotifySessionDeleted, all[1].Type)
	}
}
