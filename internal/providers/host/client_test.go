package host

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/navigation"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/tab"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/infrastructure/resilience"
)

// fakeHost serves the host API on top of an in-memory registry
type fakeHost struct {
	mu       sync.Mutex
	tabs     *tab.Registry
	requests []string
	fail     int
}

func newFakeHost(t *testing.T) (*fakeHost, *httptest.Server) {
	t.Helper()
	h := &fakeHost{tabs: tab.NewRegistry()}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /tabs/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.record(r)
		tb, ok := h.tabs.Get(r.PathValue("id"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tb.Info())
	})
	mux.HandleFunc("GET /sessions/{id}/tab", func(w http.ResponseWriter, r *http.Request) {
		h.record(r)
		tb, ok := h.tabs.ForSession(r.PathValue("id"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tb.Info())
	})
	mux.HandleFunc("POST /tabs/{id}/{action}", func(w http.ResponseWriter, r *http.Request) {
		h.record(r)
		if h.failing() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		tb, ok := h.tabs.Get(r.PathValue("id"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		var err error
		switch r.PathValue("action") {
		case "touch":
			err = h.tabs.UpdateTabTimestamp(r.Context(), tb.ID())
		case "navigate":
			var body struct {
				URL string `json:"url"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			err = tb.LoadURL(r.Context(), body.URL)
		case "reload":
			err = tb.Reload(r.Context())
		case "back":
			err = tb.GoBack(r.Context())
		case "forward":
			err = tb.GoForward(r.Context())
		}
		if err == tab.ErrNoHistory {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return h, srv
}

func (h *fakeHost) record(r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests = append(h.requests, r.Method+" "+r.URL.Path)
}

func (h *fakeHost) failing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fail > 0 {
		h.fail--
		return true
	}
	return false
}

func TestGetTab(t *testing.T) {
	h, srv := newFakeHost(t)
	tb := h.tabs.Create("s1", "https://a.test")
	c := NewClient(Config{BaseURL: srv.URL}, nil)

	v, err := c.GetTab(context.Background(), tb.ID())
	require.NoError(t, err)
	assert.Equal(t, tb.ID(), v.ID())
	assert.False(t, v.CanGoBack())
}

func TestGetTabNotFound(t *testing.T) {
	_, srv := newFakeHost(t)
	c := NewClient(Config{BaseURL: srv.URL}, nil)

	_, err := c.GetTab(context.Background(), "view_missing")
	assert.ErrorIs(t, err, tab.ErrNotFound)

	// expected answers never trip the breaker
	for i := 0; i < 10; i++ {
		_, _ = c.GetTab(context.Background(), "view_missing")
	}
	assert.Equal(t, resilience.StateClosed, c.BreakerState())
}

func TestNavigationThroughHost(t *testing.T) {
	h, srv := newFakeHost(t)
	tb := h.tabs.Create("s1", "https://a.test")
	nav := navigation.NewController(NewClient(Config{BaseURL: srv.URL}, nil), nil)
	ctx := context.Background()

	out, err := nav.GoBack(ctx, tb.ID())
	require.NoError(t, err)
	assert.True(t, out.NoHistory)

	out, err = nav.Navigate(ctx, tb.ID(), "b.test")
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, "https://b.test", tb.URL())

	out, err = nav.GoBack(ctx, tb.ID())
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, "https://a.test", tb.URL())

	_, err = nav.Refresh(ctx, tb.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, tb.Reloads())

	_, err = nav.Refresh(ctx, "view_gone")
	assert.ErrorIs(t, err, navigation.ErrViewNotFound)

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Contains(t, h.requests, "POST /tabs/"+tb.ID()+"/touch")
	assert.Contains(t, h.requests, "POST /tabs/"+tb.ID()+"/navigate")
}

func TestRetriesServerErrors(t *testing.T) {
	h, srv := newFakeHost(t)
	tb := h.tabs.Create("s1", "")
	h.fail = 2
	c := NewClient(Config{BaseURL: srv.URL, Retries: 3}, nil)

	require.NoError(t, c.UpdateTabTimestamp(context.Background(), tb.ID()))
}

func TestBreakerOpensOnFailures(t *testing.T) {
	h, srv := newFakeHost(t)
	tb := h.tabs.Create("s1", "")
	h.fail = 1000
	c := NewClient(Config{BaseURL: srv.URL}, nil)

	for i := 0; i < 5; i++ {
		assert.Error(t, c.UpdateTabTimestamp(context.Background(), tb.ID()))
	}
	assert.Equal(t, resilience.StateOpen, c.BreakerState())
	assert.ErrorIs(t, c.UpdateTabTimestamp(context.Background(), tb.ID()), resilience.ErrCircuitOpen)
}

func TestRateLimitHonoursContext(t *testing.T) {
	h, srv := newFakeHost(t)
	tb := h.tabs.Create("s1", "")
	c := NewClient(Config{BaseURL: srv.URL, RPS: 1}, nil)

	require.NoError(t, c.UpdateTabTimestamp(context.Background(), tb.ID()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, c.UpdateTabTimestamp(ctx, tb.ID()))
}

func TestViewForSession(t *testing.T) {
	h, srv := newFakeHost(t)
	tb := h.tabs.Create("sess_1", "")
	c := NewClient(Config{BaseURL: srv.URL}, nil)

	viewID, ok := c.ViewForSession("sess_1")
	assert.True(t, ok)
	assert.Equal(t, tb.ID(), viewID)

	_, ok = c.ViewForSession("sess_missing")
	assert.False(t, ok)
	assert.Equal(t, resilience.StateClosed, c.BreakerState())
}
