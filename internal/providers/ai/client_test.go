package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/agent"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/types"
)

func collect(t *testing.T, ch <-chan types.ChatEvent) []types.ChatEvent {
	t.Helper()
	var out []types.ChatEvent
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("stream did not close")
		}
	}
}

func TestFactoryRequiresAPIKey(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:0"}, nil)

	_, err := c.Factory()(context.Background(), "t1", agent.Config{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestMissingKeyFailsRegistryConstruction(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:0"}, nil)
	reg := agent.NewRegistry(c.Factory(), agent.Config{}, nil)

	_, err := reg.GetOrCreate(context.Background(), "t1", nil)
	assert.ErrorIs(t, err, agent.ErrConstructionFailed)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Empty(t, reg.ListActive())
}

func TestHandleChatStreamsEvents(t *testing.T) {
	var got chatPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)

		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"type":"token","content":"Hel"}`)
		fmt.Fprintln(w, ``)
		fmt.Fprintln(w, `{"type":"token","content":"lo","timestamp":5}`)
		fmt.Fprintln(w, `{"type":"complete"}`)
		fmt.Fprintln(w, `{"type":"token","content":"ignored"}`)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "secret", Timeout: time.Second}, nil)
	a, err := c.Factory()(context.Background(), "t1", agent.Config{ModelTier: "fast"})
	require.NoError(t, err)

	ch, err := a.HandleChat(context.Background(), types.ChatRequest{Message: "hi", Context: map[string]string{"k": "v"}})
	require.NoError(t, err)
	events := collect(t, ch)

	require.Len(t, events, 3)
	assert.Equal(t, "Hel", events[0].Content)
	assert.NotZero(t, events[0].Timestamp)
	assert.Equal(t, int64(5), events[1].Timestamp)
	assert.Equal(t, "complete", events[2].Type)

	assert.Equal(t, "t1", got.TaskID)
	assert.Equal(t, "hi", got.Message)
	assert.Equal(t, "fast", got.ModelTier)
	assert.Equal(t, "v", got.Context["k"])
}

func TestUpdateConfigAppliesToNextRequest(t *testing.T) {
	tiers := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p chatPayload
		_ = json.NewDecoder(r.Body).Decode(&p)
		tiers <- p.ModelTier
		fmt.Fprintln(w, `{"type":"complete"}`)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k"}, nil)
	a, err := c.Factory()(context.Background(), "t1", agent.Config{ModelTier: "standard"})
	require.NoError(t, err)

	a.UpdateConfig(agent.Config{ModelTier: "deep"})
	ch, err := a.HandleChat(context.Background(), types.ChatRequest{Message: "x"})
	require.NoError(t, err)
	collect(t, ch)

	assert.Equal(t, "deep", <-tiers)
}

func TestHandleChatErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k"}, nil)
	a, err := c.Factory()(context.Background(), "t1", agent.Config{})
	require.NoError(t, err)

	_, err = a.HandleChat(context.Background(), types.ChatRequest{Message: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestMalformedEventEndsStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"type":"token","content":"a"}`)
		fmt.Fprintln(w, `not json`)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k"}, nil)
	a, err := c.Factory()(context.Background(), "t1", agent.Config{})
	require.NoError(t, err)

	ch, err := a.HandleChat(context.Background(), types.ChatRequest{Message: "x"})
	require.NoError(t, err)
	events := collect(t, ch)

	require.Len(t, events, 2)
	assert.Equal(t, "error", events[1].Type)
}

func TestCleanupCancelsStreams(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"type":"token","content":"a"}`)
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k"}, nil)
	a, err := c.Factory()(context.Background(), "t1", agent.Config{})
	require.NoError(t, err)

	ch, err := a.HandleChat(context.Background(), types.ChatRequest{Message: "x"})
	require.NoError(t, err)

	first := <-ch
	assert.Equal(t, "a", first.Content)

	require.NoError(t, a.Cleanup())
	collect(t, ch)

	_, err = a.HandleChat(context.Background(), types.ChatRequest{Message: "y"})
	assert.ErrorIs(t, err, ErrClosed)
}
