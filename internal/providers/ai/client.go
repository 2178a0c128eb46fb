package ai

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/agent"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/types"
)

var (
	// ErrMissingAPIKey is returned by the factory when no API key is configured
	ErrMissingAPIKey = errors.New("agent service API key not configured")
	// ErrClosed is returned by HandleChat after Cleanup
	ErrClosed = errors.New("agent closed")
)

const maxEventSize = 1 << 20

// Config configures the agent service client
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the agent service over HTTP. One Client serves every task.
type Client struct {
	resty  *resty.Client
	apiKey string
	logger *zap.Logger
}

// NewClient creates an agent service client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("User-Agent", "browserdesk-backend/1.0").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)
	r.OnBeforeRequest(tracing.RestyMiddleware)
	if cfg.Timeout > 0 {
		// bounds connection setup and headers only; streams are bounded by ctx
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.ResponseHeaderTimeout = cfg.Timeout
		r.SetTransport(transport)
	}
	return &Client{resty: r, apiKey: cfg.APIKey, logger: logger}
}

// Factory returns an agent.Factory backed by this client
func (c *Client) Factory() agent.Factory {
	return func(ctx context.Context, taskID string, cfg agent.Config) (agent.Agent, error) {
		if c.apiKey == "" {
			return nil, ErrMissingAPIKey
		}
		return &Agent{
			client:  c,
			taskID:  taskID,
			cfg:     cfg.Clone(),
			streams: make(map[uint64]context.CancelFunc),
		}, nil
	}
}

type chatPayload struct {
	TaskID    string            `json:"task_id"`
	Message   string            `json:"message"`
	Context   map[string]string `json:"context,omitempty"`
	ModelTier string            `json:"model_tier,omitempty"`
	ThreadID  string            `json:"thread_id,omitempty"`
	Provider  map[string]string `json:"provider,omitempty"`
}

// Agent is one task's conversation with the agent service
type Agent struct {
	client *Client
	taskID string

	mu      sync.Mutex
	cfg     agent.Config                  // Protected by mu
	streams map[uint64]context.CancelFunc // Protected by mu
	next    uint64                        // Protected by mu
	closed  bool                          // Protected by mu
}

// HandleChat sends a chat turn and streams the response. The channel is
// closed when the stream ends, fails, ctx is cancelled or Cleanup runs.
func (a *Agent) HandleChat(ctx context.Context, req types.ChatRequest) (<-chan types.ChatEvent, error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil, ErrClosed
	}
	streamCtx, cancel := context.WithCancel(ctx)
	id := a.next
	a.next++
	a.streams[id] = cancel
	cfg := a.cfg.Clone()
	a.mu.Unlock()

	payload := chatPayload{
		TaskID:    a.taskID,
		Message:   req.Message,
		Context:   req.Context,
		ModelTier: cfg.ModelTier,
		ThreadID:  cfg.ThreadID,
		Provider:  cfg.Provider,
	}

	resp, err := a.client.resty.R().
		SetContext(streamCtx).
		SetAuthToken(a.client.apiKey).
		SetHeader("Accept", "application/x-ndjson").
		SetBody(payload).
		SetDoNotParseResponse(true).
		Post("/v1/chat")
	if err != nil {
		a.release(id)
		return nil, fmt.Errorf("chat request: %w", err)
	}

	body := resp.RawBody()
	if resp.StatusCode() >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(body, 512))
		body.Close()
		a.release(id)
		return nil, fmt.Errorf("chat request: status %d: %s", resp.StatusCode(), bytes.TrimSpace(msg))
	}

	events := make(chan types.ChatEvent, 16)
	go func() {
		defer close(events)
		defer body.Close()
		defer a.release(id)
		a.pump(streamCtx, body, events)
	}()
	return events, nil
}

func (a *Agent) pump(ctx context.Context, body io.Reader, events chan<- types.ChatEvent) {
	send := func(ev types.ChatEvent) bool {
		if ev.Timestamp == 0 {
			ev.Timestamp = time.Now().UnixMilli()
		}
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev types.ChatEvent
		if err := sonic.Unmarshal(line, &ev); err != nil {
			a.client.logger.Warn("Malformed chat event",
				zap.String("task_id", a.taskID),
				zap.Error(err),
			)
			send(types.ChatEvent{Type: "error", Content: "malformed event from agent service"})
			return
		}
		if !send(ev) || ev.Type == "complete" {
			return
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		send(types.ChatEvent{Type: "error", Content: err.Error()})
	}
}

// Cleanup cancels in-flight streams. Later HandleChat calls fail.
func (a *Agent) Cleanup() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true
	for id, cancel := range a.streams {
		cancel()
		delete(a.streams, id)
	}
	return nil
}

// UpdateConfig replaces the configuration used by later requests
func (a *Agent) UpdateConfig(cfg agent.Config) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg = cfg.Clone()
}

func (a *Agent) release(id uint64) {
	a.mu.Lock()
	cancel, ok := a.streams[id]
	delete(a.streams, id)
	a.mu.Unlock()
	if ok {
		cancel()
	}
}
