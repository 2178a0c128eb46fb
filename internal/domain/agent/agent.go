package agent

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/types"
)

// ErrConstructionFailed wraps every error returned by a Factory
var ErrConstructionFailed = errors.New("agent construction failed")

// Config is the per-task agent configuration
type Config = types.AgentConfig

// ConfigPatch is a partial Config update
type ConfigPatch = types.AgentConfigPatch

// Agent is a stateful conversation context bound to one task
type Agent interface {
	HandleChat(ctx context.Context, req types.ChatRequest) (<-chan types.ChatEvent, error)
	Cleanup() error
	UpdateConfig(cfg Config)
}

// Factory constructs the agent for a task. It may fail, for example when the
// agent service has no credentials.
type Factory func(ctx context.Context, taskID string, cfg Config) (Agent, error)

// Handle owns a task's agent. The activity timestamp is informational; the
// registry never evicts on it.
type Handle struct {
	TaskID    string
	CreatedAt time.Time
	agent     Agent

	mu           sync.Mutex
	config       Config    // Protected by mu
	lastActivity time.Time // Protected by mu
}

// Info is the serialisable view of a Handle
type Info struct {
	TaskID       string `json:"task_id"`
	Config       Config `json:"config"`
	CreatedAt    int64  `json:"created_at"`
	LastActivity int64  `json:"last_activity"`
}

// Agent returns the underlying agent
func (h *Handle) Agent() Agent { return h.agent }

// Config returns a copy of the current configuration
func (h *Handle) Config() Config {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.config.Clone()
}

// LastActivity returns when the handle was last used
func (h *Handle) LastActivity() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastActivity
}

// Info returns a snapshot of the handle
func (h *Handle) Info() Info {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Info{
		TaskID:       h.TaskID,
		Config:       h.config.Clone(),
		CreatedAt:    h.CreatedAt.UnixMilli(),
		LastActivity: h.lastActivity.UnixMilli(),
	}
}

func (h *Handle) touch(now time.Time) {
	h.mu.Lock()
	h.lastActivity = now
	h.mu.Unlock()
}
