package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/types"
)

// Registry maps task ids to agent handles. Each task gets at most one agent
// for its lifetime, even when first requested by several goroutines at once.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]*Handle // Protected by mu
	group   singleflight.Group

	factory  Factory
	defaults Config
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	now      func() time.Time
}

// NewRegistry creates a registry that builds agents with factory
func NewRegistry(factory Factory, defaults Config, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		handles:  make(map[string]*Handle),
		factory:  factory,
		defaults: defaults.Clone(),
		logger:   logger,
		now:      time.Now,
	}
}

// WithMetrics adds metrics tracking to the registry
func (r *Registry) WithMetrics(metrics *monitoring.Metrics) *Registry {
	r.metrics = metrics
	return r
}

// GetOrCreate returns the task's handle, constructing it on first use with
// initial (or the registry defaults when nil). Concurrent callers for the same
// task share one construction. A failed construction leaves the registry
// unchanged and the error wraps ErrConstructionFailed.
func (r *Registry) GetOrCreate(ctx context.Context, taskID string, initial *Config) (*Handle, error) {
	if h, ok := r.Get(taskID); ok {
		return h, nil
	}

	v, err, shared := r.group.Do(taskID, func() (interface{}, error) {
		if h, ok := r.Get(taskID); ok {
			return h, nil
		}

		cfg := r.defaults.Clone()
		if initial != nil {
			cfg = initial.Clone()
		}

		// construction outlives any single caller that joined the flight
		a, err := r.factory(context.WithoutCancel(ctx), taskID, cfg)
		if err == nil && a == nil {
			err = errors.New("factory returned no agent")
		}
		r.metrics.RecordAgentConstruction(err)
		if err != nil {
			r.logger.Error("Agent construction failed",
				zap.String("task_id", taskID),
				zap.Error(err),
			)
			return nil, fmt.Errorf("%w: task %s: %w", ErrConstructionFailed, taskID, err)
		}

		now := r.now()
		h := &Handle{
			TaskID:       taskID,
			CreatedAt:    now,
			agent:        a,
			config:       cfg,
			lastActivity: now,
		}

		r.mu.Lock()
		r.handles[taskID] = h
		count := len(r.handles)
		r.mu.Unlock()

		r.metrics.SetAgentsActive(count)
		r.logger.Info("Agent created",
			zap.String("task_id", taskID),
			zap.String("model_tier", cfg.ModelTier),
		)
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.logger.Debug("Joined in-flight agent construction", zap.String("task_id", taskID))
	}
	return v.(*Handle), nil
}

// Get returns the task's handle without constructing one
func (r *Registry) Get(taskID string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[taskID]
	return h, ok
}

// Remove cleans up and forgets the task's agent. Removing an unknown task is
// a no-op. The handle is dropped even when cleanup fails.
func (r *Registry) Remove(taskID string) error {
	r.mu.Lock()
	h, ok := r.handles[taskID]
	if ok {
		delete(r.handles, taskID)
	}
	count := len(r.handles)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	r.metrics.SetAgentsActive(count)

	if err := h.agent.Cleanup(); err != nil {
		r.logger.Warn("Agent cleanup failed",
			zap.String("task_id", taskID),
			zap.Error(err),
		)
		return fmt.Errorf("cleanup agent %s: %w", taskID, err)
	}
	r.logger.Info("Agent removed", zap.String("task_id", taskID))
	return nil
}

// UpdateConfig applies patch to the task's agent. It returns false, and does
// nothing, when the task has no agent.
func (r *Registry) UpdateConfig(taskID string, patch ConfigPatch) (Config, bool) {
	h, ok := r.Get(taskID)
	if !ok {
		return Config{}, false
	}

	h.mu.Lock()
	h.config = h.config.Merge(patch)
	cfg := h.config.Clone()
	h.mu.Unlock()

	h.agent.UpdateConfig(cfg)
	r.logger.Debug("Agent config updated",
		zap.String("task_id", taskID),
		zap.String("model_tier", cfg.ModelTier),
	)
	return cfg, true
}

// ListActive returns the ids of all tasks with an agent, sorted
func (r *Registry) ListActive() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// List returns snapshots of every handle ordered by task id
func (r *Registry) List() []Info {
	r.mu.RLock()
	handles := make([]*Handle, 0, len(r.handles))
	for _, h := range r.handles {
		handles = append(handles, h)
	}
	r.mu.RUnlock()

	infos := make([]Info, 0, len(handles))
	for _, h := range handles {
		infos = append(infos, h.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].TaskID < infos[j].TaskID })
	return infos
}

// Clear cleans up every agent. It is meant for process shutdown; cleanup
// errors are collected and returned together.
func (r *Registry) Clear() error {
	r.mu.Lock()
	handles := r.handles
	r.handles = make(map[string]*Handle)
	r.mu.Unlock()

	var result *multierror.Error
	for taskID, h := range handles {
		if err := h.agent.Cleanup(); err != nil {
			result = multierror.Append(result, fmt.Errorf("cleanup agent %s: %w", taskID, err))
		}
	}
	r.metrics.SetAgentsActive(0)
	r.logger.Info("Agent registry cleared", zap.Int("agents", len(handles)))
	return result.ErrorOrNil()
}

// Chat routes a chat turn to the task's agent, creating it if needed
func (r *Registry) Chat(ctx context.Context, taskID string, req types.ChatRequest) (<-chan types.ChatEvent, error) {
	h, err := r.GetOrCreate(ctx, taskID, nil)
	if err != nil {
		return nil, err
	}
	h.touch(r.now())
	return h.agent.HandleChat(ctx, req)
}
