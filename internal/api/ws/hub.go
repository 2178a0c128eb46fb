package ws

import (
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/types"
)

// RoleHost marks view host connections
const RoleHost = "host"

// Hub broadcasts host notifications to every connected view host. Notify
// never blocks: a host that falls behind loses notifications rather than
// stalling the controllers that emit them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client // Protected by mu
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*client),
		logger:  logger,
	}
}

// WithMetrics adds metrics tracking to the hub
func (h *Hub) WithMetrics(metrics *monitoring.Metrics) *Hub {
	h.metrics = metrics
	return h
}

// Notify broadcasts n to all hosts
func (h *Hub) Notify(n types.Notification) {
	h.metrics.RecordNotification(string(n.Type))

	data, err := sonic.Marshal(n)
	if err != nil {
		h.logger.Error("Failed to encode notification", zap.String("type", string(n.Type)), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if !c.offer(data) {
			h.logger.Warn("Dropping notification for slow host",
				zap.String("conn_id", c.id),
				zap.String("type", string(n.Type)),
				zap.String("session_id", n.SessionID),
			)
			continue
		}
		h.metrics.RecordWSMessage("out", string(n.Type))
	}
}

// Count returns the number of connected hosts
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every host
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*client)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.metrics.IncWSConnections(c.role)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()
	if ok {
		h.metrics.DecWSConnections(c.role)
	}
}
