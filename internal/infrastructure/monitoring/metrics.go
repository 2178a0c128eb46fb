package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. Every recording method is safe to
// call on a nil *Metrics so components can run without instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Agent metrics
	AgentsActive          prometheus.Gauge
	AgentConstructions    prometheus.Counter
	AgentConstructFailure prometheus.Counter

	// Navigation metrics
	NavigationOps      *prometheus.CounterVec
	NavigationDuration *prometheus.HistogramVec

	// Visibility and bounds metrics
	VisibilityTransitions *prometheus.CounterVec
	PendingShows          prometheus.Gauge
	Notifications         *prometheus.CounterVec

	// WebSocket metrics
	WSConnections *prometheus.GaugeVec
	WSMessages    *prometheus.CounterVec

	// Service tool metrics
	ToolCalls *prometheus.CounterVec
}

// NewMetrics creates a collector backed by its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "browserdesk_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "browserdesk_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		AgentsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "browserdesk_agents_active",
			Help: "Number of live agent instances",
		}),
		AgentConstructions: factory.NewCounter(prometheus.CounterOpts{
			Name: "browserdesk_agent_constructions_total",
			Help: "Total number of agent instances constructed",
		}),
		AgentConstructFailure: factory.NewCounter(prometheus.CounterOpts{
			Name: "browserdesk_agent_construction_failures_total",
			Help: "Total number of failed agent constructions",
		}),

		NavigationOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "browserdesk_navigation_ops_total",
				Help: "Navigation operations by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		NavigationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "browserdesk_navigation_duration_seconds",
				Help:    "Navigation round-trip duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"op"},
		),

		VisibilityTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "browserdesk_visibility_transitions_total",
				Help: "Emitted visibility transitions",
			},
			[]string{"visible"},
		),
		PendingShows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "browserdesk_visibility_pending_shows",
			Help: "Debounced show requests waiting to fire",
		}),
		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "browserdesk_host_notifications_total",
				Help: "Notifications sent to the view host",
			},
			[]string{"type"},
		),

		WSConnections: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "browserdesk_ws_connections",
				Help: "Open WebSocket connections",
			},
			[]string{"role"},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "browserdesk_ws_messages_total",
				Help: "WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		ToolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "browserdesk_tool_calls_total",
				Help: "Service tool executions by outcome",
			},
			[]string{"tool", "outcome"},
		),
	}
}

// Registry exposes the underlying registry (for tests and custom collectors)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetAgentsActive sets the number of live agents
func (m *Metrics) SetAgentsActive(count int) {
	if m == nil {
		return
	}
	m.AgentsActive.Set(float64(count))
}

// RecordAgentConstruction records a construction attempt
func (m *Metrics) RecordAgentConstruction(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.AgentConstructFailure.Inc()
		return
	}
	m.AgentConstructions.Inc()
}

// RecordNavigation records a navigation operation
func (m *Metrics) RecordNavigation(op, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.NavigationOps.WithLabelValues(op, outcome).Inc()
	m.NavigationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordVisibility records an emitted visibility transition
func (m *Metrics) RecordVisibility(visible bool) {
	if m == nil {
		return
	}
	label := "false"
	if visible {
		label = "true"
	}
	m.VisibilityTransitions.WithLabelValues(label).Inc()
}

// SetPendingShows sets the number of armed show timers
func (m *Metrics) SetPendingShows(count int) {
	if m == nil {
		return
	}
	m.PendingShows.Set(float64(count))
}

// RecordNotification records an outbound host notification
func (m *Metrics) RecordNotification(notificationType string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(notificationType).Inc()
}

// IncWSConnections increments open connections for a role ("ui" or "host")
func (m *Metrics) IncWSConnections(role string) {
	if m == nil {
		return
	}
	m.WSConnections.WithLabelValues(role).Inc()
}

// DecWSConnections decrements open connections for a role
func (m *Metrics) DecWSConnections(role string) {
	if m == nil {
		return
	}
	m.WSConnections.WithLabelValues(role).Dec()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// RecordToolCall records a service tool execution. Outcome is success,
// failure (a failed Result) or error.
func (m *Metrics) RecordToolCall(toolID, outcome string) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(toolID, outcome).Inc()
}
