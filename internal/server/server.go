package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/AgentOS/browserdesk/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/api/ws"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/agent"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/navigation"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/service"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/tab"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/visibility"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/providers/ai"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/providers/browser"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/providers/host"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/types"
)

const (
	shutdownTimeout = 10 * time.Second
	agentTimeout    = 30 * time.Second
	hostRetries     = 2
)

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg     *config.Config
	router  *gin.Engine
	logger  *zap.Logger
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer

	hub      *ws.Hub
	agents   *agent.Registry
	bridge   *session.Bridge
	registry *service.Registry
	tabs     *tab.Registry // nil when a view host is configured
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	logger = logging.OrNop(logger)
	metrics := monitoring.NewMetrics()
	tracer := tracing.New("browserdesk", logging.Component(logger, "trace"))

	hub := ws.NewHub(logging.Component(logger, "hub")).WithMetrics(metrics)
	notifiers := fanout{hub}

	// Views: the remote host when configured, otherwise in-memory tabs driven
	// by the same notifications the host would receive.
	var (
		views    tab.Service
		resolver browser.ViewResolver
		tabs     *tab.Registry
	)
	if cfg.ViewHost.Address != "" {
		client := host.NewClient(host.Config{
			BaseURL: cfg.ViewHost.Address,
			Timeout: cfg.ViewHost.Timeout.Std(),
			RPS:     cfg.ViewHost.RequestsPerSecond,
			Retries: hostRetries,
		}, logging.Component(logger, "host"))
		views, resolver = client, client
		logger.Info("Using remote view host", zap.String("address", cfg.ViewHost.Address))
	} else {
		tabs = tab.NewRegistry()
		views, resolver = tabs, tabs
		notifiers = append(notifiers, tabs)
		logger.Info("No view host configured, using in-memory tabs")
	}

	vis := visibility.NewController(notifiers,
		visibility.WithLogger(logging.Component(logger, "visibility")),
		visibility.WithMetrics(metrics),
	)
	bridge, err := session.NewBridge(session.Config{
		ShowDelay: cfg.View.ShowDelay.Std(),
		Fallback: types.Rectangle{
			Width:  cfg.View.FallbackWidth,
			Height: cfg.View.FallbackHeight,
		},
		Tombstones: cfg.Bridge.TombstoneSize,
	}, vis, notifiers, logging.Component(logger, "bridge"))
	if err != nil {
		tracer.Close()
		return nil, fmt.Errorf("create session bridge: %w", err)
	}

	aiClient := ai.NewClient(ai.Config{
		BaseURL: cfg.AI.Address,
		APIKey:  cfg.AI.APIKey,
		Timeout: agentTimeout,
	}, logging.Component(logger, "ai"))
	agents := agent.NewRegistry(aiClient.Factory(), agent.Config{ModelTier: cfg.AI.ModelTier},
		logging.Component(logger, "agents")).WithMetrics(metrics)

	nav := navigation.NewController(views, logging.Component(logger, "nav")).WithMetrics(metrics)

	registry := service.NewRegistry().WithLogger(logging.Component(logger, "services")).WithMetrics(metrics)
	if err := registry.Register(browser.New(nav, resolver)); err != nil {
		tracer.Close()
		return nil, fmt.Errorf("register browser tools: %w", err)
	}
	logger.Info("Registered service providers", zap.Int("count", len(registry.List(nil))))

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(middleware.RequestLogger(logging.Component(logger, "http")))
	router.Use(monitoring.Middleware(metrics))
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.Origins = cfg.Server.CORSOrigins
	router.Use(middleware.CORS(corsCfg))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(agents, nav, registry, bridge, hub, logging.Component(logger, "api"))
	var viewLimit []gin.HandlerFunc
	if cfg.RateLimit.Enabled && cfg.ViewHost.RequestsPerSecond > 0 {
		// one bucket for all clients, ahead of the host client's own limiter
		rps := int(cfg.ViewHost.RequestsPerSecond)
		viewLimit = append(viewLimit, middleware.GlobalRateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: rps,
			Burst:             2 * rps,
		}))
	}
	handlers.Register(router, viewLimit...)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	wsHandler := ws.NewHandler(bridge, agents, hub, logging.Component(logger, "ws")).WithMetrics(metrics)
	router.GET("/stream", wsHandler.HandleStream)
	router.GET("/host", wsHandler.HandleHost)

	return &Server{
		cfg:      cfg,
		router:   router,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
		hub:      hub,
		agents:   agents,
		bridge:   bridge,
		registry: registry,
		tabs:     tabs,
	}, nil
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.router
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Server.Host, s.cfg.Server.Port)
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var result *multierror.Error
	// hijacked websocket connections are not tracked by Shutdown
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("http shutdown: %w", err))
	}
	if err := s.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// Close cleans up resources. It is safe to call more than once.
func (s *Server) Close() error {
	s.hub.Close()
	defer s.tracer.Close()
	if err := s.agents.Clear(); err != nil {
		s.logger.Warn("Agent cleanup reported errors", zap.Error(err))
		return fmt.Errorf("agent cleanup: %w", err)
	}
	return nil
}
