package host

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/tab"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/infrastructure/tracing"
)

// Config configures the view host client
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RPS caps requests per second; zero means unlimited
	RPS     float64
	Retries int
}

// Client is a tab.Service backed by the view host's HTTP API
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	logger  *zap.Logger
}

// NewClient creates a host client with retries, rate limiting and a circuit
// breaker. Not-found and no-history answers do not count as breaker failures.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.Retries
	retryClient.RetryWaitMin = 50 * time.Millisecond
	retryClient.RetryWaitMax = 500 * time.Millisecond
	retryClient.Logger = nil

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "browserdesk-backend/1.0").
		SetHeader("Content-Type", "application/json").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)
	restyClient.OnBeforeRequest(tracing.RestyMiddleware)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RPS > 0 {
		burst := int(cfg.RPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	breaker := resilience.New("view-host", resilience.Settings{
		FailureThreshold: 5,
		Cooldown:         10 * time.Second,
		Countable:        countable,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		resty:   restyClient,
		limiter: limiter,
		breaker: breaker,
		logger:  logger,
	}
}

// GetTab implements tab.Service
func (c *Client) GetTab(ctx context.Context, viewID string) (tab.View, error) {
	var info tab.Info
	if err := c.do(ctx, http.MethodGet, tabPath(viewID, ""), nil, &info); err != nil {
		return nil, err
	}
	if info.ID == "" {
		info.ID = viewID
	}
	return &remoteView{client: c, info: info}, nil
}

// UpdateTabTimestamp implements tab.Service
func (c *Client) UpdateTabTimestamp(ctx context.Context, viewID string) error {
	return c.do(ctx, http.MethodPost, tabPath(viewID, "touch"), nil, nil)
}

// ViewForSession asks the host which view a session owns. It implements the
// browser provider's resolver, which has no context, so the lookup is bounded
// by the client timeout alone.
func (c *Client) ViewForSession(sessionID string) (string, bool) {
	var info tab.Info
	path := "/sessions/" + url.PathEscape(sessionID) + "/tab"
	if err := c.do(context.Background(), http.MethodGet, path, nil, &info); err != nil {
		if !errors.Is(err, tab.ErrNotFound) {
			c.logger.Warn("View lookup failed", zap.String("session_id", sessionID), zap.Error(err))
		}
		return "", false
	}
	return info.ID, info.ID != ""
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	_, err := resilience.Do(c.breaker, func() (*resty.Response, error) {
		req := c.resty.R().SetContext(ctx)
		if body != nil {
			req.SetBody(body)
		}
		if out != nil {
			req.SetResult(out)
		}

		resp, err := req.Execute(method, path)
		if err != nil {
			return nil, fmt.Errorf("host %s %s: %w", method, path, err)
		}
		return resp, statusError(method, path, resp.StatusCode())
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Warn("View host unavailable", zap.String("path", path))
	}
	return err
}

func statusError(method, path string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return tab.ErrNotFound
	case status == http.StatusConflict:
		return tab.ErrNoHistory
	default:
		return fmt.Errorf("host %s %s: unexpected status %d", method, path, status)
	}
}

func countable(err error) bool {
	return err != nil &&
		!errors.Is(err, tab.ErrNotFound) &&
		!errors.Is(err, tab.ErrNoHistory) &&
		!errors.Is(err, context.Canceled)
}

func tabPath(viewID, action string) string {
	p := "/tabs/" + url.PathEscape(viewID)
	if action != "" {
		p += "/" + action
	}
	return p
}

// remoteView is a snapshot of a host view. History flags reflect the moment
// it was fetched.
type remoteView struct {
	client *Client
	info   tab.Info
}

func (v *remoteView) ID() string         { return v.info.ID }
func (v *remoteView) CanGoBack() bool    { return v.info.CanGoBack }
func (v *remoteView) CanGoForward() bool { return v.info.CanGoForward }

func (v *remoteView) LoadURL(ctx context.Context, target string) error {
	return v.client.do(ctx, http.MethodPost, tabPath(v.info.ID, "navigate"), map[string]string{"url": target}, nil)
}

func (v *remoteView) Reload(ctx context.Context) error {
	return v.client.do(ctx, http.MethodPost, tabPath(v.info.ID, "reload"), nil, nil)
}

func (v *remoteView) GoBack(ctx context.Context) error {
	return v.client.do(ctx, http.MethodPost, tabPath(v.info.ID, "back"), nil, nil)
}

func (v *remoteView) GoForward(ctx context.Context) error {
	return v.client.do(ctx, http.MethodPost, tabPath(v.info.ID, "forward"), nil, nil)
}
