package navigation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/tab"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/infrastructure/monitoring"
)

// Operation names
const (
	OpNavigate  = "navigate"
	OpRefresh   = "refresh"
	OpGoBack    = "goBack"
	OpGoForward = "goForward"
)

// Outcome is the structured result of a navigation command. It is plain data
// so it can travel back as a tool-call result.
type Outcome struct {
	OK        bool   `json:"ok"`
	NoHistory bool   `json:"no_history,omitempty"`
	Message   string `json:"message"`
}

// Controller runs navigation commands against views looked up by id.
// Commands on the same view are serialised in issuance order.
type Controller struct {
	tabs    tab.Service
	logger  *zap.Logger
	metrics *monitoring.Metrics

	mu    sync.Mutex
	locks map[string]*viewLock // Protected by mu
}

type viewLock struct {
	mu   sync.Mutex
	refs int
}

// NewController creates a navigation controller
func NewController(tabs tab.Service, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		tabs:   tabs,
		logger: logger,
		locks:  make(map[string]*viewLock),
	}
}

// WithMetrics adds metrics tracking to the controller
func (c *Controller) WithMetrics(metrics *monitoring.Metrics) *Controller {
	c.metrics = metrics
	return c
}

// Navigate loads url in the view
func (c *Controller) Navigate(ctx context.Context, viewID, rawURL string) (Outcome, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		c.metrics.RecordNavigation(OpNavigate, "invalid", 0)
		return Outcome{}, err
	}
	return c.run(ctx, OpNavigate, viewID, func(v tab.View) (Outcome, error) {
		if err := v.LoadURL(ctx, target); err != nil {
			return Outcome{}, err
		}
		return Outcome{OK: true, Message: "Navigated to " + target}, nil
	})
}

// Refresh reloads the view
func (c *Controller) Refresh(ctx context.Context, viewID string) (Outcome, error) {
	return c.run(ctx, OpRefresh, viewID, func(v tab.View) (Outcome, error) {
		if err := v.Reload(ctx); err != nil {
			return Outcome{}, err
		}
		return Outcome{OK: true, Message: "Page refreshed"}, nil
	})
}

// GoBack moves the view back one entry. Missing history is not an error.
func (c *Controller) GoBack(ctx context.Context, viewID string) (Outcome, error) {
	return c.directional(ctx, OpGoBack, viewID, tab.View.CanGoBack, tab.View.GoBack,
		"Navigated back", "No back history available")
}

// GoForward moves the view forward one entry. Missing history is not an error.
func (c *Controller) GoForward(ctx context.Context, viewID string) (Outcome, error) {
	return c.directional(ctx, OpGoForward, viewID, tab.View.CanGoForward, tab.View.GoForward,
		"Navigated forward", "No forward history available")
}

func (c *Controller) directional(
	ctx context.Context,
	op, viewID string,
	can func(tab.View) bool,
	move func(tab.View, context.Context) error,
	okMsg, noHistoryMsg string,
) (Outcome, error) {
	return c.run(ctx, op, viewID, func(v tab.View) (Outcome, error) {
		if err := move(v, ctx); err != nil {
			// history changed between the check and the move
			if errors.Is(err, tab.ErrNoHistory) {
				return Outcome{NoHistory: true, Message: noHistoryMsg}, nil
			}
			return Outcome{}, err
		}
		return Outcome{OK: true, Message: okMsg}, nil
	}, func(v tab.View) (Outcome, bool) {
		if can(v) {
			return Outcome{}, false
		}
		return Outcome{NoHistory: true, Message: noHistoryMsg}, true
	})
}

// run looks the view up, applies the optional precheck, touches the view and
// performs op, all under the view's lock.
func (c *Controller) run(
	ctx context.Context,
	op, viewID string,
	perform func(tab.View) (Outcome, error),
	precheck ...func(tab.View) (Outcome, bool),
) (Outcome, error) {
	start := time.Now()
	unlock := c.lock(viewID)
	defer unlock()

	out, err := c.execute(ctx, op, viewID, perform, precheck...)

	result := "ok"
	switch {
	case errors.Is(err, ErrViewNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	case out.NoHistory:
		result = "no_history"
	}
	c.metrics.RecordNavigation(op, result, time.Since(start))
	return out, err
}

func (c *Controller) execute(
	ctx context.Context,
	op, viewID string,
	perform func(tab.View) (Outcome, error),
	precheck ...func(tab.View) (Outcome, bool),
) (Outcome, error) {
	v, err := c.tabs.GetTab(ctx, viewID)
	if err != nil {
		return Outcome{}, c.lookupError(op, viewID, err)
	}

	for _, check := range precheck {
		if out, stop := check(v); stop {
			c.logger.Debug("Navigation skipped",
				zap.String("op", op),
				zap.String("view_id", viewID),
				zap.String("reason", out.Message),
			)
			return out, nil
		}
	}

	if err := c.tabs.UpdateTabTimestamp(ctx, viewID); err != nil {
		if errors.Is(err, tab.ErrNotFound) {
			return Outcome{}, c.lookupError(op, viewID, err)
		}
		c.logger.Warn("Failed to update view timestamp",
			zap.String("view_id", viewID),
			zap.Error(err),
		)
	}

	out, err := perform(v)
	if err != nil {
		if errors.Is(err, tab.ErrNotFound) {
			return Outcome{}, c.lookupError(op, viewID, err)
		}
		c.logger.Error("Navigation failed",
			zap.String("op", op),
			zap.String("view_id", viewID),
			zap.Error(err),
		)
		return Outcome{}, fmt.Errorf("%s %s: %w", op, viewID, err)
	}

	c.logger.Debug("Navigation complete",
		zap.String("op", op),
		zap.String("view_id", viewID),
		zap.Bool("ok", out.OK),
	)
	return out, nil
}

func (c *Controller) lookupError(op, viewID string, err error) error {
	if errors.Is(err, tab.ErrNotFound) {
		c.logger.Warn("View not found",
			zap.String("op", op),
			zap.String("view_id", viewID),
		)
		return &ViewNotFoundError{ViewID: viewID, Op: op}
	}
	return fmt.Errorf("lookup view %s: %w", viewID, err)
}

func (c *Controller) lock(viewID string) func() {
	c.mu.Lock()
	l, ok := c.locks[viewID]
	if !ok {
		l = &viewLock{}
		c.locks[viewID] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, viewID)
		}
		c.mu.Unlock()
	}
}
