package visibility

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/types"
)

// Well-known hide reasons. Callers may use any other token as well.
const (
	ReasonSettingsOverlay    = "settings-overlay"
	ReasonSplitViewClosed    = "split-view-closed"
	ReasonAnimation          = "animation"
	ReasonContainerUnmounted = "container-unmounted"
)

// State is the last visibility the controller told the host about. A session
// starts in StateUnknown until its first notification.
type State int

const (
	StateUnknown State = iota
	StateVisible
	StateHidden
	StatePendingShow
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateVisible:
		return "visible"
	case StateHidden:
		return "hidden"
	case StatePendingShow:
		return "pending-show"
	case StateUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// Notifier receives visibility notifications. Notify is called with the
// controller lock held and must not call back into the controller.
type Notifier interface {
	Notify(n types.Notification)
}

// Scheduler runs f after d and returns a function that cancels it.
type Scheduler func(d time.Duration, f func()) (stop func() bool)

// TimeScheduler is the production Scheduler
func TimeScheduler(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

type sessionState struct {
	reasons map[string]struct{}
	state   State
	stop    func() bool
	gen     uint64 // bumped on every arm and cancel; stale timers compare against it
}

// Controller resolves independent hide requests into one visibility per session
type Controller struct {
	mu       sync.Mutex
	sessions map[string]*sessionState
	pending  int

	notifier Notifier
	schedule Scheduler
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// Option customizes a Controller
type Option func(*Controller)

// WithScheduler replaces the timer implementation
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.schedule = s
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = logging.OrNop(l)
	}
}

// WithMetrics enables metrics
func WithMetrics(m *monitoring.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// NewController creates a visibility controller
func NewController(notifier Notifier, opts ...Option) *Controller {
	c := &Controller{
		sessions: make(map[string]*sessionState),
		notifier: notifier,
		schedule: TimeScheduler,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddHideReason records that reason wants the session's view hidden. Hiding is
// immediate and cancels any pending show. A notification is emitted only when
// the reason set goes from empty to non-empty.
func (c *Controller) AddHideReason(sessionID, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session(sessionID)
	if _, ok := s.reasons[reason]; ok {
		return
	}
	wasEmpty := len(s.reasons) == 0
	s.reasons[reason] = struct{}{}

	c.cancelPending(s)
	s.state = StateHidden

	c.logger.Debug("Hide reason added",
		zap.String("session_id", sessionID),
		zap.String("reason", reason),
		zap.Int("reasons", len(s.reasons)),
	)

	if wasEmpty {
		c.emit(sessionID, false)
	}
}

// RemoveHideReason drops reason. The session becomes eligible to show when the
// set empties, but showing is left to RequestShow so the caller picks the delay.
// It reports whether reason was active and whether the reason set is now empty.
func (c *Controller) RemoveHideReason(sessionID, reason string) (removed, empty bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[sessionID]
	if !ok {
		return false, true
	}
	if _, ok := s.reasons[reason]; !ok {
		return false, len(s.reasons) == 0
	}
	delete(s.reasons, reason)
	c.logger.Debug("Hide reason removed",
		zap.String("session_id", sessionID),
		zap.String("reason", reason),
		zap.Int("reasons", len(s.reasons)),
	)
	return true, len(s.reasons) == 0
}

// RequestShow asks for the view to become visible after delay. It returns
// false while any hide reason is active. A newer request replaces a pending
// one; a non-positive delay shows immediately.
func (c *Controller) RequestShow(sessionID string, delay time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session(sessionID)
	if len(s.reasons) > 0 {
		return false
	}

	c.cancelPending(s)
	if s.state == StateVisible {
		return true
	}

	if delay <= 0 {
		s.state = StateVisible
		c.emit(sessionID, true)
		return true
	}

	s.gen++
	gen := s.gen
	s.state = StatePendingShow
	s.stop = c.schedule(delay, func() { c.fire(sessionID, gen) })
	c.pending++
	c.metrics.SetPendingShows(c.pending)
	return true
}

// IsHidden reports whether any hide reason is active
func (c *Controller) IsHidden(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[sessionID]
	return ok && len(s.reasons) > 0
}

// State returns the last emitted visibility state of the session
func (c *Controller) State(sessionID string) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.sessions[sessionID]; ok {
		return s.state
	}
	return StateUnknown
}

// Reasons returns the active hide reasons, sorted
func (c *Controller) Reasons(sessionID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[sessionID]
	if !ok {
		return nil
	}
	reasons := make([]string, 0, len(s.reasons))
	for r := range s.reasons {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	return reasons
}

// Forget drops all state for a session and cancels its pending show
func (c *Controller) Forget(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.sessions[sessionID]; ok {
		c.cancelPending(s)
		delete(c.sessions, sessionID)
	}
}

func (c *Controller) fire(sessionID string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[sessionID]
	if !ok || s.gen != gen || s.state != StatePendingShow || len(s.reasons) > 0 {
		return
	}
	s.stop = nil
	s.state = StateVisible
	c.pending--
	c.metrics.SetPendingShows(c.pending)
	c.emit(sessionID, true)
}

// session must hold mu
func (c *Controller) session(sessionID string) *sessionState {
	s, ok := c.sessions[sessionID]
	if !ok {
		s = &sessionState{reasons: make(map[string]struct{})}
		c.sessions[sessionID] = s
	}
	return s
}

// cancelPending must hold mu
func (c *Controller) cancelPending(s *sessionState) {
	if s.state != StatePendingShow {
		return
	}
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
	s.gen++
	s.state = StateHidden
	c.pending--
	c.metrics.SetPendingShows(c.pending)
}

// emit must hold mu
func (c *Controller) emit(sessionID string, visible bool) {
	c.metrics.RecordVisibility(visible)
	if c.notifier != nil {
		c.notifier.Notify(types.VisibilityNotification(sessionID, visible))
	}
}
