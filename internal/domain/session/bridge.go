package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/bounds"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/visibility"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/types"
)

// DefaultTombstones is the default number of deleted sessions remembered
const DefaultTombstones = 256

// Notifier receives lifecycle and bounds notifications. Notify is called with
// the bridge lock held and must not call back into the bridge.
type Notifier interface {
	Notify(n types.Notification)
}

// Visibility is the part of the visibility controller the bridge drives
type Visibility interface {
	AddHideReason(sessionID, reason string)
	RemoveHideReason(sessionID, reason string) (removed, empty bool)
	RequestShow(sessionID string, delay time.Duration) bool
	IsHidden(sessionID string) bool
	Forget(sessionID string)
}

// Config tunes the bridge
type Config struct {
	ShowDelay  time.Duration
	Fallback   types.Rectangle
	Tombstones int
}

type container struct {
	sessionID string
	rect      *types.RectF
}

// Snapshot is the serialisable state of the bridge
type Snapshot struct {
	Active     string            `json:"active,omitempty"`
	Overlay    bool              `json:"overlay_open"`
	Sessions   []string          `json:"sessions"`
	Containers map[string]string `json:"containers"`
	Tombstones int               `json:"tombstones"`
}

// Bridge turns UI lifecycle events into host notifications. Every input is
// idempotent: duplicates, remounts and late events for deleted sessions
// produce no extra notifications.
type Bridge struct {
	mu         sync.Mutex
	active     string                     // Protected by mu
	overlay    bool                       // Protected by mu
	live       map[string]struct{}        // sessions the host holds a view for; Protected by mu
	containers map[string]*container      // Protected by mu
	sent       map[string]types.Rectangle // last bounds emitted per session; Protected by mu
	tombstones *lru.Cache[string, struct{}]

	vis       Visibility
	notifier  Notifier
	resolver  *bounds.Resolver
	showDelay time.Duration
	logger    *zap.Logger
}

// NewBridge creates a lifecycle bridge
func NewBridge(cfg Config, vis Visibility, notifier Notifier, logger *zap.Logger) (*Bridge, error) {
	if vis == nil || notifier == nil {
		return nil, fmt.Errorf("session bridge requires visibility and notifier")
	}
	size := cfg.Tombstones
	if size <= 0 {
		size = DefaultTombstones
	}
	tombstones, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("create tombstone cache: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		live:       make(map[string]struct{}),
		containers: make(map[string]*container),
		sent:       make(map[string]types.Rectangle),
		tombstones: tombstones,
		vis:        vis,
		notifier:   notifier,
		resolver:   bounds.NewResolver(cfg.Fallback),
		showDelay:  cfg.ShowDelay,
		logger:     logger,
	}, nil
}

// Created handles a new session. The session also becomes active.
func (b *Bridge) Created(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dropped(sessionID, "created") {
		return
	}
	b.ensureLive(sessionID)
	b.activate(sessionID)
}

// SwitchedTo handles the UI focusing a session
func (b *Bridge) SwitchedTo(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dropped(sessionID, "switched") {
		return
	}
	b.ensureLive(sessionID)
	b.activate(sessionID)
}

// Deleted handles a session being removed. Later events for it are ignored.
func (b *Bridge) Deleted(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sessionID == "" || b.tombstones.Contains(sessionID) {
		return
	}
	b.tombstones.Add(sessionID, struct{}{})

	b.release(sessionID)
	for id, c := range b.containers {
		if c.sessionID == sessionID {
			delete(b.containers, id)
		}
	}
	delete(b.sent, sessionID)
	b.vis.Forget(sessionID)
	if b.active == sessionID {
		b.active = ""
	}
	b.logger.Info("Session deleted", zap.String("session_id", sessionID))
}

// Mounted handles a UI container attaching to a session. rect may be nil when
// the container has not been measured yet. Mounting the same container with
// the same session again only refreshes its rectangle.
func (b *Bridge) Mounted(containerID, sessionID string, rect *types.RectF) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dropped(sessionID, "mounted") {
		return
	}

	if c, ok := b.containers[containerID]; ok && c.sessionID == sessionID {
		if rect != nil {
			c.rect = copyRect(rect)
			b.propagateBounds()
		}
		return
	}

	// the container is reused for another session
	if c, ok := b.containers[containerID]; ok {
		b.detach(containerID, c)
	}

	b.containers[containerID] = &container{sessionID: sessionID, rect: copyRect(rect)}
	b.ensureLive(sessionID)
	if b.active == "" {
		b.activate(sessionID)
	}

	if removed, empty := b.vis.RemoveHideReason(sessionID, visibility.ReasonContainerUnmounted); removed && empty {
		b.reveal(sessionID)
	}
	b.logger.Debug("Container mounted",
		zap.String("container_id", containerID),
		zap.String("session_id", sessionID),
	)
}

// Unmounted handles a UI container going away. The owning session's view is
// hidden and released.
func (b *Bridge) Unmounted(containerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.containers[containerID]
	if !ok {
		return
	}
	b.detach(containerID, c)
	b.logger.Debug("Container unmounted",
		zap.String("container_id", containerID),
		zap.String("session_id", c.sessionID),
	)
}

// Resized records a new container rectangle
func (b *Bridge) Resized(containerID string, rect types.RectF) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.containers[containerID]
	if !ok {
		return
	}
	c.rect = copyRect(&rect)
	if c.sessionID == b.active {
		b.propagateBounds()
	}
}

// SetOverlay records whether a modal overlay covers the view area
func (b *Bridge) SetOverlay(open bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.overlay == open {
		return
	}
	b.overlay = open
	if b.active == "" {
		return
	}
	if open {
		b.vis.AddHideReason(b.active, visibility.ReasonSettingsOverlay)
		return
	}
	if removed, empty := b.vis.RemoveHideReason(b.active, visibility.ReasonSettingsOverlay); removed && empty {
		b.reveal(b.active)
	}
}

// Hide adds a hide reason for the session. Sessions the host holds no view
// for are ignored.
func (b *Bridge) Hide(sessionID, reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dropped(sessionID, "hide") || !b.isLive(sessionID, "hide") {
		return
	}
	b.vis.AddHideReason(sessionID, reason)
}

// Show removes a hide reason and requests a debounced show once none remain.
// Removing a reason that was never added leaves any pending show alone.
func (b *Bridge) Show(sessionID, reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dropped(sessionID, "show") || !b.isLive(sessionID, "show") {
		return
	}
	if removed, empty := b.vis.RemoveHideReason(sessionID, reason); removed && empty {
		b.reveal(sessionID)
	}
}

// Active returns the active session id, or "" when none
func (b *Bridge) Active() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Snapshot returns the current bridge state
func (b *Bridge) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	sessions := make([]string, 0, len(b.live))
	for id := range b.live {
		sessions = append(sessions, id)
	}
	sort.Strings(sessions)

	containers := make(map[string]string, len(b.containers))
	for id, c := range b.containers {
		containers[id] = c.sessionID
	}

	return Snapshot{
		Active:     b.active,
		Overlay:    b.overlay,
		Sessions:   sessions,
		Containers: containers,
		Tombstones: b.tombstones.Len(),
	}
}

// dropped reports whether events for sessionID must be ignored; must hold mu
func (b *Bridge) dropped(sessionID, event string) bool {
	if sessionID == "" {
		return true
	}
	if b.tombstones.Contains(sessionID) {
		b.logger.Debug("Ignoring event for deleted session",
			zap.String("event", event),
			zap.String("session_id", sessionID),
		)
		return true
	}
	return false
}

// isLive reports whether the host holds a view for sessionID; must hold mu
func (b *Bridge) isLive(sessionID, event string) bool {
	if _, ok := b.live[sessionID]; ok {
		return true
	}
	b.logger.Debug("Ignoring event for session without a view",
		zap.String("event", event),
		zap.String("session_id", sessionID),
	)
	return false
}

// ensureLive emits session.created the first time the host needs a view for
// sessionID; must hold mu
func (b *Bridge) ensureLive(sessionID string) {
	if _, ok := b.live[sessionID]; ok {
		return
	}
	b.live[sessionID] = struct{}{}
	b.emit(types.SessionNotification(types.NotifySessionCreated, sessionID))
}

// release emits session.deleted if the host still holds a view; must hold mu
func (b *Bridge) release(sessionID string) {
	if _, ok := b.live[sessionID]; !ok {
		return
	}
	delete(b.live, sessionID)
	b.emit(types.SessionNotification(types.NotifySessionDeleted, sessionID))
}

// activate makes sessionID the active session; must hold mu
func (b *Bridge) activate(sessionID string) {
	if b.active == sessionID {
		return
	}
	previous := b.active
	b.active = sessionID
	b.emit(types.SessionNotification(types.NotifySessionSwitched, sessionID))
	b.logger.Debug("Active session changed",
		zap.String("from", previous),
		zap.String("to", sessionID),
	)

	if b.overlay {
		b.vis.AddHideReason(sessionID, visibility.ReasonSettingsOverlay)
		if previous != "" {
			b.vis.RemoveHideReason(previous, visibility.ReasonSettingsOverlay)
		}
		return
	}
	if !b.vis.IsHidden(sessionID) {
		b.reveal(sessionID)
	}
}

// detach unbinds a container; must hold mu
func (b *Bridge) detach(containerID string, c *container) {
	delete(b.containers, containerID)
	b.vis.AddHideReason(c.sessionID, visibility.ReasonContainerUnmounted)
	b.release(c.sessionID)
	delete(b.sent, c.sessionID)
	if b.active == c.sessionID {
		b.active = ""
	}
}

// reveal pushes bounds for the active session and schedules the show; must
// hold mu
func (b *Bridge) reveal(sessionID string) {
	if sessionID == b.active {
		b.propagateBounds()
	}
	b.vis.RequestShow(sessionID, b.showDelay)
}

// propagateBounds emits session.setBounds for the active session when it is
// allowed and the rectangle changed; must hold mu
func (b *Bridge) propagateBounds() {
	s := b.active
	_, present := b.live[s]
	if !bounds.ShouldPropagate(s != "" && present, b.vis.IsHidden(s), b.overlay) {
		return
	}

	rect := b.resolver.ComputeRectangle(b.rectFor(s))
	if last, ok := b.sent[s]; ok && last == rect {
		return
	}
	b.sent[s] = rect
	b.emit(types.BoundsNotification(s, rect))
}

// rectFor returns the measured rectangle of a container showing sessionID;
// must hold mu
func (b *Bridge) rectFor(sessionID string) *types.RectF {
	ids := make([]string, 0, len(b.containers))
	for id, c := range b.containers {
		if c.sessionID == sessionID && c.rect != nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)
	return b.containers[ids[0]].rect
}

func (b *Bridge) emit(n types.Notification) {
	b.notifier.Notify(n)
}

func copyRect(r *types.RectF) *types.RectF {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
