package tab

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/types"
)

// BlankURL is loaded into every new tab
const BlankURL = "about:blank"

// Tab is an in-memory view with a linear back/forward history
type Tab struct {
	id        string
	sessionID string

	mu           sync.Mutex
	history      []string  // Protected by mu
	index        int       // Protected by mu
	reloads      int       // Protected by mu
	lastActivity time.Time // Protected by mu
	now          func() time.Time
}

func newTab(viewID, sessionID, url string, now func() time.Time) *Tab {
	if url == "" {
		url = BlankURL
	}
	return &Tab{
		id:           viewID,
		sessionID:    sessionID,
		history:      []string{url},
		lastActivity: now(),
		now:          now,
	}
}

// ID returns the view id
func (t *Tab) ID() string { return t.id }

// SessionID returns the owning session
func (t *Tab) SessionID() string { return t.sessionID }

// CanGoBack reports whether there is an earlier history entry
func (t *Tab) CanGoBack() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.index > 0
}

// CanGoForward reports whether there is a later history entry
func (t *Tab) CanGoForward() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.index < len(t.history)-1
}

// URL returns the current entry
func (t *Tab) URL() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.history[t.index]
}

// Reloads returns how many times the tab was reloaded
func (t *Tab) Reloads() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reloads
}

// LoadURL pushes url and drops any forward entries
func (t *Tab) LoadURL(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.history = append(t.history[:t.index+1], url)
	t.index = len(t.history) - 1
	return nil
}

// Reload reloads the current entry
func (t *Tab) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.reloads++
	return nil
}

// GoBack moves one entry back
func (t *Tab) GoBack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.index == 0 {
		return ErrNoHistory
	}
	t.index--
	return nil
}

// GoForward moves one entry forward
func (t *Tab) GoForward(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.index >= len(t.history)-1 {
		return ErrNoHistory
	}
	t.index++
	return nil
}

// Info returns a snapshot of the tab
func (t *Tab) Info() Info {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Info{
		ID:           t.id,
		SessionID:    t.sessionID,
		URL:          t.history[t.index],
		CanGoBack:    t.index > 0,
		CanGoForward: t.index < len(t.history)-1,
		LastActivity: t.lastActivity.UnixMilli(),
	}
}

func (t *Tab) touch() {
	t.mu.Lock()
	t.lastActivity = t.now()
	t.mu.Unlock()
}

// Registry is an in-memory tab.Service. It stands in for the view host when
// none is configured, creating and closing one tab per session as lifecycle
// notifications arrive.
type Registry struct {
	mu        sync.RWMutex
	tabs      map[string]*Tab   // Protected by mu
	bySession map[string]string // Protected by mu
	ids       *id.Generator
	now       func() time.Time
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		tabs:      make(map[string]*Tab),
		bySession: make(map[string]string),
		ids:       id.Default(),
		now:       time.Now,
	}
}

// WithClock replaces the time source
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// Create opens a tab for sessionID. A session owns at most one tab, so an
// existing one is returned unchanged.
func (r *Registry) Create(sessionID, url string) *Tab {
	r.mu.Lock()
	defer r.mu.Unlock()

	if viewID, ok := r.bySession[sessionID]; ok {
		return r.tabs[viewID]
	}

	t := newTab(r.ids.Prefixed(id.ViewPrefix), sessionID, url, r.now)
	r.tabs[t.id] = t
	if sessionID != "" {
		r.bySession[sessionID] = t.id
	}
	return t
}

// GetTab implements Service
func (r *Registry) GetTab(ctx context.Context, viewID string) (View, error) {
	t, ok := r.Get(viewID)
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

// UpdateTabTimestamp implements Service
func (r *Registry) UpdateTabTimestamp(ctx context.Context, viewID string) error {
	t, ok := r.Get(viewID)
	if !ok {
		return ErrNotFound
	}
	t.touch()
	return nil
}

// Get returns the tab with the given id
func (r *Registry) Get(viewID string) (*Tab, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tabs[viewID]
	return t, ok
}

// ForSession returns the tab owned by sessionID
func (r *Registry) ForSession(sessionID string) (*Tab, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	viewID, ok := r.bySession[sessionID]
	if !ok {
		return nil, false
	}
	return r.tabs[viewID], true
}

// ViewForSession returns the id of the tab owned by sessionID
func (r *Registry) ViewForSession(sessionID string) (string, bool) {
	t, ok := r.ForSession(sessionID)
	if !ok {
		return "", false
	}
	return t.id, true
}

// LastActivity returns when the tab was last touched
func (r *Registry) LastActivity(viewID string) (time.Time, bool) {
	t, ok := r.Get(viewID)
	if !ok {
		return time.Time{}, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastActivity, true
}

// Close destroys a tab
func (r *Registry) Close(viewID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tabs[viewID]
	if !ok {
		return false
	}
	delete(r.tabs, viewID)
	if r.bySession[t.sessionID] == viewID {
		delete(r.bySession, t.sessionID)
	}
	return true
}

// CloseSession destroys the tab owned by sessionID
func (r *Registry) CloseSession(sessionID string) bool {
	viewID, ok := r.ViewForSession(sessionID)
	if !ok {
		return false
	}
	return r.Close(viewID)
}

// List returns snapshots of all tabs ordered by id
func (r *Registry) List() []Info {
	r.mu.RLock()
	tabs := make([]*Tab, 0, len(r.tabs))
	for _, t := range r.tabs {
		tabs = append(tabs, t)
	}
	r.mu.RUnlock()

	infos := make([]Info, 0, len(tabs))
	for _, t := range tabs {
		infos = append(infos, t.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Notify plays the view host's part for lifecycle notifications
func (r *Registry) Notify(n types.Notification) {
	switch n.Type {
	case types.NotifySessionCreated:
		r.Create(n.SessionID, BlankURL)
	case types.NotifySessionDeleted:
		r.CloseSession(n.SessionID)
	}
}
