package tab

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no view has the requested id
	ErrNotFound = errors.New("tab not found")
	// ErrNoHistory is returned by a view asked to move past either end of its history
	ErrNoHistory = errors.New("no history entry")
)

// View is a handle to one native browser surface
type View interface {
	ID() string
	CanGoBack() bool
	CanGoForward() bool
	LoadURL(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	GoBack(ctx context.Context) error
	GoForward(ctx context.Context) error
}

// Service resolves view ids to live handles. It is implemented by the view
// host and, for headless runs, by Registry.
type Service interface {
	GetTab(ctx context.Context, viewID string) (View, error)
	UpdateTabTimestamp(ctx context.Context, viewID string) error
}

// Info is the serialisable state of a view
type Info struct {
	ID           string `json:"id"`
	SessionID    string `json:"session_id,omitempty"`
	URL          string `json:"url"`
	CanGoBack    bool   `json:"can_go_back"`
	CanGoForward bool   `json:"can_go_forward"`
	LastActivity int64  `json:"last_activity"`
}
