package types

import "time"

// NotificationType identifies an outbound host notification
type NotificationType string

const (
	NotifySessionCreated  NotificationType = "session.created"
	NotifySessionSwitched NotificationType = "session.switched"
	NotifySessionDeleted  NotificationType = "session.deleted"
	NotifySetVisibility   NotificationType = "session.setVisibility"
	NotifySetBounds       NotificationType = "session.setBounds"
)

// Notification is a one-way intent for the view host. Every notification is
// safe to resend.
type Notification struct {
	Type      NotificationType `json:"type"`
	SessionID string           `json:"sessionId,omitempty"`
	IsVisible *bool            `json:"isVisible,omitempty"`
	Bounds    *Rectangle       `json:"bounds,omitempty"`
	Timestamp int64            `json:"timestamp"`
}

// SessionNotification builds a created/switched/deleted notification
func SessionNotification(t NotificationType, sessionID string) Notification {
	return Notification{
		Type:      t,
		SessionID: sessionID,
		Timestamp: time.Now().UnixMilli(),
	}
}

// VisibilityNotification builds a session.setVisibility notification
func VisibilityNotification(sessionID string, visible bool) Notification {
	return Notification{
		Type:      NotifySetVisibility,
		SessionID: sessionID,
		IsVisible: &visible,
		Timestamp: time.Now().UnixMilli(),
	}
}

// BoundsNotification builds a session.setBounds notification
func BoundsNotification(sessionID string, bounds Rectangle) Notification {
	return Notification{
		Type:      NotifySetBounds,
		SessionID: sessionID,
		Bounds:    &bounds,
		Timestamp: time.Now().UnixMilli(),
	}
}
