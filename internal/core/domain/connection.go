package domain

import "time"

// ClientType distinguishes what a raw socket connection subscribed to.
type ClientType string

const (
	ClientGeneral       ClientType = "general"
	ClientNotifications ClientType = "notifications"
	ClientStreamViewer  ClientType = "stream-viewer"
)

// ConnectionInfo is the bridge's view of one live transport connection.
// Mutated in place as the peer sends auth/ping messages; destroyed on
// disconnect.
type ConnectionInfo struct {
	ID        string
	Type      ClientType
	UserID    string
	ContentID ContentID
	LastPing  time.Time
}

// Notification is a per-user push payload. Delivery is best effort; an
// undelivered notification only means the user has no live session.
type Notification struct {
	ID      string                 `json:"id"`
	Type    string                 `json:"type"`
	Title   string                 `json:"title,omitempty"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
	At      time.Time              `json:"time"`
}
