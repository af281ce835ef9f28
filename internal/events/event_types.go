package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventNavigationStart      EventType = "navigation.start"
	EventNavigationEnd        EventType = "navigation.end"
	EventNavigationCancel     EventType = "navigation.cancel"
	EventSessionStarted       EventType = "session.started"
	EventSessionEnded         EventType = "session.ended"
	EventSessionExpired       EventType = "session.expired"
	EventNotificationReceived EventType = "notification.received"
)

// Event represents something the portal components announce to each other.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with an id and the current time.
func New(eventType EventType, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// NavigationPayload accompanies navigation.* events.
type NavigationPayload struct {
	URL        string `json:"url"`
	From       string `json:"from,omitempty"`
	Redirected bool   `json:"redirected"`
	Reason     string `json:"reason,omitempty"`
}

// Reasons carried by session.ended and session.expired.
const (
	ReasonLogout   = "logout"
	ReasonExpired  = "expired"
	ReasonRejected = "rejected"
)

// SessionPayload accompanies session.* events.
type SessionPayload struct {
	UserID int64  `json:"user_id,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// NotificationPayload accompanies notification.received.
type NotificationPayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}
