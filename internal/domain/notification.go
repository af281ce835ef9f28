package domain

import (
	"encoding/json"
	"time"
)

// NotificationData is the typed part of a notification payload. Fields the
// portal does not know about are kept in Extra.
type NotificationData struct {
	Type      string                     `json:"type,omitempty"`
	Title     string                     `json:"title,omitempty"`
	Message   string                     `json:"message,omitempty"`
	Icon      string                     `json:"icon,omitempty"`
	CreatedAt string                     `json:"created_at,omitempty"`
	Extra     map[string]json.RawMessage `json:"-"`
}

var knownDataFields = map[string]struct{}{
	"type": {}, "title": {}, "message": {}, "icon": {}, "created_at": {},
}

// UnmarshalJSON decodes the known fields and keeps the rest in Extra.
func (d *NotificationData) UnmarshalJSON(b []byte) error {
	type plain NotificationData
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k := range knownDataFields {
		delete(raw, k)
	}
	if len(raw) > 0 {
		p.Extra = raw
	}
	*d = NotificationData(p)
	return nil
}

// MarshalJSON writes Extra back next to the known fields.
func (d NotificationData) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Extra)+5)
	for k, v := range d.Extra {
		out[k] = v
	}
	if d.Type != "" {
		out["type"] = d.Type
	}
	if d.Title != "" {
		out["title"] = d.Title
	}
	if d.Message != "" {
		out["message"] = d.Message
	}
	if d.Icon != "" {
		out["icon"] = d.Icon
	}
	if d.CreatedAt != "" {
		out["created_at"] = d.CreatedAt
	}
	return json.Marshal(out)
}

// Notification is a database notification as listed by the backend.
type Notification struct {
	ID        string           `json:"id"`
	Type      string           `json:"type"`
	Data      NotificationData `json:"data"`
	ReadAt    *time.Time       `json:"read_at"`
	CreatedAt time.Time        `json:"created_at"`
}

// Unread reports whether the notification has not been read yet.
func (n Notification) Unread() bool {
	return n.ReadAt == nil
}
