// Package realtime subscribes to the backend's private broadcast channels.
package realtime

import (
	"context"
	"encoding/json"
	"strings"
)

// DefaultNamespace is prepended to event names that do not start with a dot.
const DefaultNamespace = `App\Events\`

// Event is one broadcast received on a channel.
type Event struct {
	Channel string          `json:"channel"`
	Name    string          `json:"event"`
	Data    json.RawMessage `json:"data"`
	Socket  string          `json:"socket,omitempty"`
}

// Handler receives events a channel listens for.
type Handler func(ctx context.Context, ev Event)

// Channel is a subscribed channel.
type Channel interface {
	// Listen registers fn for event. A leading dot matches the broadcast name
	// literally; other names are resolved in DefaultNamespace.
	Listen(event string, fn Handler)
	// OnError registers fn for subscription and decode failures.
	OnError(fn func(error))
	// Leave unsubscribes.
	Leave() error
}

// Transport is a connection to the broadcast server.
type Transport interface {
	Private(ctx context.Context, name string) (Channel, error)
	Close() error
}

// Connector opens a transport authorized with a bearer token.
type Connector interface {
	Connect(ctx context.Context, token string) (Transport, error)
}

// EventName resolves a listen name to the name the broadcaster publishes.
func EventName(name string) string {
	if strings.HasPrefix(name, ".") {
		return name[1:]
	}
	return DefaultNamespace + name
}

// PrivateName is the wire name of a private channel.
func PrivateName(name string) string {
	return "private-" + name
}
