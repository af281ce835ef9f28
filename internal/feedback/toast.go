// Package feedback holds the user-facing signals of the portal: toasts,
// confirmation modals and the global loader.
package feedback

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Tone selects the styling of a toast or modal.
type Tone string

const (
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneError   Tone = "error"
)

// Toast is a transient, dismissible message.
type Toast struct {
	ID        string        `json:"id"`
	Tone      Tone          `json:"tone"`
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"created_at"`
	TTL       time.Duration `json:"-"`
}

// Toasts is the queue of visible toasts. Each toast dismisses itself when
// its TTL elapses.
type Toasts struct {
	ttl    time.Duration
	logger *zap.Logger

	mu     sync.Mutex
	items  []Toast
	timers map[string]*time.Timer
}

// NewToasts builds a queue whose toasts live for ttl unless they carry their own.
func NewToasts(ttl time.Duration, logger *zap.Logger) *Toasts {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Toasts{
		ttl:    ttl,
		logger: logger,
		timers: make(map[string]*time.Timer),
	}
}

// Show queues t and returns its id. A zero TTL falls back to the queue
// default; a negative TTL keeps the toast until dismissed.
func (q *Toasts) Show(t Toast) string {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Tone == "" {
		t.Tone = ToneInfo
	}
	if t.TTL == 0 {
		t.TTL = q.ttl
	}
	t.CreatedAt = time.Now().UTC()

	q.mu.Lock()
	q.items = append(q.items, t)
	if t.TTL > 0 {
		id := t.ID
		q.timers[id] = time.AfterFunc(t.TTL, func() { q.Dismiss(id) })
	}
	q.mu.Unlock()

	q.logger.Debug("toast shown", zap.String("toast_id", t.ID), zap.String("tone", string(t.Tone)), zap.String("title", t.Title))
	return t.ID
}

func (q *Toasts) Info(title, message string) string {
	return q.Show(Toast{Tone: ToneInfo, Title: title, Message: message})
}

func (q *Toasts) Success(title, message string) string {
	return q.Show(Toast{Tone: ToneSuccess, Title: title, Message: message})
}

func (q *Toasts) Warning(title, message string) string {
	return q.Show(Toast{Tone: ToneWarning, Title: title, Message: message})
}

func (q *Toasts) Error(title, message string) string {
	return q.Show(Toast{Tone: ToneError, Title: title, Message: message})
}

// Dismiss removes the toast with id. It reports false when no such toast is
// visible, which is not an error.
func (q *Toasts) Dismiss(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if timer, ok := q.timers[id]; ok {
		timer.Stop()
		delete(q.timers, id)
	}
	for i, t := range q.items {
		if t.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// List returns the visible toasts, oldest first.
func (q *Toasts) List() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Toast, len(q.items))
	copy(out, q.items)
	return out
}

// Clear drops every toast and stops pending timers.
func (q *Toasts) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
	q.items = nil
}
