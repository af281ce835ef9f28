package feedback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNoSuchConfirmation is returned when resolving an unknown or settled confirmation.
var ErrNoSuchConfirmation = errors.New("no pending confirmation with that id")

// Confirmation describes a confirm/cancel dialog.
type Confirmation struct {
	Title        string `json:"title"`
	Message      string `json:"message"`
	ConfirmLabel string `json:"confirm_label"`
	CancelLabel  string `json:"cancel_label"`
	Tone         Tone   `json:"tone"`
}

// PendingConfirmation is a dialog waiting for an answer.
type PendingConfirmation struct {
	ID string `json:"id"`
	Confirmation
	CreatedAt time.Time `json:"created_at"`
}

type waiter struct {
	PendingConfirmation
	answer chan bool
}

// Modal serializes destructive actions behind an explicit answer.
type Modal struct {
	mu      sync.Mutex
	pending []*waiter
}

// NewModal builds an empty modal.
func NewModal() *Modal {
	return &Modal{}
}

// Confirm shows c and blocks until it is resolved or ctx ends. An ended
// context counts as a cancel and returns ctx.Err().
func (m *Modal) Confirm(ctx context.Context, c Confirmation) (bool, error) {
	w := &waiter{
		PendingConfirmation: PendingConfirmation{
			ID:           uuid.NewString(),
			Confirmation: c,
			CreatedAt:    time.Now().UTC(),
		},
		answer: make(chan bool, 1),
	}
	m.mu.Lock()
	m.pending = append(m.pending, w)
	m.mu.Unlock()

	select {
	case accepted := <-w.answer:
		return accepted, nil
	case <-ctx.Done():
		m.remove(w.ID)
		return false, ctx.Err()
	}
}

// Resolve answers the pending confirmation with id.
func (m *Modal) Resolve(id string, accepted bool) error {
	w := m.remove(id)
	if w == nil {
		return ErrNoSuchConfirmation
	}
	w.answer <- accepted
	return nil
}

// Pending lists the unanswered confirmations, oldest first.
func (m *Modal) Pending() []PendingConfirmation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PendingConfirmation, 0, len(m.pending))
	for _, w := range m.pending {
		out = append(out, w.PendingConfirmation)
	}
	return out
}

func (m *Modal) remove(id string) *waiter {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, w := range m.pending {
		if w.ID == id {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return w
		}
	}
	return nil
}
