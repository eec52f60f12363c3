package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRecorder keeps events in a slice for tests and development.
type InMemoryRecorder struct {
	mu     sync.RWMutex
	events []Event
	nextID int64
}

func NewInMemoryRecorder() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

func (r *InMemoryRecorder) Record(ctx context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	event.ID = r.nextID
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of every recorded event in insertion order.
func (r *InMemoryRecorder) Events() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// EventsFor returns the recorded actions for one account in order.
func (r *InMemoryRecorder) EventsFor(accountID uuid.UUID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var actions []string
	for _, e := range r.events {
		if e.AccountID == accountID {
			actions = append(actions, e.Action)
		}
	}
	return actions
}

// NopRecorder discards every event.
type NopRecorder struct{}

func (NopRecorder) Record(ctx context.Context, event Event) error { return nil }
