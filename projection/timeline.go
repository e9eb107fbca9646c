// Package projection builds local timelines from observed events.
// Handles ordering and projections only; it does not emit events or
// interact with the transport directly.
package projection

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"sync"
)

// Timeline accumulates stored messages in delivery order. Used as a
// permanent sink for diagnostics and in tests as an observable surface.
type Timeline struct {
	mu       sync.Mutex
	messages []domain.Message
}

func NewTimeline() *Timeline {
	return &Timeline{}
}

func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	if evt, ok := e.(event.MessageStored); ok {
		t.mu.Lock()
		t.messages = append(t.messages, evt.Message)
		t.mu.Unlock()
	}
	return nil
}

// Messages returns a snapshot of the accumulated timeline.
func (t *Timeline) Messages() []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]domain.Message, len(t.messages))
	copy(out, t.messages)
	return out
}
