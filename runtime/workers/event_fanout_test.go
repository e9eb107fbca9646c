package workers

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *recordingSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) received() []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.DomainEvent(nil), s.events...)
}

// sinkRegistry resolves connection handles to sinks; everything else on the
// interface is unused by the fanout worker.
type sinkRegistry struct {
	sinks map[uuid.UUID]contract.EventSink
}

func (r *sinkRegistry) Join(string, uuid.UUID, string, contract.EventSink) (contract.ReplayResult, error) {
	return contract.ReplayResult{}, nil
}
func (r *sinkRegistry) Leave(string, uuid.UUID, string) error            { return nil }
func (r *sinkRegistry) Broadcast(string, uuid.UUID) ([]uuid.UUID, error) { return nil, nil }
func (r *sinkRegistry) Disconnect(uuid.UUID) (string, string, bool)      { return "", "", false }
func (r *sinkRegistry) MemberCount(string) int                           { return 0 }
func (r *sinkRegistry) Sink(conn uuid.UUID) (contract.EventSink, bool) {
	sink, ok := r.sinks[conn]
	return sink, ok
}

func TestEventFanout_Delivers_To_Resolved_Recipients(t *testing.T) {
	req := require.New(t)

	// Given two connected sinks and one already-departed handle
	alice := uuid.New()
	bob := uuid.New()
	gone := uuid.New()
	aliceSink := &recordingSink{}
	bobSink := &recordingSink{}
	reg := &sinkRegistry{sinks: map[uuid.UUID]contract.EventSink{
		alice: aliceSink,
		bob:   bobSink,
	}}

	events := make(chan event.DomainEvent, 4)
	fanout := NewEventFanout(slog.Default(), events, reg, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = fanout.Run(ctx)
		close(done)
	}()

	// When an event targets alice, bob and the departed handle
	stored := event.MessageStored{
		Message: domain.Message{Room: "r1", Name: "alice", Text: "hello"},
		Targets: []uuid.UUID{alice, bob, gone},
	}
	events <- stored

	// Then both live sinks receive it and the stale handle is skipped
	req.Eventually(func() bool {
		return len(aliceSink.received()) == 1 && len(bobSink.received()) == 1
	}, time.Second, 10*time.Millisecond)
	req.Equal(stored, aliceSink.received()[0])

	cancel()
	<-done
}

func TestEventFanout_Feeds_Permanent_Sinks(t *testing.T) {
	req := require.New(t)

	// Given a permanent sink and an event with no connection recipients
	permanent := &recordingSink{}
	reg := &sinkRegistry{sinks: map[uuid.UUID]contract.EventSink{}}

	events := make(chan event.DomainEvent, 4)
	fanout := NewEventFanout(slog.Default(), events, reg, time.Second, permanent)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = fanout.Run(ctx)
		close(done)
	}()

	events <- event.MessageStored{
		Message: domain.Message{Room: "r1", Name: "alice", Text: "hello"},
	}

	req.Eventually(func() bool {
		return len(permanent.received()) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestEventFanout_Stops_When_Channel_Closes(t *testing.T) {
	reg := &sinkRegistry{sinks: map[uuid.UUID]contract.EventSink{}}
	events := make(chan event.DomainEvent)
	fanout := NewEventFanout(slog.Default(), events, reg, time.Second)

	done := make(chan struct{})
	go func() {
		_ = fanout.Run(context.Background())
		close(done)
	}()

	close(events)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fanout did not stop on channel close")
	}
}
