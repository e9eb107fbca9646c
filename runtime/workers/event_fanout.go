package workers

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	"context"
	"log/slog"
	"time"
)

// EventFanout bridges core events to their recipients: each event's
// resolved handles are mapped to connection sinks through the registry, and
// every event is also offered to the permanent sinks (projection, search
// index, stats).
//
// Fan-out is best-effort with no delivery, ordering, durability or retry
// guarantees; the durable room history is the source of truth.
type EventFanout struct {
	log            *slog.Logger
	events         chan event.DomainEvent
	registry       contract.IRegistry
	permanentSinks []contract.EventSink
	sinkTimeout    time.Duration
}

func NewEventFanout(log *slog.Logger, events chan event.DomainEvent,
	registry contract.IRegistry, sinkTimeout time.Duration,
	permanentSinks ...contract.EventSink) *EventFanout {
	return &EventFanout{
		log:            log,
		events:         events,
		registry:       registry,
		permanentSinks: permanentSinks,
		sinkTimeout:    sinkTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return nil
		case evt, ok := <-w.events:
			if !ok {
				return nil
			}
			w.fanout(ctx, evt)
		}
	}
}

func (w *EventFanout) fanout(ctx context.Context, evt event.DomainEvent) {
	for _, sink := range w.permanentSinks {
		w.consume(ctx, sink, evt)
	}
	for _, handle := range evt.Recipients() {
		sink, ok := w.registry.Sink(handle)
		if !ok {
			// The connection left between resolution and delivery.
			continue
		}
		w.consume(ctx, sink, evt)
	}
}

func (w *EventFanout) consume(ctx context.Context, sink contract.EventSink, evt event.DomainEvent) {
	sinkCtx := ctx
	if w.sinkTimeout > 0 {
		var cancel context.CancelFunc
		sinkCtx, cancel = context.WithTimeout(ctx, w.sinkTimeout)
		defer cancel()
	}
	if err := sink.Consume(sinkCtx, evt); err != nil {
		w.log.Debug("sink rejected event", "room", evt.RoomID(), "error", err)
	}
}
