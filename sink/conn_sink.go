// Package sink provides per-connection event buffering between the fanout
// worker and the transport writer goroutine.
package sink

import (
	"chat-relay/domain/event"
	"context"
)

// ConnSink decouples fan-out from socket writes: the fanout worker pushes
// events into the buffer and the connection's writer goroutine drains it.
// A slow consumer sheds events rather than stalling the whole room.
type ConnSink struct {
	Events chan event.DomainEvent
}

func NewConnSink(bufferSize int) *ConnSink {
	return &ConnSink{Events: make(chan event.DomainEvent, bufferSize)}
}

func (s *ConnSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		// Buffer full: backpressure is resolved by dropping. The room's
		// durable history is the source of truth, not this buffer.
		return nil
	}
}
