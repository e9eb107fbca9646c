package sink

import (
	"chat-relay/domain/event"
	"chat-relay/search"
	"context"
	"log/slog"
)

// IndexSink feeds stored messages into the search index. Indexing failures
// are logged and swallowed: a lost search hit never blocks delivery.
type IndexSink struct {
	index *search.Index
	log   *slog.Logger
}

func NewIndexSink(index *search.Index, log *slog.Logger) IndexSink {
	return IndexSink{index: index, log: log}
}

func (s IndexSink) Consume(_ context.Context, e event.DomainEvent) error {
	evt, ok := e.(event.MessageStored)
	if !ok {
		return nil
	}
	if err := s.index.Add(evt.Message); err != nil {
		s.log.Error("indexing message", "room", evt.Message.Room, "seq", evt.Message.Seq, "error", err)
	}
	return nil
}
