// Package runtime composes the relay core: membership, history, moderation
// and event propagation. It orchestrates without containing domain rules.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	relayerrors "chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/search"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Core is the explicit server context: one instance holds the registry and
// the history store, constructed at startup and injected into the transport
// handlers. No package-level state, so tests run independent instances.
type Core struct {
	log       *slog.Logger
	registry  contract.IRegistry
	history   contract.IHistoryStore
	moderator *moderation.Moderator
	index     *search.Index
	stats     *observability.Stats
	events    chan event.DomainEvent
	now       func() time.Time
}

func NewCore(log *slog.Logger, registry contract.IRegistry, history contract.IHistoryStore,
	moderator *moderation.Moderator, index *search.Index,
	stats *observability.Stats, bufferSize int) *Core {
	return &Core{
		log:       log,
		registry:  registry,
		history:   history,
		moderator: moderator,
		index:     index,
		stats:     stats,
		events:    make(chan event.DomainEvent, bufferSize),
		now:       time.Now,
	}
}

// Events is drained by the fanout worker.
func (c *Core) Events() chan event.DomainEvent { return c.events }

// Dispatch routes one inbound event to its handler. The transport layer
// calls this with the sink it created for the originating connection; only
// join consumes the sink. A returned error is reported once, to the caller,
// which decides whether to inform the sender.
func (c *Core) Dispatch(ctx context.Context, cmd domain.Command, sink contract.EventSink) error {
	switch cmd := cmd.(type) {
	case domain.JoinCommand:
		return c.join(ctx, cmd, sink)
	case domain.LeaveCommand:
		return c.leave(ctx, cmd)
	case domain.PostCommand:
		return c.post(ctx, cmd)
	case domain.SearchCommand:
		return c.searchHistory(ctx, cmd)
	case domain.DisconnectCommand:
		c.disconnect(ctx, cmd)
		return nil
	default:
		return fmt.Errorf("unhandled command %T", cmd)
	}
}

func (c *Core) join(ctx context.Context, cmd domain.JoinCommand, sink contract.EventSink) error {
	res, err := c.registry.Join(cmd.Room, cmd.Conn, cmd.Name, sink)
	if err != nil {
		return err
	}

	// Re-join of another room is an implicit leave of the prior one; its
	// remaining members get the usual notice.
	if res.PriorRoom != "" {
		c.stats.MemberLeft()
		c.notifyLeft(ctx, res.PriorRoom, res.PriorName)
	}
	c.stats.MemberJoined()

	c.emit(ctx, event.HistoryReplayed{
		Room:    cmd.Room,
		Target:  cmd.Conn,
		History: res.History,
	})

	targets, err := c.registry.Broadcast(cmd.Room, cmd.Conn)
	if err != nil {
		return err
	}
	if len(targets) > 0 {
		c.emit(ctx, event.MemberJoined{
			Notice:  domain.Notice(cmd.Room, fmt.Sprintf("%s joined the room", cmd.Name), c.now()),
			Targets: targets,
		})
	}
	c.log.Info("member joined", "room", cmd.Room, "name", cmd.Name)
	return nil
}

func (c *Core) leave(ctx context.Context, cmd domain.LeaveCommand) error {
	if err := c.registry.Leave(cmd.Room, cmd.Conn, cmd.Name); err != nil {
		return err
	}
	c.stats.MemberLeft()
	c.notifyLeft(ctx, cmd.Room, cmd.Name)
	c.log.Info("member left", "room", cmd.Room, "name", cmd.Name)
	return nil
}

func (c *Core) post(ctx context.Context, cmd domain.PostCommand) error {
	text := cmd.Text
	if c.moderator != nil && c.moderator.Enabled() {
		censored, words := c.moderator.Censor(text)
		if len(words) > 0 {
			c.log.Warn("message censored", "room", cmd.Room, "name", cmd.Name)
		}
		text = censored
	}

	msg, err := c.history.Append(cmd.Room, cmd.Name, text)
	if err != nil {
		if errors.Is(err, relayerrors.ErrPersistenceFailure) {
			c.stats.IncrPersistenceFailures()
		}
		return err
	}
	c.stats.IncrMessagesStored()

	// The sender receives its own message through the same fan-out as
	// everyone else: one source of truth for order and timestamps.
	targets, err := c.registry.Broadcast(cmd.Room, uuid.Nil)
	if err != nil {
		return err
	}
	c.stats.IncrBroadcastsResolved()
	c.emit(ctx, event.MessageStored{Message: msg, Targets: targets})
	return nil
}

func (c *Core) searchHistory(ctx context.Context, cmd domain.SearchCommand) error {
	if c.index == nil {
		return nil
	}

	q := search.ParseQuery(cmd.Query)
	if q.Room == "" {
		q.Room = cmd.Room
	}
	hits, err := c.index.Search(ctx, q)
	if err != nil {
		c.log.Error("history search failed", "room", cmd.Room, "error", err)
		return err
	}

	c.emit(ctx, event.SearchAnswer{
		Room:   cmd.Room,
		Target: cmd.Conn,
		Matches: lo.Map(hits, func(h search.Hit, _ int) domain.Message {
			return domain.Message{Room: h.Room, Name: h.Name, Text: h.Text, Seq: h.Seq}
		}),
	})
	return nil
}

func (c *Core) disconnect(ctx context.Context, cmd domain.DisconnectCommand) {
	room, name, ok := c.registry.Disconnect(cmd.Conn)
	if !ok {
		return
	}
	c.stats.MemberLeft()
	c.notifyLeft(ctx, room, name)
	c.log.Info("member disconnected", "room", room, "name", name)
}

func (c *Core) notifyLeft(ctx context.Context, room, name string) {
	targets, err := c.registry.Broadcast(room, uuid.Nil)
	if err != nil || len(targets) == 0 {
		return
	}
	c.emit(ctx, event.MemberLeft{
		Notice:  domain.Notice(room, fmt.Sprintf("%s left the room", name), c.now()),
		Targets: targets,
	})
}

func (c *Core) emit(ctx context.Context, e event.DomainEvent) {
	select {
	case c.events <- e:
	case <-ctx.Done():
	default:
		c.log.Warn("event channel full, dropping event", "room", e.RoomID())
	}
}
