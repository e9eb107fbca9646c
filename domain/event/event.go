// Package event defines the outbound events produced by the relay core.
// The fanout worker resolves each event's targets into connection sinks;
// delivery itself belongs to the transport layer.
package event

import (
	"chat-relay/domain"

	"github.com/google/uuid"
)

type DomainEvent interface {
	RoomID() string
	// Recipients is the fan-out set resolved at emit time: the connection
	// handles that should receive this event.
	Recipients() []uuid.UUID
}

// MessageStored announces a durably persisted user message.
type MessageStored struct {
	Message domain.Message
	Targets []uuid.UUID
}

func (e MessageStored) RoomID() string          { return e.Message.Room }
func (e MessageStored) Recipients() []uuid.UUID { return e.Targets }

// MemberJoined announces a join notice to the room's other members.
type MemberJoined struct {
	Notice  domain.Message
	Targets []uuid.UUID
}

func (e MemberJoined) RoomID() string          { return e.Notice.Room }
func (e MemberJoined) Recipients() []uuid.UUID { return e.Targets }

// MemberLeft announces a leave notice to the room's remaining members.
type MemberLeft struct {
	Notice  domain.Message
	Targets []uuid.UUID
}

func (e MemberLeft) RoomID() string          { return e.Notice.Room }
func (e MemberLeft) Recipients() []uuid.UUID { return e.Targets }

// HistoryReplayed carries a room's ordered history snapshot to the joining
// connection only.
type HistoryReplayed struct {
	Room    string
	Target  uuid.UUID
	History []domain.Message
}

func (e HistoryReplayed) RoomID() string          { return e.Room }
func (e HistoryReplayed) Recipients() []uuid.UUID { return []uuid.UUID{e.Target} }

// SearchAnswer carries history search hits back to the single connection
// that issued the query.
type SearchAnswer struct {
	Room    string
	Target  uuid.UUID
	Matches []domain.Message
}

func (e SearchAnswer) RoomID() string          { return e.Room }
func (e SearchAnswer) Recipients() []uuid.UUID { return []uuid.UUID{e.Target} }
