package domain

import "github.com/google/uuid"

// Command is the tagged variant of inbound events delivered by the
// transport layer. Each variant carries the connection handle it
// originated from so errors can be routed back to that connection.
type Command interface {
	Origin() uuid.UUID
}

// JoinCommand registers a connection as a member of a room.
type JoinCommand struct {
	Room string
	Name string
	Conn uuid.UUID
}

func (c JoinCommand) Origin() uuid.UUID { return c.Conn }

// LeaveCommand removes a connection from a room.
type LeaveCommand struct {
	Room string
	Name string
	Conn uuid.UUID
}

func (c LeaveCommand) Origin() uuid.UUID { return c.Conn }

// PostCommand stores a message and broadcasts it to the room.
type PostCommand struct {
	Room string
	Name string
	Text string
	Conn uuid.UUID
}

func (c PostCommand) Origin() uuid.UUID { return c.Conn }

// SearchCommand queries stored history; the answer goes back to the
// originating connection only.
type SearchCommand struct {
	Room  string
	Query string
	Conn  uuid.UUID
}

func (c SearchCommand) Origin() uuid.UUID { return c.Conn }

// DisconnectCommand is the implicit leave delivered by the transport layer
// when a socket closes abruptly.
type DisconnectCommand struct {
	Conn uuid.UUID
}

func (c DisconnectCommand) Origin() uuid.UUID { return c.Conn }
