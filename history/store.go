// Package history owns the durable, per-room ordered log of messages. It
// assigns sequence ids, persists every append before reporting success, and
// serves history replay on join.
package history

import (
	"chat-relay/domain"
	relayerrors "chat-relay/errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// roomLog serializes same-room appends: sequence assignment and the durable
// write happen under one lock so two concurrent sends to one room never
// interleave their disk writes. Different rooms do not block each other.
type roomLog struct {
	mu       sync.Mutex
	messages []domain.Message
}

// Store keeps each room's log in memory, mirrored in the Backend. The
// in-memory log and the durable state never diverge: an append commits to
// memory only after the write succeeds.
type Store struct {
	mu      sync.Mutex // guards the rooms map, not the logs
	rooms   map[string]*roomLog
	backend Backend
	log     *slog.Logger
	now     func() time.Time
}

func NewStore(backend Backend, log *slog.Logger) *Store {
	return &Store{
		rooms:   make(map[string]*roomLog),
		backend: backend,
		log:     log,
		now:     time.Now,
	}
}

// Append validates, assigns the next sequence id for room (the count of
// messages stored there so far), stamps the current time, persists the
// whole updated room log, and only then commits the message in memory.
// On a failed write the prior state stays visible everywhere.
func (s *Store) Append(room, senderName, text string) (domain.Message, error) {
	if room == "" || senderName == "" || text == "" {
		return domain.Message{}, relayerrors.ErrInvalidArgument
	}

	rl := s.room(room)
	rl.mu.Lock()
	defer rl.mu.Unlock()

	msg := domain.Message{
		Room:      room,
		Name:      senderName,
		Text:      text,
		Timestamp: domain.Stamp(s.now()),
		Seq:       len(rl.messages),
	}

	updated := append(rl.messages[:len(rl.messages):len(rl.messages)], msg)
	data, err := encodeLog(updated)
	if err != nil {
		s.log.Error("encoding room log", "room", room, "error", err)
		return domain.Message{}, fmt.Errorf("%w: %v", relayerrors.ErrPersistenceFailure, err)
	}
	if err := s.backend.WriteRoom(room, data); err != nil {
		s.log.Error("persisting room log", "room", room, "seq", msg.Seq, "error", err)
		return domain.Message{}, fmt.Errorf("%w: %v", relayerrors.ErrPersistenceFailure, err)
	}

	rl.messages = updated
	return msg, nil
}

// Replay returns room's full history in sequence order. A room with no
// messages yields an empty slice, never an error.
func (s *Store) Replay(room string) []domain.Message {
	rl := s.room(room)
	rl.mu.Lock()
	defer rl.mu.Unlock()

	out := make([]domain.Message, len(rl.messages))
	copy(out, rl.messages)
	return out
}

// LoadAll reads the persisted store into memory. Invoked once at startup,
// before the store is shared. An absent store initializes empty; a room log
// that fails to decode is logged and treated as empty, so a corrupt value
// never crashes the server.
func (s *Store) LoadAll() error {
	logs, err := s.backend.LoadAll()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for room, data := range logs {
		messages, err := decodeLog(room, data)
		if err != nil {
			s.log.Error("discarding unreadable room log", "room", room, "error", err)
			continue
		}
		s.rooms[room] = &roomLog{messages: messages}
	}
	return nil
}

// Rooms lists the rooms currently known to the store.
func (s *Store) Rooms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rooms []string
	for room := range s.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

func (s *Store) room(room string) *roomLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	rl, ok := s.rooms[room]
	if !ok {
		rl = &roomLog{}
		s.rooms[room] = rl
	}
	return rl
}

func encodeLog(messages []domain.Message) ([]byte, error) {
	// The room id lives in the key; persisted records carry only
	// {name, message, timestamp, id}.
	stripped := make([]domain.Message, len(messages))
	for i, m := range messages {
		m.Room = ""
		stripped[i] = m
	}
	return json.Marshal(stripped)
}

func decodeLog(room string, data []byte) ([]domain.Message, error) {
	var messages []domain.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("%w: %v", relayerrors.ErrMalformedState, err)
	}
	for i := range messages {
		messages[i].Room = room
	}
	return messages, nil
}
