// Package registry owns room membership: which connections belong to which
// room and under which display name. It resolves fan-out targets but never
// performs delivery itself; that separation keeps it testable without a
// network.
package registry

import (
	"chat-relay/contract"
	"chat-relay/errors"
	"sync"

	"github.com/google/uuid"
)

type member struct {
	name string
	sink contract.EventSink
}

// Registry is safe for concurrent use. A connection is a member of at most
// one room at a time: joining a second room implicitly leaves the first.
// Rooms are created lazily on first join and their entries persist even
// when empty.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]map[uuid.UUID]member // room -> handle -> member
	current map[uuid.UUID]string            // handle -> room it belongs to
	history contract.IHistoryStore
}

func NewRegistry(history contract.IHistoryStore) *Registry {
	return &Registry{
		rooms:   make(map[string]map[uuid.UUID]member),
		current: make(map[uuid.UUID]string),
		history: history,
	}
}

// Join registers conn as a member of room under name and returns the room's
// ordered history snapshot for replay to just this connection. If conn is
// already a member of a different room, that membership is removed first
// and the prior room is reported so the caller can notify its members.
func (r *Registry) Join(room string, conn uuid.UUID, name string, sink contract.EventSink) (contract.ReplayResult, error) {
	if room == "" || name == "" {
		return contract.ReplayResult{}, errors.ErrInvalidArgument
	}

	r.mu.Lock()
	var res contract.ReplayResult
	if prior, ok := r.current[conn]; ok && prior != room {
		res.PriorRoom = prior
		res.PriorName = r.rooms[prior][conn].name
		r.remove(prior, conn)
	}
	if _, ok := r.rooms[room]; !ok {
		r.rooms[room] = make(map[uuid.UUID]member)
	}
	r.rooms[room][conn] = member{name: name, sink: sink}
	r.current[conn] = room
	r.mu.Unlock()

	res.History = r.history.Replay(room)
	return res, nil
}

// Leave removes conn from room's member set. Leaving a room the connection
// is not a member of is a no-op, not an error.
func (r *Registry) Leave(room string, conn uuid.UUID, name string) error {
	if room == "" || name == "" {
		return errors.ErrInvalidArgument
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(room, conn)
	return nil
}

// Broadcast resolves the connection handles that should receive a payload
// addressed to room. exclude skips one handle (uuid.Nil excludes nothing).
// The snapshot is consistent at call time: no partial view under concurrent
// join/leave.
func (r *Registry) Broadcast(room string, exclude uuid.UUID) ([]uuid.UUID, error) {
	if room == "" {
		return nil, errors.ErrInvalidArgument
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[room]
	if !ok {
		return nil, nil
	}
	var targets []uuid.UUID
	for handle := range members {
		if handle == exclude {
			continue
		}
		targets = append(targets, handle)
	}
	return targets, nil
}

// Disconnect handles abrupt transport closure: it looks up the connection's
// room and removes the membership, reporting what was removed so the caller
// can broadcast a leave notice.
func (r *Registry) Disconnect(conn uuid.UUID) (string, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.current[conn]
	if !ok {
		return "", "", false
	}
	name := r.rooms[room][conn].name
	r.remove(room, conn)
	return room, name, true
}

// Sink resolves a connection handle into its delivery sink.
func (r *Registry) Sink(conn uuid.UUID) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.current[conn]
	if !ok {
		return nil, false
	}
	m, ok := r.rooms[room][conn]
	if !ok {
		return nil, false
	}
	return m.sink, true
}

func (r *Registry) MemberCount(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

// remove must be called with the write lock held. The room entry itself is
// kept even when empty: the room outlives its members, matching the durable
// history it fronts.
func (r *Registry) remove(room string, conn uuid.UUID) {
	if members, ok := r.rooms[room]; ok {
		delete(members, conn)
	}
	if r.current[conn] == room {
		delete(r.current, conn)
	}
}
