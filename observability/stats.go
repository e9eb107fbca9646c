// Package observability aggregates relay counters for the heartbeat log.
package observability

import (
	"sync/atomic"
)

// Stats holds the relay's runtime counters. All methods are safe for
// concurrent use.
type Stats struct {
	messagesStored      atomic.Uint64
	broadcastsResolved  atomic.Uint64
	persistenceFailures atomic.Uint64
	activeMembers       atomic.Int64
}

func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) IncrMessagesStored()      { s.messagesStored.Add(1) }
func (s *Stats) IncrBroadcastsResolved()  { s.broadcastsResolved.Add(1) }
func (s *Stats) IncrPersistenceFailures() { s.persistenceFailures.Add(1) }
func (s *Stats) MemberJoined()            { s.activeMembers.Add(1) }
func (s *Stats) MemberLeft()              { s.activeMembers.Add(-1) }

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	MessagesStored      uint64
	BroadcastsResolved  uint64
	PersistenceFailures uint64
	ActiveMembers       int64
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		MessagesStored:      s.messagesStored.Load(),
		BroadcastsResolved:  s.broadcastsResolved.Load(),
		PersistenceFailures: s.persistenceFailures.Load(),
		ActiveMembers:       s.activeMembers.Load(),
	}
}
