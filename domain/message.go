// Package domain contains core concepts of the relay.
// This file defines Message records and related rules.
// Messages are immutable once stored.
package domain

import "time"

// SystemName is the sender name reserved for join/leave notices.
const SystemName = "System"

// Message is an immutable chat record. Seq is assigned by the history
// store: zero-based and strictly increasing within a room, it equals the
// number of messages stored in that room before this one. Timestamp is
// stamped at persistence time, ISO-8601, server clock.
//
// The JSON shape {name, message, timestamp, id} is both the persisted
// record and the broadcast payload.
type Message struct {
	Room      string `json:"room,omitempty"`
	Name      string `json:"name"`
	Text      string `json:"message"`
	Timestamp string `json:"timestamp"`
	Seq       int    `json:"id"`
}

// Stamp returns t in the serialized timestamp format.
func Stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Notice builds a transient system message. Notices are broadcast but never
// persisted, so they carry no sequence id.
func Notice(room, text string, at time.Time) Message {
	return Message{
		Room:      room,
		Name:      SystemName,
		Text:      text,
		Timestamp: Stamp(at),
	}
}
