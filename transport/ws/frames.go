package ws

import "chat-relay/domain"

// Wire event names, mirroring the socket-event contract the relay speaks:
// join/leave/message inbound, chat_history/message/error outbound.
const (
	EventJoin        = "join"
	EventLeave       = "leave"
	EventMessage     = "message"
	EventSearch      = "history_search"
	EventChatHistory = "chat_history"
	EventSearchHits  = "search_results"
	EventError       = "error"
)

// InboundFrame is the envelope of every client-to-server frame.
type InboundFrame struct {
	Event   string `json:"event" validate:"required,oneof=join leave message history_search"`
	Room    string `json:"room"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// OutboundFrame is the envelope of every server-to-client frame. Messages
// is only set on chat_history and search_results.
type OutboundFrame struct {
	Event     string           `json:"event"`
	Name      string           `json:"name,omitempty"`
	Message   string           `json:"message,omitempty"`
	Timestamp string           `json:"timestamp,omitempty"`
	Messages  []domain.Message `json:"messages,omitempty"`
}

func messageFrame(m domain.Message) OutboundFrame {
	return OutboundFrame{
		Event:     EventMessage,
		Name:      m.Name,
		Message:   m.Text,
		Timestamp: m.Timestamp,
	}
}

func historyFrame(history []domain.Message) OutboundFrame {
	if history == nil {
		history = []domain.Message{}
	}
	return OutboundFrame{Event: EventChatHistory, Messages: history}
}

func searchFrame(matches []domain.Message) OutboundFrame {
	if matches == nil {
		matches = []domain.Message{}
	}
	return OutboundFrame{Event: EventSearchHits, Messages: matches}
}

func errorFrame(message string) OutboundFrame {
	return OutboundFrame{Event: EventError, Message: message}
}
