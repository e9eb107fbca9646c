// Package ws is the relay's transport layer: it upgrades HTTP connections
// to websockets, parses inbound frames into typed commands for the core,
// and writes the core's outbound events back to each connection.
package ws

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	relayerrors "chat-relay/errors"
	"chat-relay/runtime"
	"chat-relay/sink"
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Server struct {
	log        *slog.Logger
	core       *runtime.Core
	upgrader   websocket.Upgrader
	validate   *validator.Validate
	bufferSize int
}

func NewServer(log *slog.Logger, core *runtime.Core, bufferSize int) *Server {
	return &Server{
		log:        log,
		core:       core,
		upgrader:   websocket.Upgrader{},
		validate:   validator.New(),
		bufferSize: bufferSize,
	}
}

// Handler exposes the websocket endpoint at /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	return mux
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	// The connection handle is opaque and process-unique; the core only
	// ever uses it to address outbound delivery.
	handle := uuid.New()
	connSink := sink.NewConnSink(s.bufferSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Direct replies (validation errors) bypass the fan-out path.
	replies := make(chan OutboundFrame, 8)
	go s.writeLoop(ctx, conn, connSink, replies)

	s.readLoop(ctx, conn, handle, connSink, replies)

	// The transport owes the core an implicit leave on socket close.
	if err := s.core.Dispatch(context.Background(), domain.DisconnectCommand{Conn: handle}, nil); err != nil {
		s.log.Error("disconnect dispatch failed", "handle", handle, "error", err)
	}
}

func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, handle uuid.UUID,
	connSink *sink.ConnSink, replies chan<- OutboundFrame) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("connection closed abruptly", "handle", handle, "error", err)
			}
			return
		}

		var frame InboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.reply(ctx, replies, errorFrame("Invalid message format"))
			continue
		}
		if err := s.validate.Struct(frame); err != nil {
			s.reply(ctx, replies, errorFrame("Invalid message format"))
			continue
		}

		cmd, err := s.toCommand(frame, handle)
		if err != nil {
			s.reply(ctx, replies, errorFrame(relayerrors.WireMessage(err)))
			continue
		}
		if err := s.core.Dispatch(ctx, cmd, connSink); err != nil {
			s.reply(ctx, replies, errorFrame(relayerrors.WireMessage(err)))
		}
	}
}

func (s *Server) toCommand(frame InboundFrame, handle uuid.UUID) (domain.Command, error) {
	switch frame.Event {
	case EventJoin:
		if frame.Room == "" || frame.Name == "" {
			return nil, relayerrors.ErrInvalidArgument
		}
		return domain.JoinCommand{Room: frame.Room, Name: frame.Name, Conn: handle}, nil
	case EventLeave:
		if frame.Room == "" || frame.Name == "" {
			return nil, relayerrors.ErrInvalidArgument
		}
		return domain.LeaveCommand{Room: frame.Room, Name: frame.Name, Conn: handle}, nil
	case EventMessage:
		if frame.Room == "" || frame.Name == "" || frame.Message == "" {
			return nil, relayerrors.ErrInvalidArgument
		}
		return domain.PostCommand{Room: frame.Room, Name: frame.Name, Text: frame.Message, Conn: handle}, nil
	case EventSearch:
		if frame.Room == "" || frame.Message == "" {
			return nil, relayerrors.ErrInvalidArgument
		}
		return domain.SearchCommand{Room: frame.Room, Query: frame.Message, Conn: handle}, nil
	default:
		return nil, relayerrors.ErrInvalidArgument
	}
}

func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn,
	connSink *sink.ConnSink, replies <-chan OutboundFrame) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-replies:
			if !s.write(conn, frame) {
				return
			}
		case evt := <-connSink.Events:
			for _, frame := range s.toFrames(evt) {
				if !s.write(conn, frame) {
					return
				}
			}
		}
	}
}

func (s *Server) toFrames(evt event.DomainEvent) []OutboundFrame {
	switch e := evt.(type) {
	case event.MessageStored:
		return []OutboundFrame{messageFrame(e.Message)}
	case event.MemberJoined:
		return []OutboundFrame{messageFrame(e.Notice)}
	case event.MemberLeft:
		return []OutboundFrame{messageFrame(e.Notice)}
	case event.HistoryReplayed:
		return []OutboundFrame{historyFrame(e.History)}
	case event.SearchAnswer:
		return []OutboundFrame{searchFrame(e.Matches)}
	default:
		return nil
	}
}

func (s *Server) write(conn *websocket.Conn, frame OutboundFrame) bool {
	data, err := json.Marshal(frame)
	if err != nil {
		s.log.Error("encoding outbound frame", "event", frame.Event, "error", err)
		return true
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.log.Debug("write failed, closing connection", "error", err)
		return false
	}
	return true
}

func (s *Server) reply(ctx context.Context, replies chan<- OutboundFrame, frame OutboundFrame) {
	select {
	case replies <- frame:
	case <-ctx.Done():
	}
}
