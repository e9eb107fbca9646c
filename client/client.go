// Package client implements the interactive command-line chat client: it
// dials the relay's websocket endpoint, replays history on join, renders
// incoming messages and ships typed lines as message frames.
package client

import (
	"bufio"
	"chat-relay/domain"
	"chat-relay/transport/ws"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
)

var (
	systemStyle = color.New(color.FgYellow)
	nameStyle   = color.New(color.FgCyan)
	errorStyle  = color.New(color.FgRed)
)

type Client struct {
	log         *slog.Logger
	url         string
	name        string
	room        string
	maxAttempts int
	baseDelay   time.Duration
	conn        *websocket.Conn
}

func New(log *slog.Logger, url, room, name string, maxAttempts int, baseDelay time.Duration) *Client {
	return &Client{
		log:         log,
		url:         url,
		name:        name,
		room:        room,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
	}
}

// Connect dials the server with bounded exponential backoff. It is
// cancellable through ctx and gives up after the configured maximum number
// of attempts.
func (c *Client) Connect(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(Backoff(c.baseDelay, attempt)):
			}
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err == nil {
			c.conn = conn
			return nil
		}
		lastErr = err
		c.log.Warn("connection failed, retrying", "attempt", attempt+1, "error", err)
	}
	return fmt.Errorf("connecting to %s after %d attempts: %w", c.url, c.maxAttempts, lastErr)
}

// Backoff returns the delay before the given retry attempt: the base delay
// doubled for every attempt after the first.
func Backoff(base time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	c.send(ws.InboundFrame{Event: ws.EventLeave, Room: c.room, Name: c.name})
	return c.conn.Close()
}

// Run joins the room, then pumps incoming frames to out and typed lines
// from in to the server until EOF, "exit", or cancellation.
func (c *Client) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	if err := c.send(ws.InboundFrame{Event: ws.EventJoin, Room: c.room, Name: c.name}); err != nil {
		return fmt.Errorf("joining room %s: %w", c.room, err)
	}

	done := make(chan error, 1)
	go func() { done <- c.readPump(out) }()

	input := make(chan string)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			input <- scanner.Text()
		}
		close(input)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-done:
			return err
		case line, ok := <-input:
			if !ok {
				return nil
			}
			if !c.handleLine(line, out) {
				return nil
			}
		}
	}
}

// handleLine reports false when the user asked to exit.
func (c *Client) handleLine(line string, out io.Writer) bool {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return true
	case line == "exit":
		return false
	case line == "help":
		fmt.Fprintln(out, "Available commands:")
		fmt.Fprintln(out, "  exit          - Exit the chat")
		fmt.Fprintln(out, "  help          - Show this help message")
		fmt.Fprintln(out, "  /find <terms> - Search room history")
		return true
	case strings.HasPrefix(line, "/find"):
		c.send(ws.InboundFrame{Event: ws.EventSearch, Room: c.room, Name: c.name, Message: line})
		return true
	default:
		c.send(ws.InboundFrame{Event: ws.EventMessage, Room: c.room, Name: c.name, Message: line})
		return true
	}
}

func (c *Client) readPump(out io.Writer) error {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		}

		var frame ws.OutboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.log.Warn("dropping unreadable frame", "error", err)
			continue
		}
		c.render(out, frame)
	}
}

func (c *Client) render(out io.Writer, frame ws.OutboundFrame) {
	switch frame.Event {
	case ws.EventChatHistory:
		for _, m := range frame.Messages {
			fmt.Fprintln(out, FormatMessage(m.Name, m.Text, m.Timestamp))
		}
	case ws.EventMessage:
		fmt.Fprintln(out, FormatMessage(frame.Name, frame.Message, frame.Timestamp))
	case ws.EventSearchHits:
		fmt.Fprintln(out, systemStyle.Sprintf("%d result(s)", len(frame.Messages)))
		for _, m := range frame.Messages {
			fmt.Fprintf(out, "  [%s #%d] %s: %s\n", m.Room, m.Seq, nameStyle.Render(m.Name), m.Text)
		}
	case ws.EventError:
		fmt.Fprintln(out, errorStyle.Sprintf("Server error: %s", frame.Message))
	}
}

// FormatMessage renders one chat line the way the terminal shows it:
// system notices in a single style, user messages with a highlighted name.
func FormatMessage(name, text, timestamp string) string {
	ts := timestamp
	if t, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
		ts = t.Local().Format("15:04:05")
	}
	if name == domain.SystemName {
		return systemStyle.Render(fmt.Sprintf("[%s] %s", ts, text))
	}
	return fmt.Sprintf("[%s] %s: %s", ts, nameStyle.Render(name), text)
}

func (c *Client) send(frame ws.InboundFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.log.Error("send failed", "event", frame.Event, "error", err)
		return err
	}
	return nil
}
