package e2e

import (
	"chat-relay/history"
	"chat-relay/observability"
	"chat-relay/registry"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/transport/ws"
	"context"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type BaseRelaySuite struct {
	suite.Suite
	Config Config

	relayURL string
	cancel   context.CancelFunc
	server   *httptest.Server
	db       *badger.DB
}

// SetupSuite loads the environment configuration and, unless RELAY_ADDR
// points at an external relay, boots a complete relay in-process.
func (s *BaseRelaySuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	if s.Config.RelayAddr != "" {
		s.relayURL = strings.TrimSuffix(s.Config.RelayAddr, "/") + "/ws"
		return
	}

	s.db, err = badger.Open(badger.DefaultOptions(s.T().TempDir()).WithLoggingLevel(badger.ERROR))
	s.Require().NoError(err)

	store := history.NewStore(history.NewBadgerBackend(s.db), slog.Default())
	s.Require().NoError(store.LoadAll())
	reg := registry.NewRegistry(store)
	core := runtime.NewCore(slog.Default(), reg, store, nil, nil, observability.NewStats(), 64)

	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	fanout := workers.NewEventFanout(slog.Default(), core.Events(), reg, time.Second)
	go func() { _ = fanout.Run(ctx) }()

	s.server = httptest.NewServer(ws.NewServer(slog.Default(), core, 64).Handler())
	s.relayURL = "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
}

func (s *BaseRelaySuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.db != nil {
		s.Require().NoError(s.db.Close())
	}
}

// Dial opens a websocket session against the relay, logging a colorized
// header for the step.
func (s *BaseRelaySuite) Dial(name string) *websocket.Conn {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	conn, _, err := websocket.DefaultDialer.Dial(s.relayURL, nil)
	s.Require().NoError(err, "Failed to connect to relay at "+s.relayURL)
	return conn
}

// Send marshals and writes one frame, dumping it when E2E_DEBUG_JSON is on.
func (s *BaseRelaySuite) Send(conn *websocket.Conn, frame ws.InboundFrame) {
	data, err := json.Marshal(frame)
	s.Require().NoError(err)
	if s.Config.DebugJSON {
		s.T().Log("SEND:", string(data))
	}
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, data))
}

// Receive reads the next frame, failing the suite on timeout.
func (s *BaseRelaySuite) Receive(conn *websocket.Conn) ws.OutboundFrame {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	_, data, err := conn.ReadMessage()
	s.Require().NoError(err)
	if s.Config.DebugJSON {
		s.T().Log("RECV:", string(data))
	}

	var frame ws.OutboundFrame
	s.Require().NoError(json.Unmarshal(data, &frame))
	return frame
}
