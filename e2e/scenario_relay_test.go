package e2e

import (
	"testing"

	"chat-relay/domain"
	"chat-relay/transport/ws"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type testRelaySuite struct {
	BaseRelaySuite
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, &testRelaySuite{})
}

func (s *testRelaySuite) TestFullRoomFlow() {
	var alice, bob *websocket.Conn

	// --- STEP 1: FIRST MEMBER JOINS AN EMPTY ROOM ---
	s.Run("Step 1: alice joins lobby and replays nothing", func() {
		alice = s.Dial("alice connects")
		s.Send(alice, ws.InboundFrame{Event: ws.EventJoin, Room: "lobby", Name: "alice"})

		frame := s.Receive(alice)
		s.Require().Equal(ws.EventChatHistory, frame.Event)
		s.Require().Empty(frame.Messages)
	})

	// --- STEP 2: MESSAGES FAN OUT, SENDER INCLUDED ---
	s.Run("Step 2: alice posts and receives her own message", func() {
		s.Send(alice, ws.InboundFrame{Event: ws.EventMessage, Room: "lobby", Name: "alice", Message: "first!"})

		frame := s.Receive(alice)
		s.Require().Equal(ws.EventMessage, frame.Event)
		s.Require().Equal("alice", frame.Name)
		s.Require().Equal("first!", frame.Message)
		s.Require().NotEmpty(frame.Timestamp, "stored messages carry the persistence wall clock")
	})

	// --- STEP 3: LATE JOINER REPLAYS HISTORY ---
	s.Run("Step 3: bob joins, replays history, alice is notified", func() {
		bob = s.Dial("bob connects")
		s.Send(bob, ws.InboundFrame{Event: ws.EventJoin, Room: "lobby", Name: "bob"})

		frame := s.Receive(bob)
		s.Require().Equal(ws.EventChatHistory, frame.Event)
		s.Require().Len(frame.Messages, 1)
		s.Require().Equal("first!", frame.Messages[0].Text)
		s.Require().Equal(0, frame.Messages[0].Seq)

		notice := s.Receive(alice)
		s.Require().Equal(ws.EventMessage, notice.Event)
		s.Require().Equal(domain.SystemName, notice.Name)
		s.Require().Equal("bob joined the room", notice.Message)
	})

	// --- STEP 4: BOTH SIDES SEE THE SAME CONVERSATION ---
	s.Run("Step 4: bob replies and both members receive it", func() {
		s.Send(bob, ws.InboundFrame{Event: ws.EventMessage, Room: "lobby", Name: "bob", Message: "hello alice"})

		for _, conn := range []*websocket.Conn{alice, bob} {
			frame := s.Receive(conn)
			s.Require().Equal(ws.EventMessage, frame.Event)
			s.Require().Equal("bob", frame.Name)
			s.Require().Equal("hello alice", frame.Message)
		}
	})

	// --- STEP 5: SEQUENCE IDS ARE DENSE AND ZERO-BASED ---
	s.Run("Step 5: carol replays both messages in order", func() {
		carol := s.Dial("carol connects")
		defer carol.Close()
		s.Send(carol, ws.InboundFrame{Event: ws.EventJoin, Room: "lobby", Name: "carol"})

		frame := s.Receive(carol)
		s.Require().Equal(ws.EventChatHistory, frame.Event)
		s.Require().Len(frame.Messages, 2)
		s.Require().Equal(0, frame.Messages[0].Seq)
		s.Require().Equal(1, frame.Messages[1].Seq)
		s.Require().Equal("first!", frame.Messages[0].Text)
		s.Require().Equal("hello alice", frame.Messages[1].Text)

		// drain carol's arrival notices so the next step reads clean
		s.Require().Equal("carol joined the room", s.Receive(alice).Message)
		s.Require().Equal("carol joined the room", s.Receive(bob).Message)

		s.Send(carol, ws.InboundFrame{Event: ws.EventLeave, Room: "lobby", Name: "carol"})
		s.Require().Equal("carol left the room", s.Receive(alice).Message)
		s.Require().Equal("carol left the room", s.Receive(bob).Message)
	})

	// --- STEP 6: EXPLICIT LEAVE NOTIFIES THE REMAINING MEMBERS ---
	s.Run("Step 6: bob leaves and alice hears about it", func() {
		s.Send(bob, ws.InboundFrame{Event: ws.EventLeave, Room: "lobby", Name: "bob"})

		notice := s.Receive(alice)
		s.Require().Equal(domain.SystemName, notice.Name)
		s.Require().Equal("bob left the room", notice.Message)
		s.Require().NoError(bob.Close())
	})

	// --- STEP 7: ROOMS ARE ISOLATED ---
	s.Run("Step 7: traffic in another room never reaches alice", func() {
		dave := s.Dial("dave connects")
		defer dave.Close()
		s.Send(dave, ws.InboundFrame{Event: ws.EventJoin, Room: "ops", Name: "dave"})
		s.Require().Equal(ws.EventChatHistory, s.Receive(dave).Event)

		s.Send(dave, ws.InboundFrame{Event: ws.EventMessage, Room: "ops", Name: "dave", Message: "ops only"})
		s.Require().Equal("ops only", s.Receive(dave).Message)

		// alice's next frame must be her own message, not dave's
		s.Send(alice, ws.InboundFrame{Event: ws.EventMessage, Room: "lobby", Name: "alice", Message: "still here"})
		frame := s.Receive(alice)
		s.Require().Equal("alice", frame.Name)
		s.Require().Equal("still here", frame.Message)
		s.Require().NoError(alice.Close())
	})
}

func (s *testRelaySuite) TestInvalidFramesAreIsolated() {
	conn := s.Dial("malformed frame sender connects")
	defer conn.Close()

	// --- STEP 1: GARBAGE INPUT GETS AN ERROR FRAME ---
	s.Run("Step 1: non-JSON payload is rejected", func() {
		s.Require().NoError(conn.WriteMessage(websocket.TextMessage, []byte("{broken")))

		frame := s.Receive(conn)
		s.Require().Equal(ws.EventError, frame.Event)
		s.Require().Equal("Invalid message format", frame.Message)
	})

	// --- STEP 2: THE SESSION SURVIVES THE ERROR ---
	s.Run("Step 2: the same connection can still join", func() {
		s.Send(conn, ws.InboundFrame{Event: ws.EventJoin, Room: "lobby2", Name: "eve"})

		frame := s.Receive(conn)
		s.Require().Equal(ws.EventChatHistory, frame.Event)
	})
}
