package projection

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTimeline_Accumulates_Stored_Messages_In_Order(t *testing.T) {
	req := require.New(t)
	tl := NewTimeline()
	ctx := context.Background()

	req.NoError(tl.Consume(ctx, event.MessageStored{Message: domain.Message{Room: "r1", Text: "one", Seq: 0}}))
	req.NoError(tl.Consume(ctx, event.MessageStored{Message: domain.Message{Room: "r2", Text: "two", Seq: 0}}))
	req.NoError(tl.Consume(ctx, event.MessageStored{Message: domain.Message{Room: "r1", Text: "three", Seq: 1}}))

	got := tl.Messages()
	req.Len(got, 3)
	req.Equal("one", got[0].Text)
	req.Equal("two", got[1].Text)
	req.Equal("three", got[2].Text)
}

func TestTimeline_Ignores_Other_Events(t *testing.T) {
	req := require.New(t)
	tl := NewTimeline()

	notice := event.MemberJoined{Notice: domain.Message{Room: "r1", Name: domain.SystemName, Text: "alice joined the room"}}
	req.NoError(tl.Consume(context.Background(), notice))

	req.Empty(tl.Messages())
}

func TestTimeline_Snapshot_Is_Detached(t *testing.T) {
	req := require.New(t)
	tl := NewTimeline()
	ctx := context.Background()

	req.NoError(tl.Consume(ctx, event.MessageStored{Message: domain.Message{Room: "r1", Text: "one"}}))
	snap := tl.Messages()
	req.NoError(tl.Consume(ctx, event.MessageStored{Message: domain.Message{Room: "r1", Text: "two"}}))

	req.Len(snap, 1)
	req.Len(tl.Messages(), 2)
}
