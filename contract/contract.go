//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"reflect"

	"github.com/google/uuid"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// initialization or lifecycle events, avoiding the need for manual naming
// in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives outbound events. Connection sinks buffer them for a
// writer goroutine; permanent sinks (projection, search index, stats) are
// process-wide.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// ReplayResult is what a join returns to the caller: the room's ordered
// history snapshot for replay to the joining connection, plus the room the
// connection was implicitly removed from, if any.
type ReplayResult struct {
	History   []domain.Message
	PriorRoom string
	PriorName string
}

// IRegistry tracks which connections belong to which room.
type IRegistry interface {
	Join(room string, conn uuid.UUID, name string, sink EventSink) (ReplayResult, error)
	Leave(room string, conn uuid.UUID, name string) error
	Broadcast(room string, exclude uuid.UUID) ([]uuid.UUID, error)
	Disconnect(conn uuid.UUID) (room, name string, ok bool)
	Sink(conn uuid.UUID) (EventSink, bool)
	MemberCount(room string) int
}

// IHistoryStore owns the durable, ordered per-room message log.
type IHistoryStore interface {
	Append(room, senderName, text string) (domain.Message, error)
	Replay(room string) []domain.Message
	LoadAll() error
}
