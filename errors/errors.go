// Package errors defines the error taxonomy of the relay core.
//
// None of these conditions is fatal to the process: they are isolated to
// the operation (and room) that produced them.
package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	// ErrInvalidArgument rejects an operation with a missing room, name or
	// message text. No state is changed.
	ErrInvalidArgument = fmt.Errorf("invalid argument")

	// ErrPersistenceFailure reports a failed durable write. The in-memory
	// log has been rolled back to its pre-append state.
	ErrPersistenceFailure = fmt.Errorf("persistence failure")

	// ErrMalformedState marks an unparseable persisted room log found at
	// startup. The room is treated as empty.
	ErrMalformedState = fmt.Errorf("malformed persisted state")

	// ErrWorkerPanic is reported by the supervisor when a worker's Run
	// panics; the worker is restarted after a delay.
	ErrWorkerPanic = fmt.Errorf("worker panic")
)

// WireMessage maps a core error to the message carried by an outbound error
// frame. Internal detail stays in the server log, not on the wire.
func WireMessage(err error) string {
	switch {
	case stderrors.Is(err, ErrInvalidArgument):
		return "room, name and message are required"
	case stderrors.Is(err, ErrPersistenceFailure):
		return "failed to save message"
	default:
		return "internal server error"
	}
}
