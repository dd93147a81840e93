package session

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned for blank input; nothing is recorded.
	ErrEmptyInput = errors.New("empty input")
	// ErrHalted is returned once the session has stopped accepting turns.
	ErrHalted = errors.New("session halted")
	// ErrTurnInProgress is returned while a previous turn awaits its reply.
	ErrTurnInProgress = errors.New("a turn is already awaiting a reply")
)

// TransportError wraps a failed dispatch. The session remains usable.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("remote generation failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
