package sfl

import (
	"errors"
	"fmt"
)

var (
	// ErrAborted indicates the sender cancelled the session.
	ErrAborted = errors.New("aborted by sender")
	// ErrTimedOut indicates no frame was accepted within the session timeout.
	ErrTimedOut = errors.New("session timed out")

	// ErrChecksum indicates a frame failed CRC verification.
	ErrChecksum = errors.New("checksum mismatch")
	// ErrUnknownCommand indicates a frame with an unrecognized command byte.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrMalformed indicates a payload that doesn't fit its command.
	ErrMalformed = errors.New("malformed frame")
	// ErrIncomplete indicates a frame interrupted by the byte timeout.
	ErrIncomplete = errors.New("incomplete frame")
	// ErrNoHandshake indicates a jump before any frame was acknowledged.
	ErrNoHandshake = errors.New("jump before handshake")
	// ErrRejected is what the sender sees for bounds or handshake rejections.
	ErrRejected = errors.New("rejected")
)

// Ceiling kinds.
const (
	CeilingProtocol = "protocol"
	CeilingBounds   = "bounds"
)

// CeilingError is returned when rejections exceed the configured limit.
type CeilingError struct {
	Kind  string
	Count int
	Last  error
}

// Error implements error.
func (e *CeilingError) Error() string {
	return fmt.Sprintf("too many %s errors (%d), last: %v", e.Kind, e.Count, e.Last)
}

// Unwrap returns the last rejection.
func (e *CeilingError) Unwrap() error {
	return e.Last
}

// NakError is returned by Sender when the receiver rejects a frame.
type NakError struct {
	Cmd  Command
	Code byte
}

// Error implements error.
func (e *NakError) Error() string {
	return fmt.Sprintf("%s rejected: %v ('%c')", e.Cmd, NakReason(e.Code), e.Code)
}

// Unwrap maps the reply code to its sentinel error.
func (e *NakError) Unwrap() error {
	return NakReason(e.Code)
}

// NakReason maps a NAK byte to the error the receiver rejected with.
func NakReason(code byte) error {
	switch code {
	case NakChecksum:
		return ErrChecksum
	case NakUnknown:
		return ErrUnknownCommand
	case NakMalformed:
		return ErrMalformed
	case NakTimeout:
		return ErrIncomplete
	case NakRejected:
		return ErrRejected
	}
	return fmt.Errorf("unexpected reply %#02x", code)
}
