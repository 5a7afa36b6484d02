// Package channel provides the byte-level duplex links the serial boot
// protocol runs over.
package channel

import (
	"errors"
	"os"
	"time"
)

// ByteChannel is a duplex byte stream. Reads block for at most the given
// timeout; a timeout of zero or less blocks until a byte or an error arrives.
type ByteChannel interface {
	Recv(timeout time.Duration) (byte, error)
	Send(p []byte) error
}

// Flusher is implemented by channels holding received bytes not yet
// consumed by Recv.
type Flusher interface {
	// Flush discards pending input.
	Flush() error
}

// ErrTimeout is returned by Recv when no byte arrived in time.
var ErrTimeout = errors.New("read timeout")

// IsTimeout reports whether err is a read timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || os.IsTimeout(err)
}
