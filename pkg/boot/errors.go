package boot

import (
	"errors"
	"fmt"
	"strings"
)

// Reason classifies why a boot method failed.
type Reason int

// Failure reasons.
const (
	ReasonNone Reason = iota
	ReasonAborted
	ReasonTimedOut
	ReasonProtocol
	ReasonBounds
	ReasonDriver
	ReasonInvalidImage
	ReasonUnsupported
	ReasonChannel
	ReasonCanceled
)

var reasonNames = [...]string{
	ReasonNone:         "none",
	ReasonAborted:      "aborted",
	ReasonTimedOut:     "timed out",
	ReasonProtocol:     "protocol",
	ReasonBounds:       "bounds",
	ReasonDriver:       "driver",
	ReasonInvalidImage: "invalid image",
	ReasonUnsupported:  "unsupported",
	ReasonChannel:      "channel",
	ReasonCanceled:     "canceled",
}

func (r Reason) String() string {
	if r >= 0 && int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

var (
	// ErrUnsupported indicates the method has no collaborator on this build.
	ErrUnsupported = errors.New("not supported on this board")
	// ErrEmptyImage indicates a driver returned no data.
	ErrEmptyImage = errors.New("empty image")
	// ErrEntryOutsideImage indicates the entry point is not in the image.
	ErrEntryOutsideImage = errors.New("entry point outside image")
)

// Failure is the outcome of a failed boot method.
type Failure struct {
	Method Method
	Reason Reason
	Err    error
}

// Error implements error.
func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Method, f.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", f.Method, f.Reason, f.Err)
}

// Unwrap returns the underlying error.
func (f *Failure) Unwrap() error {
	return f.Err
}

// ReasonOf extracts the failure reason from err.
func ReasonOf(err error) Reason {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	return ReasonNone
}

// ConfigError indicates an unusable boot configuration. It is returned
// before any method is attempted.
type ConfigError struct {
	Msg string
}

// Error implements error.
func (e *ConfigError) Error() string {
	return "invalid boot config: " + e.Msg
}

func configErrorf(format string, args ...interface{}) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// ExhaustedError is returned when every configured method failed.
type ExhaustedError struct {
	// Rounds is the number of times the whole sequence was tried.
	Rounds int
	// Failures of the last round, in configured order.
	Failures []*Failure
}

// Error implements error.
func (e *ExhaustedError) Error() string {
	msg := make([]string, len(e.Failures)+1)
	msg[0] = fmt.Sprintf("all boot methods failed (%d rounds):", e.Rounds)
	for n, f := range e.Failures {
		msg[n+1] = f.Error()
	}
	return strings.Join(msg, "\n")
}
