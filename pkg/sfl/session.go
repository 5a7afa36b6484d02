package sfl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/biosboot/pkg/channel"
	"github.com/robotalks/biosboot/pkg/mem"
)

// State is the receiver state.
type State int

// Receiver states.
const (
	StateAwaitFrame State = iota
	StateParsingFrame
	StateValidating
	StateEffecting
	StateDone
	StateAborted
	StateTimedOut
	StateFailed
)

var stateNames = [...]string{
	StateAwaitFrame:   "await-frame",
	StateParsingFrame: "parsing-frame",
	StateValidating:   "validating",
	StateEffecting:    "effecting",
	StateDone:         "done",
	StateAborted:      "aborted",
	StateTimedOut:     "timed-out",
	StateFailed:       "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// IsTerminal reports whether the session has ended.
func (s State) IsTerminal() bool {
	return s >= StateDone
}

// Config holds receiver timing and retry limits.
type Config struct {
	// ByteTimeout bounds each read. An idle timeout is silent, a timeout
	// in the middle of a frame is NAKed.
	ByteTimeout time.Duration
	// SessionTimeout ends the session when this long has passed since
	// session start or the last acknowledged frame.
	SessionTimeout time.Duration
	// MaxProtocolErrors is the ceiling of consecutive protocol rejections.
	// 0 means unlimited.
	MaxProtocolErrors int
	// MaxBoundsViolations is the ceiling of rejected writes in a session.
	// 0 means unlimited.
	MaxBoundsViolations int
}

// DefaultConfig returns the default receiver configuration.
func DefaultConfig() Config {
	return Config{
		ByteTimeout:         500 * time.Millisecond,
		SessionTimeout:      10 * time.Second,
		MaxProtocolErrors:   16,
		MaxBoundsViolations: 4,
	}
}

// Stats counts session activity.
type Stats struct {
	Frames           int
	Acked            int
	Writes           int
	BytesWritten     int
	ProtocolErrors   int
	BoundsViolations int
}

// Session receives Write/Jump/Abort commands over a ByteChannel and applies
// them to a Region. A Session runs once; create a new one per boot attempt.
type Session struct {
	Channel channel.ByteChannel
	Region  mem.Region
	// Windows are additional valid jump targets, e.g. an image already in ROM.
	Windows mem.Windows
	Config  Config
	// Clock defaults to time.Now.
	Clock func() time.Time

	started     bool
	state       State
	parser      Parser
	stats       Stats
	acked       bool
	consecutive int
	deadline    time.Time
}

// NewSession creates a Session.
func NewSession(ch channel.ByteChannel, region mem.Region, conf Config) *Session {
	return &Session{Channel: ch, Region: region, Config: conf}
}

// State gets the current state.
func (s *Session) State() State {
	return s.state
}

// Stats gets the counters.
func (s *Session) Stats() Stats {
	return s.stats
}

func (s *Session) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *Session) recvTimeout() time.Duration {
	remain := s.deadline.Sub(s.now())
	if t := s.Config.ByteTimeout; t > 0 && t < remain {
		return t
	}
	return remain
}

// Run processes frames until Jump, Abort, session timeout, a retry ceiling
// or a channel failure. On Jump it returns the entry address and a nil error.
func (s *Session) Run(ctx context.Context) (uint32, error) {
	if s.started {
		return 0, errors.New("session already used")
	}
	s.started = true
	s.deadline = s.now().Add(s.Config.SessionTimeout)
	for {
		if err := ctx.Err(); err != nil {
			s.state = StateFailed
			return 0, err
		}
		if !s.now().Before(s.deadline) {
			s.state = StateTimedOut
			glog.V(1).Infof("serial session timed out after %d frames", s.stats.Frames)
			return 0, ErrTimedOut
		}
		b, err := s.Channel.Recv(s.recvTimeout())
		if err != nil {
			if !channel.IsTimeout(err) {
				s.state = StateFailed
				return 0, fmt.Errorf("channel: %w", err)
			}
			if pr := s.parser.Timeout(); pr.Nak != 0 {
				if err = s.reject(pr.Nak, pr.Err); err != nil {
					return 0, err
				}
			}
			s.state = StateAwaitFrame
			continue
		}
		s.state = StateParsingFrame
		pr := s.parser.Parse(b)
		switch {
		case pr.Nak != 0:
			s.stats.Frames++
			if err = s.reject(pr.Nak, pr.Err); err != nil {
				return 0, err
			}
		case pr.Frame != nil:
			s.stats.Frames++
			entry, done, err := s.handle(pr.Frame)
			if done || err != nil {
				return entry, err
			}
		default:
			continue
		}
		if !s.state.IsTerminal() {
			s.state = StateAwaitFrame
		}
	}
}

func (s *Session) handle(frame *Frame) (entry uint32, done bool, err error) {
	s.state = StateValidating
	lc, err := frame.Decode()
	if err != nil {
		nak := NakMalformed
		if errors.Is(err, ErrUnknownCommand) {
			nak = NakUnknown
		}
		return 0, false, s.reject(nak, err)
	}
	glog.V(2).Infof("frame %s addr=%#08x len=%d", lc.Cmd, lc.Addr, len(lc.Data))

	switch lc.Cmd {
	case CmdPing:
		return 0, false, s.ack()
	case CmdWrite:
		if !s.Region.Contains(lc.Addr, len(lc.Data)) {
			return 0, false, s.rejectBounds(lc.Addr, len(lc.Data))
		}
		s.state = StateEffecting
		if err = s.Region.Write(lc.Addr, lc.Data); err != nil {
			return 0, false, s.rejectBounds(lc.Addr, len(lc.Data))
		}
		s.stats.Writes++
		s.stats.BytesWritten += len(lc.Data)
		return 0, false, s.ack()
	case CmdJump:
		if !s.acked {
			return 0, false, s.reject(NakRejected, ErrNoHandshake)
		}
		if !s.isJumpTarget(lc.Addr) {
			return 0, false, s.rejectBounds(lc.Addr, 1)
		}
		s.state = StateEffecting
		if err = s.ack(); err != nil {
			return 0, false, err
		}
		if f, ok := s.Channel.(channel.Flusher); ok {
			f.Flush()
		}
		s.state = StateDone
		glog.V(1).Infof("serial session done: %d writes, %d bytes, entry %#08x",
			s.stats.Writes, s.stats.BytesWritten, lc.Addr)
		return lc.Addr, true, nil
	case CmdAbort:
		if err = s.ack(); err != nil {
			return 0, false, err
		}
		s.state = StateAborted
		return 0, true, ErrAborted
	}
	return 0, false, s.reject(NakUnknown, ErrUnknownCommand)
}

func (s *Session) isJumpTarget(addr uint32) bool {
	if s.Region.Contains(addr, 1) {
		return true
	}
	_, ok := s.Windows.Find(addr, 1)
	return ok
}

func (s *Session) ack() error {
	if err := s.Channel.Send([]byte{ACK}); err != nil {
		s.state = StateFailed
		return fmt.Errorf("channel: %w", err)
	}
	s.acked = true
	s.consecutive = 0
	s.stats.Acked++
	s.deadline = s.now().Add(s.Config.SessionTimeout)
	return nil
}

func (s *Session) nak(code byte) error {
	if f, ok := s.Channel.(channel.Flusher); ok {
		f.Flush()
	}
	if err := s.Channel.Send([]byte{code}); err != nil {
		s.state = StateFailed
		return fmt.Errorf("channel: %w", err)
	}
	return nil
}

func (s *Session) reject(code byte, reason error) error {
	glog.V(1).Infof("frame rejected: %v", reason)
	if err := s.nak(code); err != nil {
		return err
	}
	s.stats.ProtocolErrors++
	s.consecutive++
	if max := s.Config.MaxProtocolErrors; max > 0 && s.consecutive > max {
		s.state = StateFailed
		return &CeilingError{Kind: CeilingProtocol, Count: s.consecutive, Last: reason}
	}
	return nil
}

func (s *Session) rejectBounds(addr uint32, n int) error {
	reason := &mem.BoundsError{Addr: addr, Len: n}
	if span, ok := s.Region.(interface{ Bounds() mem.Span }); ok {
		reason.Span = span.Bounds()
	}
	glog.V(1).Infof("frame rejected: %v", reason)
	if err := s.nak(NakRejected); err != nil {
		return err
	}
	s.stats.BoundsViolations++
	if max := s.Config.MaxBoundsViolations; max > 0 && s.stats.BoundsViolations > max {
		s.state = StateFailed
		return &CeilingError{Kind: CeilingBounds, Count: s.stats.BoundsViolations, Last: reason}
	}
	return nil
}
