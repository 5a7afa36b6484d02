package channel

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/golang/glog"
)

const streamBufSize = 512

// Stream adapts an io.ReadWriter into a ByteChannel. Reads happen in a
// background goroutine so Recv can honor its timeout on readers that block
// without one.
type Stream struct {
	ReadWriter io.ReadWriter

	startOnce sync.Once
	byteCh    chan byte
	readErr   error
	writeLock sync.Mutex
}

// NewStream creates a Stream over rw.
func NewStream(rw io.ReadWriter) *Stream {
	return &Stream{ReadWriter: rw}
}

func (s *Stream) start() {
	s.byteCh = make(chan byte, streamBufSize)
	go s.readLoop()
}

func (s *Stream) readLoop() {
	buf := make([]byte, streamBufSize)
	for {
		n, err := s.ReadWriter.Read(buf)
		for _, b := range buf[:n] {
			s.byteCh <- b
		}
		if err != nil {
			if IsTimeout(err) {
				continue
			}
			glog.V(2).Infof("stream read stopped: %v", err)
			s.readErr = err
			close(s.byteCh)
			return
		}
	}
}

// Recv implements ByteChannel.
func (s *Stream) Recv(timeout time.Duration) (byte, error) {
	s.startOnce.Do(s.start)
	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}
	select {
	case b, ok := <-s.byteCh:
		if !ok {
			return 0, s.readErr
		}
		if glog.V(4) {
			glog.Infof("RX %02x", b)
		}
		return b, nil
	case <-timer:
		return 0, ErrTimeout
	}
}

// Send implements ByteChannel.
func (s *Stream) Send(p []byte) error {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()
	if glog.V(4) {
		glog.Infof("TX % x", p)
	}
	_, err := s.ReadWriter.Write(p)
	return err
}

// Flush implements Flusher.
func (s *Stream) Flush() error {
	s.startOnce.Do(s.start)
	for {
		select {
		case _, ok := <-s.byteCh:
			if !ok {
				return nil
			}
		default:
			return nil
		}
	}
}

// Close closes the underlying ReadWriter if it's an io.Closer.
func (s *Stream) Close() error {
	if c, ok := s.ReadWriter.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Pipe returns two connected in-memory Streams.
func Pipe() (*Stream, *Stream) {
	a, b := net.Pipe()
	return NewStream(a), NewStream(b)
}
