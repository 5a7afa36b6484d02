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

// Progress reports upload progress.
type Progress struct {
	Sent  int
	Total int
	Addr  uint32
}

// ProgressFunc is called after every acknowledged write.
type ProgressFunc func(Progress)

// Sender is the host side of the loader.
type Sender struct {
	Channel channel.ByteChannel
	// ReplyTimeout must be longer than the receiver's byte timeout so an
	// incomplete frame NAK isn't mistaken for a lost reply.
	ReplyTimeout time.Duration
	// Retries is the number of retransmissions per frame.
	Retries int
	// ChunkSize is the data size per Write frame, at most MaxWriteData.
	ChunkSize int
	Progress  ProgressFunc

	// stale is set once a reply went missing or was wrong, a late reply
	// may still be on the line.
	stale bool
}

// NewSender creates a Sender with defaults.
func NewSender(ch channel.ByteChannel) *Sender {
	return &Sender{
		Channel:      ch,
		ReplyTimeout: time.Second,
		Retries:      5,
		ChunkSize:    MaxWriteData,
	}
}

// Do sends a frame and waits for the ACK, retransmitting after a NAK or a
// reply timeout. A rejected frame is not retried since resending it can't
// change the outcome. Leftover replies are drained before sending so a late
// ACK is never taken for the current frame.
func (s *Sender) Do(f *Frame) error {
	var lastErr error
	encoded := f.Bytes()
	for attempt := 0; attempt <= s.Retries; attempt++ {
		if attempt > 0 {
			glog.V(1).Infof("retransmit %s (%d/%d): %v", f.Cmd, attempt, s.Retries, lastErr)
		}
		if s.stale {
			s.drain()
			s.stale = false
		}
		if err := s.Channel.Send(encoded); err != nil {
			return err
		}
		reply, err := s.Channel.Recv(s.ReplyTimeout)
		if err != nil {
			if !channel.IsTimeout(err) {
				return err
			}
			lastErr = fmt.Errorf("%s: no reply", f.Cmd)
			s.stale = true
			continue
		}
		if reply == ACK {
			return nil
		}
		s.stale = true
		nakErr := &NakError{Cmd: f.Cmd, Code: reply}
		if reply == NakRejected {
			return nakErr
		}
		lastErr = nakErr
	}
	return lastErr
}

const drainTimeout = 50 * time.Millisecond

func (s *Sender) drain() {
	for {
		if _, err := s.Channel.Recv(drainTimeout); err != nil {
			return
		}
	}
}

// Ping completes the handshake.
func (s *Sender) Ping() error {
	return s.Do(NewPing())
}

// Write writes data at addr, split into frames of ChunkSize.
func (s *Sender) Write(ctx context.Context, addr uint32, data []byte) error {
	return s.write(ctx, addr, data, 0, len(data))
}

func (s *Sender) write(ctx context.Context, addr uint32, data []byte, sent, total int) error {
	chunk := s.ChunkSize
	if chunk <= 0 || chunk > MaxWriteData {
		chunk = MaxWriteData
	}
	for off := 0; off < len(data); off += chunk {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := off + chunk
		if end > len(data) {
			end = len(data)
		}
		f, err := NewWrite(addr+uint32(off), data[off:end])
		if err != nil {
			return err
		}
		if err = s.Do(f); err != nil {
			return fmt.Errorf("write %#08x: %w", addr+uint32(off), err)
		}
		if s.Progress != nil {
			s.Progress(Progress{Sent: sent + end, Total: total, Addr: addr + uint32(end)})
		}
	}
	return nil
}

// Jump asks the receiver to start the image at addr.
func (s *Sender) Jump(addr uint32) error {
	return s.Do(NewJump(addr))
}

// Abort cancels the session.
func (s *Sender) Abort() error {
	return s.Do(NewAbort())
}

// ErrNoSegments indicates an empty image.
var ErrNoSegments = errors.New("nothing to upload")

// Upload pings the receiver, writes all segments and jumps to entry.
func (s *Sender) Upload(ctx context.Context, segments []mem.Segment, entry uint32) error {
	var total int
	for _, seg := range segments {
		total += len(seg.Data)
	}
	if total == 0 {
		return ErrNoSegments
	}
	if err := s.Ping(); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	var sent int
	for _, seg := range segments {
		if err := s.write(ctx, seg.Addr, seg.Data, sent, total); err != nil {
			return err
		}
		sent += len(seg.Data)
	}
	return s.Jump(entry)
}
