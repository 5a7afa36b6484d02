package diag

import (
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/biosboot/pkg/boot"
)

// BootEvent is the wire form of boot.Event.
type BootEvent struct {
	Board     string `protobuf:"bytes,1,opt,name=board,proto3" json:"board,omitempty"`
	Method    string `protobuf:"bytes,2,opt,name=method,proto3" json:"method,omitempty"`
	Round     uint32 `protobuf:"varint,3,opt,name=round,proto3" json:"round,omitempty"`
	Ok        bool   `protobuf:"varint,4,opt,name=ok,proto3" json:"ok,omitempty"`
	Entry     uint32 `protobuf:"varint,5,opt,name=entry,proto3" json:"entry,omitempty"`
	Reason    string `protobuf:"bytes,6,opt,name=reason,proto3" json:"reason,omitempty"`
	Error     string `protobuf:"bytes,7,opt,name=error,proto3" json:"error,omitempty"`
	ElapsedMs int64  `protobuf:"varint,8,opt,name=elapsed_ms,proto3" json:"elapsed_ms,omitempty"`
	Timestamp int64  `protobuf:"varint,9,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

// NewBootEvent converts ev.
func NewBootEvent(board string, ev boot.Event, at time.Time) *BootEvent {
	m := &BootEvent{
		Board:     board,
		Method:    ev.Method.String(),
		Round:     uint32(ev.Round),
		Ok:        ev.OK(),
		Entry:     ev.Entry,
		ElapsedMs: int64(ev.Elapsed / time.Millisecond),
		Timestamp: at.UnixNano(),
	}
	if !m.Ok {
		m.Reason = ev.Reason.String()
	}
	if ev.Err != nil {
		m.Error = ev.Err.Error()
	}
	return m
}

// ProtoMessage implements proto.Message.
func (m *BootEvent) ProtoMessage() {}

// Reset implements proto.Message.
func (m *BootEvent) Reset() { *m = BootEvent{} }

// String implements proto.Message.
func (m *BootEvent) String() string { return proto.CompactTextString(m) }

// Handoff announces the image control is transferred to.
type Handoff struct {
	Board     string `protobuf:"bytes,1,opt,name=board,proto3" json:"board,omitempty"`
	Method    string `protobuf:"bytes,2,opt,name=method,proto3" json:"method,omitempty"`
	Entry     uint32 `protobuf:"varint,3,opt,name=entry,proto3" json:"entry,omitempty"`
	Timestamp int64  `protobuf:"varint,4,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Handoff) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Handoff) Reset() { *m = Handoff{} }

// String implements proto.Message.
func (m *Handoff) String() string { return proto.CompactTextString(m) }
