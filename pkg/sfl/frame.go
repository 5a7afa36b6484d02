package sfl

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Command is the first byte of a frame.
type Command byte

// Commands.
const (
	CmdAbort Command = 0x00
	CmdWrite Command = 0x01
	CmdJump  Command = 0x02
	CmdPing  Command = 0x03
)

// Reply bytes. None of them is a valid Command.
const (
	ACK          byte = 'K'
	NakChecksum  byte = 'C'
	NakUnknown   byte = 'U'
	NakMalformed byte = 'M'
	NakTimeout   byte = 'T'
	NakRejected  byte = 'E'
)

// Frame size limits.
const (
	MaxPayload   = 255
	AddrSize     = 4
	MaxWriteData = MaxPayload - AddrSize

	frameOverhead = 4 // CMD, LEN, CRC(2)
)

// IsValid reports whether c is a known command.
func (c Command) IsValid() bool {
	return c <= CmdPing
}

func (c Command) String() string {
	switch c {
	case CmdAbort:
		return "abort"
	case CmdWrite:
		return "write"
	case CmdJump:
		return "jump"
	case CmdPing:
		return "ping"
	}
	return fmt.Sprintf("cmd(%#02x)", byte(c))
}

// IsNAK reports whether a reply byte rejects the frame.
func IsNAK(b byte) bool {
	switch b {
	case NakChecksum, NakUnknown, NakMalformed, NakTimeout, NakRejected:
		return true
	}
	return false
}

// Frame is a single protocol message.
type Frame struct {
	Cmd     Command
	Payload []byte
}

// NewWrite builds a Write frame.
func NewWrite(addr uint32, data []byte) (*Frame, error) {
	if len(data) > MaxWriteData {
		return nil, fmt.Errorf("write data length %d exceeds %d bytes", len(data), MaxWriteData)
	}
	payload := make([]byte, AddrSize+len(data))
	binary.BigEndian.PutUint32(payload, addr)
	copy(payload[AddrSize:], data)
	return &Frame{Cmd: CmdWrite, Payload: payload}, nil
}

// NewJump builds a Jump frame.
func NewJump(addr uint32) *Frame {
	payload := make([]byte, AddrSize)
	binary.BigEndian.PutUint32(payload, addr)
	return &Frame{Cmd: CmdJump, Payload: payload}
}

// NewAbort builds an Abort frame.
func NewAbort() *Frame {
	return &Frame{Cmd: CmdAbort}
}

// NewPing builds a Ping frame.
func NewPing() *Frame {
	return &Frame{Cmd: CmdPing}
}

// Checksum computes the frame CRC.
func (f *Frame) Checksum() uint16 {
	crc := updateCRC16(crc16Init, byte(f.Cmd), byte(len(f.Payload)))
	return updateCRC16(crc, f.Payload...)
}

// Bytes returns encoded bytes for sending. Payloads longer than MaxPayload
// are truncated.
func (f *Frame) Bytes() []byte {
	payload := f.Payload
	if len(payload) > MaxPayload {
		payload = payload[:MaxPayload]
	}
	b := make([]byte, 0, len(payload)+frameOverhead)
	b = append(b, byte(f.Cmd), byte(len(payload)))
	b = append(b, payload...)
	crc := (&Frame{Cmd: f.Cmd, Payload: payload}).Checksum()
	return append(b, byte(crc>>8), byte(crc))
}

// WriteTo writes encoded bytes.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Bytes())
	return int64(n), err
}

// LoadCommand is the decoded instruction carried by a frame.
type LoadCommand struct {
	Cmd  Command
	Addr uint32
	Data []byte
}

// Decode interprets the payload according to the command.
func (f *Frame) Decode() (LoadCommand, error) {
	lc := LoadCommand{Cmd: f.Cmd}
	switch f.Cmd {
	case CmdAbort, CmdPing:
		if len(f.Payload) != 0 {
			return lc, ErrMalformed
		}
	case CmdWrite:
		if len(f.Payload) < AddrSize {
			return lc, ErrMalformed
		}
		lc.Addr = binary.BigEndian.Uint32(f.Payload)
		lc.Data = f.Payload[AddrSize:]
	case CmdJump:
		if len(f.Payload) != AddrSize {
			return lc, ErrMalformed
		}
		lc.Addr = binary.BigEndian.Uint32(f.Payload)
	default:
		return lc, ErrUnknownCommand
	}
	return lc, nil
}
