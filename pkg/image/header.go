package image

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// HeaderSize is the size of the flash image header.
const HeaderSize = 8

// Flash image header errors.
var (
	ErrBadLength = errors.New("invalid image length")
	ErrBadCRC    = errors.New("image crc mismatch")
)

// Header precedes an image stored in flash: payload length and the
// IEEE CRC32 of the payload, both big-endian.
type Header struct {
	Length uint32
	CRC    uint32
}

// NewHeader builds the header for payload.
func NewHeader(payload []byte) Header {
	return Header{Length: uint32(len(payload)), CRC: crc32.ChecksumIEEE(payload)}
}

// ReadHeader reads a header at off.
func ReadHeader(r io.ReaderAt, off int64) (Header, error) {
	var buf [HeaderSize]byte
	if _, err := r.ReadAt(buf[:], off); err != nil {
		return Header{}, fmt.Errorf("read image header: %w", err)
	}
	return Header{
		Length: binary.BigEndian.Uint32(buf[0:]),
		CRC:    binary.BigEndian.Uint32(buf[4:]),
	}, nil
}

// Bytes encodes the header.
func (h Header) Bytes() []byte {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(buf[0:], h.Length)
	binary.BigEndian.PutUint32(buf[4:], h.CRC)
	return buf
}

// Check validates the length against the space available after the header.
// Erased flash reads as all ones.
func (h Header) Check(capacity int64) error {
	if h.Length == 0 || h.Length == 0xffffffff || int64(h.Length) > capacity {
		return fmt.Errorf("%w: %d", ErrBadLength, h.Length)
	}
	return nil
}

// Verify checks the payload CRC.
func (h Header) Verify(payload []byte) error {
	if sum := crc32.ChecksumIEEE(payload); sum != h.CRC {
		return fmt.Errorf("%w: expect %08x, got %08x", ErrBadCRC, h.CRC, sum)
	}
	return nil
}

// Pack prefixes payload with its header, the layout the flash drivers read.
func Pack(payload []byte) []byte {
	return append(NewHeader(payload).Bytes(), payload...)
}
