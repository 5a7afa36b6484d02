package mem

import (
	"fmt"
	"io"
)

// Region is a bounds-checked writable window of memory designated as a valid
// load target.
type Region interface {
	// Contains reports whether [addr, addr+n) lies entirely in the region.
	Contains(addr uint32, n int) bool
	// Write copies data to addr. Nothing is written if any byte of the
	// range falls outside the region.
	Write(addr uint32, data []byte) error
}

// Span is the address range [Base, Base+Size).
type Span struct {
	Base uint32
	Size uint32
}

// End returns the first address after the span. It may be 1<<32.
func (s Span) End() uint64 {
	return uint64(s.Base) + uint64(s.Size)
}

// Contains implements Region. A zero-length range is contained when addr
// itself is inside the span.
func (s Span) Contains(addr uint32, n int) bool {
	if n < 0 {
		return false
	}
	start, end := uint64(addr), uint64(addr)+uint64(n)
	return start >= uint64(s.Base) && start < s.End() && end <= s.End()
}

// String formats the span as a half-open interval.
func (s Span) String() string {
	return fmt.Sprintf("[%#08x, %#08x)", s.Base, s.End())
}

// BoundsError is returned when a write falls outside a region.
type BoundsError struct {
	Addr uint32
	Len  int
	Span Span
}

// Error implements error.
func (e *BoundsError) Error() string {
	return fmt.Sprintf("range %#08x+%d outside %s", e.Addr, e.Len, e.Span)
}

// RAM is a Region backed by a byte slice.
type RAM struct {
	Span
	buf []byte
}

// NewRAM allocates a RAM region of size bytes at base.
func NewRAM(base, size uint32) *RAM {
	return &RAM{Span: Span{Base: base, Size: size}, buf: make([]byte, size)}
}

// Write implements Region.
func (r *RAM) Write(addr uint32, data []byte) error {
	if !r.Contains(addr, len(data)) {
		return &BoundsError{Addr: addr, Len: len(data), Span: r.Span}
	}
	copy(r.buf[addr-r.Base:], data)
	return nil
}

// Read returns a copy of n bytes at addr.
func (r *RAM) Read(addr uint32, n int) ([]byte, error) {
	if !r.Contains(addr, n) {
		return nil, &BoundsError{Addr: addr, Len: n, Span: r.Span}
	}
	out := make([]byte, n)
	copy(out, r.buf[addr-r.Base:])
	return out, nil
}

// Bytes exposes the backing memory.
func (r *RAM) Bytes() []byte {
	return r.buf
}

// Window is a read-only memory window an image can execute from in place,
// e.g. boot ROM or memory-mapped flash. Offsets passed to ReadAt are
// relative to Base.
type Window struct {
	Name string
	Span
	io.ReaderAt
}

// NewWindow creates a Window over data mapped at base.
func NewWindow(name string, base uint32, data []byte) *Window {
	return &Window{
		Name:     name,
		Span:     Span{Base: base, Size: uint32(len(data))},
		ReaderAt: &byteReaderAt{data},
	}
}

// Windows is a set of in-place windows.
type Windows []*Window

// Find returns the window containing [addr, addr+n).
func (ws Windows) Find(addr uint32, n int) (*Window, bool) {
	for _, w := range ws {
		if w.Contains(addr, n) {
			return w, true
		}
	}
	return nil, false
}

type byteReaderAt struct {
	data []byte
}

func (r *byteReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n := copy(p, r.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Bounds returns the span itself, so types embedding a Span expose it.
func (s Span) Bounds() Span {
	return s
}

// Segment is a contiguous block of image data placed at Addr.
type Segment struct {
	Addr uint32
	Data []byte
}
