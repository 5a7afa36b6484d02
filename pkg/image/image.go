// Package image reads and writes boot images on the host side.
package image

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/marcinbor85/gohex"

	"github.com/robotalks/biosboot/pkg/mem"
)

// ErrNoData indicates an image file without any data record.
var ErrNoData = errors.New("image has no data")

// File is a loaded image.
type File struct {
	Segments []mem.Segment
	Entry    uint32
}

// Load reads an image file. Intel HEX files (.hex, .ihex) carry their own
// addresses; anything else is a raw binary placed at base. The entry point
// defaults to the lowest address unless the file declares a start address.
func Load(path string, base uint32) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex", ".ihex":
		return ParseHex(f)
	}
	return ReadBinary(f, base)
}

// ParseHex parses an Intel HEX stream.
func ParseHex(r io.Reader) (*File, error) {
	m := gohex.NewMemory()
	if err := m.ParseIntelHex(r); err != nil {
		return nil, fmt.Errorf("parse hex: %w", err)
	}
	img := &File{}
	for _, seg := range m.GetDataSegments() {
		if len(seg.Data) == 0 {
			continue
		}
		img.Segments = append(img.Segments, mem.Segment{Addr: seg.Address, Data: seg.Data})
	}
	if len(img.Segments) == 0 {
		return nil, ErrNoData
	}
	sort.Slice(img.Segments, func(i, j int) bool {
		return img.Segments[i].Addr < img.Segments[j].Addr
	})
	if addr, ok := m.GetStartAddress(); ok {
		img.Entry = addr
	} else {
		img.Entry = img.Segments[0].Addr
	}
	return img, nil
}

// ReadBinary reads a raw binary image placed at base.
func ReadBinary(r io.Reader, base uint32) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNoData
	}
	if uint64(base)+uint64(len(data)) > 1<<32 {
		return nil, fmt.Errorf("image of %d bytes at %#08x exceeds address space", len(data), base)
	}
	return &File{Segments: []mem.Segment{{Addr: base, Data: data}}, Entry: base}, nil
}

// Bounds returns the span covering all segments.
func (f *File) Bounds() mem.Span {
	if len(f.Segments) == 0 {
		return mem.Span{}
	}
	lo, hi := uint64(f.Segments[0].Addr), uint64(0)
	for _, seg := range f.Segments {
		if a := uint64(seg.Addr); a < lo {
			lo = a
		}
		if e := uint64(seg.Addr) + uint64(len(seg.Data)); e > hi {
			hi = e
		}
	}
	return mem.Span{Base: uint32(lo), Size: uint32(hi - lo)}
}

// Flatten joins the segments into one contiguous blob, gaps filled with
// fill.
func (f *File) Flatten(fill byte) (uint32, []byte) {
	span := f.Bounds()
	data := make([]byte, span.Size)
	if fill != 0 {
		for n := range data {
			data[n] = fill
		}
	}
	for _, seg := range f.Segments {
		copy(data[seg.Addr-span.Base:], seg.Data)
	}
	return span.Base, data
}

// WriteHex writes the image as Intel HEX.
func (f *File) WriteHex(w io.Writer) error {
	m := gohex.NewMemory()
	for _, seg := range f.Segments {
		if err := m.AddBinary(seg.Addr, seg.Data); err != nil {
			return err
		}
	}
	m.SetStartAddress(f.Entry)
	return m.DumpIntelHex(w, 16)
}
