// Package spiflash copies an image from SPI flash into RAM.
package spiflash

import (
	"context"
	"fmt"
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/biosboot/pkg/boot"
	"github.com/robotalks/biosboot/pkg/image"
	"github.com/robotalks/biosboot/pkg/mem"
)

// DefaultPageSize is the read granularity of common SPI NOR parts.
const DefaultPageSize = 256

// Driver reads an image stored at Offset in the flash device and targets
// it at LoadAddr.
type Driver struct {
	Flash io.ReaderAt
	// Size of the flash device in bytes.
	Size     int64
	Offset   int64
	LoadAddr uint32
	// PageSize must be a power of two, DefaultPageSize if 0.
	PageSize int64
}

// New creates a Driver.
func New(flash io.ReaderAt, size, offset int64, loadAddr uint32) *Driver {
	return &Driver{Flash: flash, Size: size, Offset: offset, LoadAddr: loadAddr}
}

func (d *Driver) pageSize() int64 {
	if d.PageSize > 0 {
		return d.PageSize
	}
	return DefaultPageSize
}

// FetchImage implements boot.Driver.
func (d *Driver) FetchImage(ctx context.Context) (*boot.Image, error) {
	if d.Flash == nil {
		return nil, boot.ErrUnsupported
	}
	if d.Offset < 0 || d.Offset+image.HeaderSize > d.Size {
		return nil, fmt.Errorf("image offset %#x outside flash of %d bytes", d.Offset, d.Size)
	}
	h, err := image.ReadHeader(d.Flash, d.Offset)
	if err != nil {
		return nil, err
	}
	start := d.Offset + image.HeaderSize
	if err = h.Check(d.Size - start); err != nil {
		return nil, err
	}
	payload, err := d.read(ctx, start, int64(h.Length))
	if err != nil {
		return nil, err
	}
	if err = h.Verify(payload); err != nil {
		return nil, err
	}
	glog.V(1).Infof("spiflash image: %d bytes from %#x, crc %08x", h.Length, d.Offset, h.CRC)
	return &boot.Image{Addr: d.LoadAddr, Data: payload, Entry: d.LoadAddr}, nil
}

// read reads [off, off+n) in whole pages.
func (d *Driver) read(ctx context.Context, off, n int64) ([]byte, error) {
	page := d.pageSize()
	first := mem.AlignDown(off, page)
	last := mem.AlignUp(off+n, page)
	if last > d.Size {
		last = d.Size
	}
	buf := make([]byte, last-first)
	for pos := first; pos < last; pos += page {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := pos + page
		if end > last {
			end = last
		}
		if _, err := d.Flash.ReadAt(buf[pos-first:end-first], pos); err != nil && err != io.EOF {
			return nil, fmt.Errorf("read flash at %#x: %w", pos, err)
		}
	}
	return buf[off-first : off-first+n], nil
}
