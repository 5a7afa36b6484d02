// Package flash boots an image executed in place from internal flash.
package flash

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/biosboot/pkg/boot"
	"github.com/robotalks/biosboot/pkg/image"
	"github.com/robotalks/biosboot/pkg/mem"
)

// Driver reads the image header at the start of the flash window and
// offers the payload that follows it for execution in place.
type Driver struct {
	Window *mem.Window
}

// New creates a Driver.
func New(w *mem.Window) *Driver {
	return &Driver{Window: w}
}

// FetchImage implements boot.Driver.
func (d *Driver) FetchImage(ctx context.Context) (*boot.Image, error) {
	if d.Window == nil {
		return nil, boot.ErrUnsupported
	}
	h, err := image.ReadHeader(d.Window, 0)
	if err != nil {
		return nil, err
	}
	if err = h.Check(int64(d.Window.Size) - image.HeaderSize); err != nil {
		return nil, err
	}
	payload := make([]byte, h.Length)
	if _, err = d.Window.ReadAt(payload, image.HeaderSize); err != nil {
		return nil, err
	}
	if err = h.Verify(payload); err != nil {
		return nil, err
	}
	addr := d.Window.Base + image.HeaderSize
	glog.V(1).Infof("flash image: %d bytes at %#08x, crc %08x", h.Length, addr, h.CRC)
	return &boot.Image{Addr: addr, Data: payload, Entry: addr, InPlace: true}, nil
}
