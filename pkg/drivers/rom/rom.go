// Package rom boots the image built into the boot ROM.
package rom

import (
	"context"

	"github.com/robotalks/biosboot/pkg/boot"
	"github.com/robotalks/biosboot/pkg/mem"
)

// Driver executes the ROM in place from its base address.
type Driver struct {
	Window *mem.Window
}

// New creates a Driver.
func New(w *mem.Window) *Driver {
	return &Driver{Window: w}
}

// FetchImage implements boot.Driver.
func (d *Driver) FetchImage(ctx context.Context) (*boot.Image, error) {
	if d.Window == nil || d.Window.Size == 0 {
		return nil, boot.ErrUnsupported
	}
	data := make([]byte, d.Window.Size)
	if _, err := d.Window.ReadAt(data, 0); err != nil {
		return nil, err
	}
	return &boot.Image{
		Addr:    d.Window.Base,
		Data:    data,
		Entry:   d.Window.Base,
		InPlace: true,
	}, nil
}
