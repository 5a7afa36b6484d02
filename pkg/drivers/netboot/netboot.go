// Package netboot fetches an image from a boot server into RAM.
package netboot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/biosboot/pkg/boot"
)

// ErrNotFound is returned by a Fetcher when the server has no such file.
var ErrNotFound = errors.New("file not found")

// Fetcher retrieves a whole file from a boot server.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Defaults.
const (
	DefaultFile    = "boot.bin"
	DefaultTimeout = 10 * time.Second
)

// Driver downloads the first available file in Files and targets it at
// LoadAddr.
type Driver struct {
	Fetcher  Fetcher
	Files    []string
	LoadAddr uint32
	// MaxSize limits the image size, typically the size of the load region.
	MaxSize int
	// Timeout limits the whole download, DefaultTimeout if 0.
	Timeout time.Duration
}

// New creates a Driver.
func New(f Fetcher, loadAddr uint32, maxSize int) *Driver {
	return &Driver{Fetcher: f, Files: []string{DefaultFile}, LoadAddr: loadAddr, MaxSize: maxSize}
}

// FetchImage implements boot.Driver.
func (d *Driver) FetchImage(ctx context.Context) (*boot.Image, error) {
	if d.Fetcher == nil {
		return nil, boot.ErrUnsupported
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	files := d.Files
	if len(files) == 0 {
		files = []string{DefaultFile}
	}
	for _, name := range files {
		data, err := d.Fetcher.Fetch(ctx, name)
		if errors.Is(err, ErrNotFound) {
			glog.V(1).Infof("netboot: %s not found", name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", name, err)
		}
		if d.MaxSize > 0 && len(data) > d.MaxSize {
			return nil, fmt.Errorf("%s: image of %d bytes exceeds %d", name, len(data), d.MaxSize)
		}
		glog.V(1).Infof("netboot: %s, %d bytes", name, len(data))
		return &boot.Image{Addr: d.LoadAddr, Data: data, Entry: d.LoadAddr}, nil
	}
	return nil, fmt.Errorf("netboot: %w", ErrNotFound)
}
