package boot

import (
	"fmt"

	"github.com/robotalks/biosboot/pkg/mem"
)

// target is the destination validation context of one attempt.
type target struct {
	region  mem.Region
	windows mem.Windows
}

// place checks the image against the declared memory and copies it into
// the load region when it isn't in place. Nothing is written unless the
// whole image fits.
func (t *target) place(img *Image) (Reason, error) {
	n := len(img.Data)
	if n == 0 {
		return ReasonInvalidImage, ErrEmptyImage
	}
	if uint64(img.Entry) < uint64(img.Addr) || uint64(img.Entry) >= uint64(img.Addr)+uint64(n) {
		return ReasonInvalidImage, fmt.Errorf("%w: entry %#08x, image %#08x+%d",
			ErrEntryOutsideImage, img.Entry, img.Addr, n)
	}
	if img.InPlace {
		if _, ok := t.windows.Find(img.Addr, n); !ok {
			return ReasonBounds, &mem.BoundsError{Addr: img.Addr, Len: n}
		}
		return ReasonNone, nil
	}
	if !t.region.Contains(img.Addr, n) {
		return ReasonBounds, t.boundsError(img.Addr, n)
	}
	if err := t.region.Write(img.Addr, img.Data); err != nil {
		return ReasonBounds, err
	}
	return ReasonNone, nil
}

func (t *target) boundsError(addr uint32, n int) error {
	err := &mem.BoundsError{Addr: addr, Len: n}
	if b, ok := t.region.(interface{ Bounds() mem.Span }); ok {
		err.Span = b.Bounds()
	}
	return err
}
