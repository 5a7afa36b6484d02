package boot

import "context"

// Image is a bootable image produced by a Driver.
type Image struct {
	// Addr is where Data lives, or must be copied to.
	Addr uint32
	Data []byte
	// Entry is the address control is transferred to.
	Entry uint32
	// InPlace images already sit in an executable window (ROM, XIP flash)
	// and are not copied.
	InPlace bool
}

// Driver fetches an image from a non-serial boot source. Drivers bound
// their own blocking time.
type Driver interface {
	FetchImage(ctx context.Context) (*Image, error)
}

// DriverFunc is the func form of Driver.
type DriverFunc func(ctx context.Context) (*Image, error)

// FetchImage implements Driver.
func (f DriverFunc) FetchImage(ctx context.Context) (*Image, error) {
	return f(ctx)
}

// Jumper transfers control to a loaded image. On hardware Jump never
// returns.
type Jumper interface {
	Jump(entry uint32)
}

// JumperFunc is the func form of Jumper.
type JumperFunc func(entry uint32)

// Jump implements Jumper.
func (f JumperFunc) Jump(entry uint32) {
	f(entry)
}
