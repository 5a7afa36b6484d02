package boot

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/biosboot/pkg/channel"
	"github.com/robotalks/biosboot/pkg/mem"
	"github.com/robotalks/biosboot/pkg/sfl"
)

// Dispatcher runs the boot sequence.
type Dispatcher struct {
	Config Config
	// Channel is the serial link, nil if the board has none.
	Channel channel.ByteChannel
	// Drivers for non-serial methods. A missing driver makes the method
	// unsupported.
	Drivers map[Method]Driver
	// Region is the writable load region.
	Region mem.Region
	// Windows are the in-place executable windows.
	Windows  mem.Windows
	Jumper   Jumper
	Reporter Reporter
	// Clock is passed to serial sessions, defaults to time.Now.
	Clock func() time.Time
}

func (d *Dispatcher) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now()
}

func (d *Dispatcher) check() error {
	if err := d.Config.Validate(); err != nil {
		return err
	}
	if d.Region == nil {
		return configErrorf("no load region")
	}
	if d.Jumper == nil {
		return configErrorf("no jumper")
	}
	return nil
}

// Run tries the configured methods in order. When one produces an image,
// Run jumps to it and, if the Jumper returns, returns nil. When all fail it
// returns an *ExhaustedError, or starts over if the policy is Restart.
// A *ConfigError is returned before anything is attempted.
func (d *Dispatcher) Run(ctx context.Context) error {
	if err := d.check(); err != nil {
		return err
	}
	methods := append([]Method(nil), d.Config.Methods...)
	for round := 1; ; round++ {
		exhausted := &ExhaustedError{Rounds: round}
		for _, m := range methods {
			if err := ctx.Err(); err != nil {
				return err
			}
			entry, err := d.attempt(ctx, m, round)
			if err == nil {
				d.handoff(m, entry)
				return nil
			}
			exhausted.Failures = append(exhausted.Failures, err)
		}
		if d.Config.OnExhausted != Restart || (d.Config.MaxRounds > 0 && round >= d.Config.MaxRounds) {
			glog.Errorf("all boot methods failed after %d rounds", round)
			return exhausted
		}
		glog.Warningf("all boot methods failed, restarting in %v", d.Config.RestartDelay)
		if err := sleep(ctx, d.Config.RestartDelay); err != nil {
			return err
		}
	}
}

// Boot tries a single method and jumps to its image on success.
func (d *Dispatcher) Boot(ctx context.Context, m Method) error {
	if err := d.check(); err != nil {
		return err
	}
	entry, err := d.attempt(ctx, m, 0)
	if err != nil {
		return err
	}
	d.handoff(m, entry)
	return nil
}

// Attempt tries a single method without jumping and returns the entry
// address of the loaded image.
func (d *Dispatcher) Attempt(ctx context.Context, m Method) (uint32, error) {
	if err := d.check(); err != nil {
		return 0, err
	}
	entry, err := d.attempt(ctx, m, 0)
	if err != nil {
		return 0, err
	}
	return entry, nil
}

func (d *Dispatcher) attempt(ctx context.Context, m Method, round int) (uint32, *Failure) {
	start := d.now()
	glog.V(1).Infof("trying %s boot", m)
	entry, reason, err := d.try(ctx, m)
	ev := Event{Method: m, Round: round, Entry: entry, Reason: reason, Err: err, Elapsed: d.now().Sub(start)}
	if reason == ReasonNone {
		glog.Infof("%s boot: image ready, entry %#08x", m, entry)
	} else {
		glog.Warningf("%s boot failed: %s: %v", m, reason, err)
		ev.Entry = 0
	}
	if d.Reporter != nil {
		d.Reporter.Report(ev)
	}
	if reason != ReasonNone {
		return 0, &Failure{Method: m, Reason: reason, Err: err}
	}
	return entry, nil
}

// try runs one method in a fresh validation context.
func (d *Dispatcher) try(ctx context.Context, m Method) (uint32, Reason, error) {
	if m == Serial {
		if d.Channel == nil {
			return 0, ReasonUnsupported, ErrUnsupported
		}
		s := sfl.NewSession(d.Channel, d.Region, d.Config.Serial)
		s.Windows = d.Windows
		s.Clock = d.Clock
		entry, err := s.Run(ctx)
		if err != nil {
			return 0, serialReason(err), err
		}
		return entry, ReasonNone, nil
	}

	drv := d.Drivers[m]
	if drv == nil {
		return 0, ReasonUnsupported, ErrUnsupported
	}
	img, err := drv.FetchImage(ctx)
	if err != nil {
		if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return 0, ReasonCanceled, err
		}
		if errors.Is(err, ErrUnsupported) {
			return 0, ReasonUnsupported, err
		}
		return 0, ReasonDriver, err
	}
	if img == nil {
		return 0, ReasonInvalidImage, ErrEmptyImage
	}
	t := &target{region: d.Region, windows: d.Windows}
	if reason, err := t.place(img); err != nil {
		return 0, reason, err
	}
	return img.Entry, ReasonNone, nil
}

func serialReason(err error) Reason {
	var ce *sfl.CeilingError
	switch {
	case errors.Is(err, sfl.ErrAborted):
		return ReasonAborted
	case errors.Is(err, sfl.ErrTimedOut):
		return ReasonTimedOut
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCanceled
	case errors.As(err, &ce):
		if ce.Kind == sfl.CeilingBounds {
			return ReasonBounds
		}
		return ReasonProtocol
	}
	return ReasonChannel
}

// handoff is the single place control leaves the BIOS.
func (d *Dispatcher) handoff(m Method, entry uint32) {
	glog.Infof("booting %s image at %#08x", m, entry)
	glog.Flush()
	d.Jumper.Jump(entry)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
