package sh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/biosboot/pkg/boot"
	"github.com/robotalks/biosboot/pkg/config"
)

func TestParseAddr(t *testing.T) {
	addr, err := ParseAddr("0x40000000")
	require.NoError(t, err)
	require.Equal(t, uint32(0x40000000), addr)
	addr, err = ParseAddr("4096")
	require.NoError(t, err)
	require.Equal(t, uint32(4096), addr)
	_, err = ParseAddr("0x100000000")
	require.Error(t, err)
}

func TestFormatEvent(t *testing.T) {
	require.Equal(t, "#1 rom      ok, entry 0x00001000 (2ms)",
		FormatEvent(boot.Event{Method: boot.Rom, Round: 1, Entry: 0x1000, Elapsed: 2 * time.Millisecond}))
	require.Equal(t, "#2 serial   timed out (10s): serial session timed out",
		FormatEvent(boot.Event{Method: boot.Serial, Round: 2, Reason: boot.ReasonTimedOut,
			Err: errors.New("serial session timed out"), Elapsed: 10 * time.Second}))
}

func TestBootWith(t *testing.T) {
	var entries []uint32
	b, err := config.Build(config.Default(), boot.JumperFunc(func(entry uint32) { entries = append(entries, entry) }))
	require.NoError(t, err)
	defer b.Close()
	s := &Shell{Board: b}

	require.Equal(t, boot.ReasonUnsupported, boot.ReasonOf(s.Boot(boot.Network)))

	drv := boot.DriverFunc(func(context.Context) (*boot.Image, error) {
		return &boot.Image{Addr: 0x40000000, Data: []byte{1}, Entry: 0x40000000}, nil
	})
	require.NoError(t, s.BootWith(boot.Network, drv))
	require.Equal(t, []uint32{0x40000000}, entries)
	require.Nil(t, b.Dispatcher.Drivers[boot.Network])

	lines := s.HistoryLines()
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "unsupported")
	require.Contains(t, lines[1], "ok, entry 0x40000000")

	err = s.BootAll()
	var ee *boot.ExhaustedError
	require.True(t, errors.As(err, &ee))
}
