package methods

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/biosboot/pkg/boot"
	"github.com/robotalks/biosboot/pkg/cli/sh"
	"github.com/robotalks/biosboot/pkg/config"
	"github.com/robotalks/biosboot/pkg/image"
)

func TestSpiFlashBootAt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spi.img")
	require.NoError(t, os.WriteFile(path, image.Pack([]byte("kernel")), 0644))

	conf := config.Default()
	conf.SpiFlash = &config.SpiFlashConfig{File: path}
	var entries []uint32
	b, err := config.Build(conf, boot.JumperFunc(func(entry uint32) { entries = append(entries, entry) }))
	require.NoError(t, err)
	defer b.Close()
	s := &sh.Shell{Board: b}

	require.NoError(t, SpiFlashBootAt(s, "0x40000100"))
	require.Equal(t, []uint32{0x40000100}, entries)
	got, err := b.RAM.Read(0x40000100, 6)
	require.NoError(t, err)
	require.Equal(t, []byte("kernel"), got)

	require.NoError(t, s.Boot(boot.SpiFlash))
	require.Equal(t, []uint32{0x40000100, 0x40000000}, entries)

	err = SpiFlashBootAt(s, "0x50000000")
	require.Equal(t, boot.ReasonBounds, boot.ReasonOf(err))
	require.Error(t, SpiFlashBootAt(s, "ram"))
	require.Len(t, entries, 2)
}

func TestMethodCommands(t *testing.T) {
	testCases := map[string]boot.Method{
		SerialBootCmd.Name: boot.Serial,
		NetBootCmd.Name:    boot.Network,
		FlashBootCmd.Name:  boot.InternalFlash,
		RomBootCmd.Name:    boot.Rom,
	}
	for name, m := range testCases {
		parsed, err := boot.ParseMethod(name)
		require.NoError(t, err)
		require.Equal(t, m, parsed)
	}
}
