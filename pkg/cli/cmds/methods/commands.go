package methods

import (
	"github.com/abiosoft/ishell"

	"github.com/robotalks/biosboot/pkg/boot"
	"github.com/robotalks/biosboot/pkg/cli/sh"
	"github.com/robotalks/biosboot/pkg/drivers/spiflash"
)

// methodCmd creates the command booting a single method.
func methodCmd(name string, m boot.Method, help string) ishell.Cmd {
	return ishell.Cmd{
		Name: name,
		Help: help,
		Func: func(c *ishell.Context) {
			if err := sh.ShellFrom(c).Boot(m); err != nil {
				c.Err(err)
			}
		},
	}
}

var (
	// SerialBootCmd loads an image over the serial link.
	SerialBootCmd = methodCmd("serialboot", boot.Serial, "boot via serial frame loader")
	// NetBootCmd loads an image from the boot server.
	NetBootCmd = methodCmd("netboot", boot.Network, "boot via network")
	// FlashBootCmd boots from internal flash.
	FlashBootCmd = methodCmd("flashboot", boot.InternalFlash, "boot from internal flash")
	// RomBootCmd boots the embedded ROM.
	RomBootCmd = methodCmd("romboot", boot.Rom, "boot from embedded rom")

	// SpiFlashBootCmd boots from SPI flash, optionally to another address.
	SpiFlashBootCmd = ishell.Cmd{
		Name: "spiflashboot",
		Help: "[ADDR] boot from SPI flash, loading at ADDR",
		Func: func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			if len(c.Args) == 0 {
				if err := s.Boot(boot.SpiFlash); err != nil {
					c.Err(err)
				}
				return
			}
			if err := SpiFlashBootAt(s, c.Args[0]); err != nil {
				c.Err(err)
			}
		},
	}

	// BootCmd runs the whole boot sequence.
	BootCmd = ishell.Cmd{
		Name:    "boot",
		Aliases: []string{"autoboot"},
		Help:    "run the configured boot sequence",
		Func: func(c *ishell.Context) {
			if err := sh.ShellFrom(c).BootAll(); err != nil {
				c.Err(err)
			}
		},
	}
)

// SpiFlashBootAt boots from SPI flash loading the image at addr.
func SpiFlashBootAt(s *sh.Shell, addr string) error {
	loadAddr, err := sh.ParseAddr(addr)
	if err != nil {
		return err
	}
	drv, ok := s.Board.Dispatcher.Drivers[boot.SpiFlash].(*spiflash.Driver)
	if !ok {
		return s.Boot(boot.SpiFlash)
	}
	at := *drv
	at.LoadAddr = loadAddr
	return s.BootWith(boot.SpiFlash, &at)
}

func init() {
	sh.AddCmds(
		&SerialBootCmd,
		&NetBootCmd,
		&FlashBootCmd,
		&RomBootCmd,
		&SpiFlashBootCmd,
		&BootCmd,
	)
}
