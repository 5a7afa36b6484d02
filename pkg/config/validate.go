package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robotalks/biosboot/pkg/mem"
)

// Validate checks the configuration without modifying it. A method listed
// in the boot sequence without its section is not an error: it is reported
// unsupported when attempted.
func Validate(c *Config) error {
	bc := c.BootConfig()
	if err := bc.Validate(); err != nil {
		return err
	}

	if c.Memory.RAMSize == 0 {
		return fmt.Errorf("memory: ram_size must be positive")
	}
	ram := mem.Span{Base: c.Memory.RAMBase, Size: c.Memory.RAMSize}
	if ram.End() > 1<<32 {
		return fmt.Errorf("memory: ram %s exceeds address space", ram)
	}

	if dev := c.Serial.Device; strings.HasPrefix(dev, "ws://") {
		if _, err := url.Parse(dev); err != nil {
			return fmt.Errorf("serial: device: %w", err)
		}
	} else if dev != "" && c.Serial.Baud <= 0 {
		return fmt.Errorf("serial: baud must be positive")
	}

	if r := c.Rom; r != nil && r.File == "" {
		return fmt.Errorf("rom: file is required")
	}
	if f := c.Flash; f != nil {
		if f.File == "" {
			return fmt.Errorf("flash: file is required")
		}
		span := mem.Span{Base: f.Base, Size: f.Size}
		if f.Size == 0 || span.End() > 1<<32 {
			return fmt.Errorf("flash: invalid window %s", span)
		}
		if overlaps(span, ram) {
			return fmt.Errorf("flash: window %s overlaps ram %s", span, ram)
		}
	}

	if s := c.SpiFlash; s != nil {
		if s.File == "" {
			return fmt.Errorf("spiflash: file is required")
		}
		if s.Offset < 0 {
			return fmt.Errorf("spiflash: offset must not be negative")
		}
		if p := s.PageSize; p < 0 || p&(p-1) != 0 {
			return fmt.Errorf("spiflash: page_size %d is not a power of two", p)
		}
		if s.LoadAddr != nil && !ram.Contains(*s.LoadAddr, 1) {
			return fmt.Errorf("spiflash: load_addr %#08x outside ram %s", *s.LoadAddr, ram)
		}
	}

	if n := c.Net; n != nil {
		if (n.Dir == "") == (n.URL == "") {
			return fmt.Errorf("net: exactly one of dir and url is required")
		}
		if n.URL != "" {
			u, err := url.Parse(n.URL)
			if err != nil {
				return fmt.Errorf("net: url: %w", err)
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return fmt.Errorf("net: unsupported url scheme %q", u.Scheme)
			}
		}
		if n.Timeout < 0 {
			return fmt.Errorf("net: timeout must not be negative")
		}
		if n.LoadAddr != nil && !ram.Contains(*n.LoadAddr, 1) {
			return fmt.Errorf("net: load_addr %#08x outside ram %s", *n.LoadAddr, ram)
		}
	}

	if c.Diag.MQTT != "" {
		if _, err := url.Parse(c.Diag.MQTT); err != nil {
			return fmt.Errorf("diag: mqtt: %w", err)
		}
	}
	if c.Diag.History < 0 {
		return fmt.Errorf("diag: history must not be negative")
	}
	return nil
}

func overlaps(a, b mem.Span) bool {
	return uint64(a.Base) < b.End() && uint64(b.Base) < a.End()
}
