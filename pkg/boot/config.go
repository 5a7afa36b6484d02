package boot

import (
	"fmt"
	"strings"
	"time"

	"github.com/robotalks/biosboot/pkg/sfl"
)

// ExhaustedPolicy decides what happens after every method failed.
type ExhaustedPolicy int

// Policies.
const (
	Halt ExhaustedPolicy = iota
	Restart
)

func (p ExhaustedPolicy) String() string {
	switch p {
	case Halt:
		return "halt"
	case Restart:
		return "restart"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p ExhaustedPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *ExhaustedPolicy) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "halt":
		*p = Halt
	case "restart", "retry":
		*p = Restart
	default:
		return fmt.Errorf("unknown exhausted policy %q", string(text))
	}
	return nil
}

// Config is the boot configuration. It is read-only once Run starts.
type Config struct {
	// Methods in the order they are tried.
	Methods []Method
	// Serial configures the frame loader receiver.
	Serial sfl.Config
	// OnExhausted is applied when every method failed.
	OnExhausted ExhaustedPolicy
	// RestartDelay is the pause before the sequence is tried again.
	RestartDelay time.Duration
	// MaxRounds limits restarts, 0 for unlimited.
	MaxRounds int
}

// DefaultConfig follows the usual BIOS order: serial, flash, ROM, network.
func DefaultConfig() Config {
	return Config{
		Methods:      []Method{Serial, InternalFlash, Rom, Network},
		Serial:       sfl.DefaultConfig(),
		OnExhausted:  Halt,
		RestartDelay: time.Second,
	}
}

// Validate checks the configuration without modifying it.
func (c *Config) Validate() error {
	if len(c.Methods) == 0 {
		return configErrorf("no boot methods configured")
	}
	seen := make(map[Method]bool, len(c.Methods))
	for _, m := range c.Methods {
		if !m.IsValid() {
			return configErrorf("invalid boot method %d", int(m))
		}
		if seen[m] {
			return configErrorf("boot method %s listed twice", m)
		}
		seen[m] = true
	}
	if seen[Serial] {
		if c.Serial.SessionTimeout <= 0 {
			return configErrorf("serial session timeout must be positive")
		}
		if c.Serial.ByteTimeout < 0 {
			return configErrorf("serial byte timeout must not be negative")
		}
		if c.Serial.MaxProtocolErrors < 0 || c.Serial.MaxBoundsViolations < 0 {
			return configErrorf("serial retry ceilings must not be negative")
		}
	}
	if c.OnExhausted != Halt && c.OnExhausted != Restart {
		return configErrorf("invalid exhausted policy %d", int(c.OnExhausted))
	}
	if c.RestartDelay < 0 || c.MaxRounds < 0 {
		return configErrorf("restart delay and max rounds must not be negative")
	}
	return nil
}
