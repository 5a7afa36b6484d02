package boot

import (
	"fmt"
	"strings"
)

// Method is a strategy for obtaining a bootable image.
type Method int

// Boot methods.
const (
	Serial Method = iota
	Network
	InternalFlash
	Rom
	SpiFlash
)

var methodNames = [...]string{
	Serial:        "serial",
	Network:       "net",
	InternalFlash: "flash",
	Rom:           "rom",
	SpiFlash:      "spiflash",
}

var methodAliases = map[string]Method{
	"serialboot":     Serial,
	"network":        Network,
	"netboot":        Network,
	"flashboot":      InternalFlash,
	"internal-flash": InternalFlash,
	"romboot":        Rom,
	"spi-flash":      SpiFlash,
	"spiflashboot":   SpiFlash,
}

// Methods lists all boot methods.
func Methods() []Method {
	return []Method{Serial, Network, InternalFlash, Rom, SpiFlash}
}

// IsValid reports whether m is a known method.
func (m Method) IsValid() bool {
	return m >= Serial && m <= SpiFlash
}

func (m Method) String() string {
	if m.IsValid() {
		return methodNames[m]
	}
	return fmt.Sprintf("method(%d)", int(m))
}

// ParseMethod parses a method name.
func ParseMethod(s string) (Method, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for m, n := range methodNames {
		if n == name {
			return Method(m), nil
		}
	}
	if m, ok := methodAliases[name]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("unknown boot method %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	if !m.IsValid() {
		return nil, fmt.Errorf("invalid boot method %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
