package channel

import (
	"time"

	"github.com/goburrow/serial"
)

// SerialConfig describes a UART.
type SerialConfig struct {
	Address  string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
}

// DefaultSerialConfig is 115200 8N1, the usual BIOS console setting.
func DefaultSerialConfig(address string) SerialConfig {
	return SerialConfig{
		Address:  address,
		BaudRate: 115200,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
	}
}

// serialPollInterval bounds how long a port read blocks so the reader
// goroutine notices a closed port.
const serialPollInterval = 100 * time.Millisecond

// OpenSerial opens a UART as a Stream.
func OpenSerial(conf SerialConfig) (*Stream, error) {
	port, err := serial.Open(&serial.Config{
		Address:  conf.Address,
		BaudRate: conf.BaudRate,
		DataBits: conf.DataBits,
		StopBits: conf.StopBits,
		Parity:   conf.Parity,
		Timeout:  serialPollInterval,
	})
	if err != nil {
		return nil, err
	}
	return NewStream(&serialPort{Port: port}), nil
}

type serialPort struct {
	serial.Port
}

// Read reports port timeouts as ErrTimeout so Stream keeps polling.
func (p *serialPort) Read(b []byte) (int, error) {
	n, err := p.Port.Read(b)
	if err == serial.ErrTimeout {
		return n, ErrTimeout
	}
	return n, err
}
