package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/biosboot/pkg/boot"
	"github.com/robotalks/biosboot/pkg/channel"
	"github.com/robotalks/biosboot/pkg/diag"
	"github.com/robotalks/biosboot/pkg/drivers/flash"
	"github.com/robotalks/biosboot/pkg/drivers/netboot"
	"github.com/robotalks/biosboot/pkg/drivers/rom"
	"github.com/robotalks/biosboot/pkg/drivers/spiflash"
	"github.com/robotalks/biosboot/pkg/mem"
)

// MQTTConnectTimeout bounds the broker connection at startup.
var MQTTConnectTimeout = 3 * time.Second

// Board is the simulated hardware built from a Config.
type Board struct {
	Config     *Config
	Dispatcher *boot.Dispatcher
	RAM        *mem.RAM
	History    *diag.History
	// Publisher is nil without a broker.
	Publisher *diag.Publisher

	closers []io.Closer
}

// Build validates c and assembles the board. Jumper receives the entry
// point once an image is loaded.
func Build(c *Config, jumper boot.Jumper) (_ *Board, err error) {
	if err = Validate(c); err != nil {
		return nil, err
	}
	if jumper == nil {
		return nil, fmt.Errorf("no jumper")
	}
	b := &Board{
		Config:  c,
		RAM:     mem.NewRAM(c.Memory.RAMBase, c.Memory.RAMSize),
		History: diag.NewHistory(c.Diag.History),
	}
	defer func() {
		if err != nil {
			b.Close()
		}
	}()
	d := &boot.Dispatcher{
		Config:  c.BootConfig(),
		Drivers: make(map[boot.Method]boot.Driver),
		Region:  b.RAM,
	}
	b.Dispatcher = d

	if r := c.Rom; r != nil {
		w, err := loadWindow("rom", r.Base, r.File, 0)
		if err != nil {
			return nil, err
		}
		if overlaps(w.Span, b.RAM.Span) {
			return nil, fmt.Errorf("rom: window %s overlaps ram %s", w.Span, b.RAM.Span)
		}
		d.Windows = append(d.Windows, w)
		d.Drivers[boot.Rom] = rom.New(w)
	}
	if f := c.Flash; f != nil {
		w, err := loadWindow("flash", f.Base, f.File, f.Size)
		if err != nil {
			return nil, err
		}
		for _, other := range d.Windows {
			if overlaps(w.Span, other.Span) {
				return nil, fmt.Errorf("flash: window %s overlaps %s %s", w.Span, other.Name, other.Span)
			}
		}
		d.Windows = append(d.Windows, w)
		d.Drivers[boot.InternalFlash] = flash.New(w)
	}
	if s := c.SpiFlash; s != nil {
		f, err := os.Open(s.File)
		if err != nil {
			return nil, fmt.Errorf("spiflash: %w", err)
		}
		b.closers = append(b.closers, f)
		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("spiflash: %w", err)
		}
		drv := spiflash.New(f, info.Size(), s.Offset, c.loadAddr(s.LoadAddr))
		drv.PageSize = s.PageSize
		d.Drivers[boot.SpiFlash] = drv
	}
	if n := c.Net; n != nil {
		var fetcher netboot.Fetcher = netboot.DirFetcher(n.Dir)
		if n.URL != "" {
			fetcher = &netboot.HTTPFetcher{BaseURL: n.URL}
		}
		drv := netboot.New(fetcher, c.loadAddr(n.LoadAddr), int(c.Memory.RAMSize))
		if len(n.Files) > 0 {
			drv.Files = n.Files
		}
		drv.Timeout = n.Timeout
		d.Drivers[boot.Network] = drv
	}

	if dev := c.Serial.Device; dev != "" {
		if d.Channel, err = b.openChannel(dev, c.Serial.Baud); err != nil {
			return nil, fmt.Errorf("serial: %w", err)
		}
	}

	reporters := boot.Reporters{b.History}
	if c.Diag.MQTT != "" {
		board := c.Diag.Board
		if board == "" {
			board = diag.BoardID()
		}
		pub, err := diag.Dial(c.Diag.MQTT, board, MQTTConnectTimeout)
		if err != nil {
			glog.Warningf("boot events not published: %v", err)
		} else {
			b.Publisher = pub
			b.closers = append(b.closers, pub)
			reporters = append(reporters, pub)
		}
	}
	d.Reporter = reporters
	d.Jumper = &announcer{board: b, next: jumper}
	return b, nil
}

// Close releases files, ports and connections.
func (b *Board) Close() error {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i].Close()
	}
	b.closers = nil
	return nil
}

func (c *Config) loadAddr(addr *uint32) uint32 {
	if addr != nil {
		return *addr
	}
	return c.Memory.RAMBase
}

func (b *Board) openChannel(dev string, baud int) (channel.ByteChannel, error) {
	if strings.HasPrefix(dev, "ws://") {
		u, err := url.Parse(dev)
		if err != nil {
			return nil, err
		}
		path := u.Path
		if path == "" {
			path = "/"
		}
		srv, err := channel.ServeWebsocket(u.Host, path)
		if err != nil {
			return nil, err
		}
		glog.Infof("serial boot listening on ws://%s%s", srv.Addr, path)
		b.closers = append(b.closers, srv)
		return srv.Port(), nil
	}
	conf := channel.DefaultSerialConfig(dev)
	conf.BaudRate = baud
	st, err := channel.OpenSerial(conf)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, st)
	return st, nil
}

// loadWindow maps a file at base. A non-zero size pads the content with
// erased flash bytes.
func loadWindow(name string, base uint32, file string, size uint32) (*mem.Window, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if size > 0 {
		if uint64(len(data)) > uint64(size) {
			return nil, fmt.Errorf("%s: %s is larger than %d bytes", name, file, size)
		}
		padded := make([]byte, size)
		copy(padded, data)
		for n := len(data); n < len(padded); n++ {
			padded[n] = 0xff
		}
		data = padded
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %s is empty", name, file)
	}
	if uint64(base)+uint64(len(data)) > 1<<32 {
		return nil, fmt.Errorf("%s: %d bytes at %#08x exceed address space", name, len(data), base)
	}
	return mem.NewWindow(name, base, data), nil
}

// announcer publishes the handoff before passing control on.
type announcer struct {
	board *Board
	next  boot.Jumper
}

func (a *announcer) Jump(entry uint32) {
	if pub := a.board.Publisher; pub != nil {
		m := boot.Serial
		if ev, ok := a.board.History.Last(); ok {
			m = ev.Method
		}
		if err := pub.Handoff(m, entry); err != nil {
			glog.Warningf("publish handoff: %v", err)
		}
	}
	a.next.Jump(entry)
}
