package mem

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/biosboot/pkg/cli/sh"
)

const defaultReadLen = 64

var (
	// MemReadCmd dumps RAM.
	MemReadCmd = ishell.Cmd{
		Name: "mr",
		Help: "ADDR [LEN] dump memory",
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("address expected"))
				return
			}
			out, err := Dump(sh.ShellFrom(c), c.Args[0], c.Args[1:]...)
			if err != nil {
				c.Err(err)
				return
			}
			c.Print(out)
		},
	}

	// MemMapCmd lists the memory map.
	MemMapCmd = ishell.Cmd{
		Name: "memmap",
		Help: "list memory regions",
		Func: func(c *ishell.Context) {
			for _, line := range MemoryMap(sh.ShellFrom(c)) {
				c.Println(line)
			}
		},
	}
)

// Dump reads RAM at addr and formats it as a hex dump.
func Dump(s *sh.Shell, addr string, length ...string) (string, error) {
	start, err := sh.ParseAddr(addr)
	if err != nil {
		return "", err
	}
	n := defaultReadLen
	if len(length) > 0 {
		v, err := strconv.ParseUint(length[0], 0, 16)
		if err != nil || v == 0 {
			return "", fmt.Errorf("invalid length %q", length[0])
		}
		n = int(v)
	}
	data, err := s.Board.RAM.Read(start, n)
	if err != nil {
		return "", err
	}
	return hex.Dump(data), nil
}

// MemoryMap describes the RAM and in-place windows.
func MemoryMap(s *sh.Shell) []string {
	lines := []string{fmt.Sprintf("%-8s %s", "ram", s.Board.RAM.Span)}
	for _, w := range s.Board.Dispatcher.Windows {
		lines = append(lines, fmt.Sprintf("%-8s %s", w.Name, w.Span))
	}
	return lines
}

func init() {
	sh.AddCmds(
		&MemReadCmd,
		&MemMapCmd,
	)
}
