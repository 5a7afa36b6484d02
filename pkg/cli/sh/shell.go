package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/biosboot/pkg/boot"
	"github.com/robotalks/biosboot/pkg/config"
)

// Shell provides the ishell backed BIOS console.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell *ishell.Shell
	Board *config.Board
	Ctx   context.Context
}

const (
	shellKey = "$shell"
	prompt   = "BIOS> "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&HistoryCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(board *config.Board) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell: ishell.New(),
		Board: board,
		Ctx:   context.Background(),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

func (s *Shell) context() context.Context {
	if s.Ctx != nil {
		return s.Ctx
	}
	return context.Background()
}

// Boot tries a single method and jumps to its image.
func (s *Shell) Boot(m boot.Method) error {
	return s.Board.Dispatcher.Boot(s.context(), m)
}

// BootWith tries a single method with its driver replaced.
func (s *Shell) BootWith(m boot.Method, drv boot.Driver) error {
	d := *s.Board.Dispatcher
	d.Drivers = make(map[boot.Method]boot.Driver, len(s.Board.Dispatcher.Drivers))
	for k, v := range s.Board.Dispatcher.Drivers {
		d.Drivers[k] = v
	}
	d.Drivers[m] = drv
	return d.Boot(s.context(), m)
}

// BootAll runs the whole configured sequence.
func (s *Shell) BootAll() error {
	return s.Board.Dispatcher.Run(s.context())
}

// HistoryLines formats the recorded boot events.
func (s *Shell) HistoryLines() []string {
	events := s.Board.History.Events()
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		lines = append(lines, FormatEvent(ev))
	}
	return lines
}

// FormatEvent prints an event into a friendly string for display.
func FormatEvent(ev boot.Event) string {
	if ev.OK() {
		return fmt.Sprintf("#%d %-8s ok, entry %#08x (%v)", ev.Round, ev.Method, ev.Entry, ev.Elapsed.Round(time.Millisecond))
	}
	msg := fmt.Sprintf("#%d %-8s %s (%v)", ev.Round, ev.Method, ev.Reason, ev.Elapsed.Round(time.Millisecond))
	if ev.Err != nil {
		msg += ": " + ev.Err.Error()
	}
	return msg
}

// ParseAddr parses an address in C notation, e.g. 0x40000000.
func ParseAddr(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return uint32(v), nil
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

type jsonEvent struct {
	Method  string `json:"method"`
	Round   int    `json:"round"`
	OK      bool   `json:"ok"`
	Entry   uint32 `json:"entry,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
	Elapsed string `json:"elapsed"`
}

var (
	// HistoryCmd prints the recorded boot attempts.
	HistoryCmd = ishell.Cmd{
		Name:    "history",
		Aliases: []string{"h"},
		Help:    "list boot attempts",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if s.OutputJSON {
				events := s.Board.History.Events()
				items := make([]jsonEvent, 0, len(events))
				for _, ev := range events {
					item := jsonEvent{
						Method:  ev.Method.String(),
						Round:   ev.Round,
						OK:      ev.OK(),
						Entry:   ev.Entry,
						Elapsed: ev.Elapsed.String(),
					}
					if !ev.OK() {
						item.Reason = ev.Reason.String()
					}
					if ev.Err != nil {
						item.Error = ev.Err.Error()
					}
					items = append(items, item)
				}
				out, err := json.Marshal(items)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			lines := s.HistoryLines()
			if len(lines) == 0 {
				c.Println("No boot attempts")
				return
			}
			for _, line := range lines {
				c.Println(line)
			}
		},
	}
)
