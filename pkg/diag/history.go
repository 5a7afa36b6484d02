package diag

import (
	"sync"

	"github.com/robotalks/biosboot/pkg/boot"
)

// DefaultHistorySize is the number of events History keeps by default.
const DefaultHistorySize = 64

// History keeps the most recent boot events in memory. The zero value
// keeps DefaultHistorySize events.
type History struct {
	Size int

	lock   sync.RWMutex
	events []boot.Event
	next   int
}

// NewHistory creates a History keeping up to size events.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{Size: size}
}

// Report implements boot.Reporter.
func (h *History) Report(ev boot.Event) {
	h.lock.Lock()
	defer h.lock.Unlock()
	size := h.Size
	if size <= 0 {
		size = DefaultHistorySize
	}
	if len(h.events) < size {
		h.events = append(h.events, ev)
		return
	}
	h.events[h.next] = ev
	h.next = (h.next + 1) % size
}

// Events returns the recorded events, oldest first.
func (h *History) Events() []boot.Event {
	h.lock.RLock()
	defer h.lock.RUnlock()
	evs := make([]boot.Event, 0, len(h.events))
	evs = append(evs, h.events[h.next:]...)
	return append(evs, h.events[:h.next]...)
}

// Last returns the last recorded event.
func (h *History) Last() (boot.Event, bool) {
	h.lock.RLock()
	defer h.lock.RUnlock()
	if len(h.events) == 0 {
		return boot.Event{}, false
	}
	n := h.next - 1
	if n < 0 {
		n = len(h.events) - 1
	}
	return h.events[n], true
}
