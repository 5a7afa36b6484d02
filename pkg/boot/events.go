package boot

import "time"

// Event records one attempted boot method.
type Event struct {
	Method  Method
	Round   int
	Entry   uint32
	Reason  Reason
	Err     error
	Elapsed time.Duration
}

// OK reports whether the method produced an image.
func (e Event) OK() bool {
	return e.Reason == ReasonNone
}

// Reporter receives boot events.
type Reporter interface {
	Report(Event)
}

// ReportFunc is the func form of Reporter.
type ReportFunc func(Event)

// Report implements Reporter.
func (f ReportFunc) Report(ev Event) {
	f(ev)
}

// Reporters fans events out to multiple reporters.
type Reporters []Reporter

// Report implements Reporter.
func (rs Reporters) Report(ev Event) {
	for _, r := range rs {
		if r != nil {
			r.Report(ev)
		}
	}
}
