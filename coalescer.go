package remoaircon

import (
	"sync"
	"time"

	"github.com/kmaehashi/homebridge-nature-remo-cloud-aircon/remo"
)

// settleDelay is how long set-requests are accumulated before one write
// goes out. Companion apps re-send the full panel state when opened, so
// bursts of near-simultaneous sets are the common case.
const settleDelay = 100 * time.Millisecond

// paramFields maps a set-request parameter name to the field of the
// settings snapshot it is compared against for change detection.
var paramFields = map[string]func(*remo.AirConParams) string{
	"temperature":    func(s *remo.AirConParams) string { return s.Temp },
	"operation_mode": func(s *remo.AirConParams) string { return s.Mode },
	"air_volume":     func(s *remo.AirConParams) string { return s.Vol },
	"air_direction":  func(s *remo.AirConParams) string { return s.Dir },
	"button":         func(s *remo.AirConParams) string { return s.Button },
}

// batch accumulates parameters while a coalescing window is open. Every
// caller merged into the same batch shares the outcome of its single
// dispatch. armed is set once any merged call actually required a write.
type batch struct {
	params map[string]string
	armed  bool
	done   chan struct{}
	err    error
}

// coalescer folds concurrent set-requests into one settings write per
// debounce window and keeps at most one write in flight.
type coalescer struct {
	mu        sync.Mutex
	pending   *batch
	scheduled bool
	inflight  bool

	delay         time.Duration
	skipUnchanged bool

	// settings returns the last known snapshot for change detection and
	// the button default; send performs the write and applies the result.
	settings func() *remo.AirConParams
	send     func(params map[string]string) error
}

func newCoalescer(delay time.Duration, skipUnchanged bool, settings func() *remo.AirConParams, send func(map[string]string) error) *coalescer {
	return &coalescer{
		delay:         delay,
		skipUnchanged: skipUnchanged,
		settings:      settings,
		send:          send,
	}
}

// requestChange merges params into the open batch and blocks until that
// batch settles. When the fully merged batch would change nothing and
// skip-unchanged is on, it completes immediately without opening or
// extending a dispatch window.
func (c *coalescer) requestChange(params map[string]string) error {
	c.mu.Lock()
	b := c.pending
	if b == nil {
		b = &batch{params: make(map[string]string), done: make(chan struct{})}
		c.pending = b
	}
	for k, v := range params {
		b.params[k] = v
	}

	if c.skipUnchanged && !c.changed(b.params) {
		c.mu.Unlock()
		return nil
	}

	b.armed = true
	if !c.scheduled && !c.inflight {
		c.scheduled = true
		time.AfterFunc(c.delay, c.dispatch)
	}
	c.mu.Unlock()

	<-b.done
	return b.err
}

// changed reports whether any key of the merged batch differs from the
// corresponding field of the last known settings. Unknown keys and the
// absence of a snapshot both count as a change.
func (c *coalescer) changed(params map[string]string) bool {
	last := c.settings()
	if last == nil {
		return true
	}
	for k, v := range params {
		field, ok := paramFields[k]
		if !ok {
			return true
		}
		if field(last) != v {
			return true
		}
	}
	return false
}

func (c *coalescer) dispatch() {
	c.mu.Lock()
	b := c.pending
	// clear before the write starts so late merges open a fresh batch
	c.pending = nil
	c.scheduled = false
	if b == nil {
		c.mu.Unlock()
		return
	}
	c.inflight = true
	c.mu.Unlock()

	// merge the current button state first so an unspecified button does
	// not implicitly power the unit off
	params := map[string]string{"button": ""}
	if last := c.settings(); last != nil {
		params["button"] = last.Button
	}
	for k, v := range b.params {
		params[k] = v
	}

	b.err = c.send(params)
	close(b.done)

	c.mu.Lock()
	c.inflight = false
	// requests that arrived while the write was in flight start their
	// own window now
	if c.pending != nil && c.pending.armed && !c.scheduled {
		c.scheduled = true
		time.AfterFunc(c.delay, c.dispatch)
	}
	c.mu.Unlock()
}
