// Package latch turns raw press/release notifications into output edges,
// latching a control down after a quick double tap.
package latch

import (
	"time"

	"github.com/okian/droidpad/internal/domain/control"
	"github.com/okian/droidpad/internal/domain/model"
)

// DefaultThreshold is the double-tap window used when none is configured.
const DefaultThreshold = 200 * time.Millisecond

// Disabled as a threshold turns latching off; presses never enter Held.
const Disabled time.Duration = -1

// State is the output state of one digital control.
type State uint8

const (
	Released State = iota
	Pressed
	Held
)

func (s State) String() string {
	switch s {
	case Pressed:
		return "pressed"
	case Held:
		return "held"
	default:
		return "released"
	}
}

// Option applies a configuration option to the Latch.
type Option func(*Latch)

// WithThreshold sets the double-tap window. Any negative value disables latching.
func WithThreshold(d time.Duration) Option {
	return func(l *Latch) {
		if d < 0 {
			d = Disabled
		}
		l.threshold = d
	}
}

// WithRule sets the enrollment rule.
func WithRule(r Rule) Option {
	return func(l *Latch) {
		l.rule = r
	}
}

// WithClock replaces the time source. Tests use it to drive the window.
func WithClock(now func() time.Time) Option {
	return func(l *Latch) {
		if now != nil {
			l.now = now
		}
	}
}

// tracked holds the state and the last press instant of one control.
// Keeping both in one record means a control is tracked in both or neither.
type tracked struct {
	seen      bool
	state     State
	lastPress time.Time
}

// Latch is the per-session state machine. It is not safe for concurrent
// use; a session feeds it from a single goroutine.
type Latch struct {
	threshold time.Duration
	rule      Rule
	now       func() time.Time
	controls  [control.Count]tracked
}

// New creates a latch enrolling every digital control with DefaultThreshold.
func New(opts ...Option) *Latch {
	l := &Latch{
		threshold: DefaultThreshold,
		rule:      AllControls(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Threshold returns the configured window, or Disabled.
func (l *Latch) Threshold() time.Duration { return l.threshold }

// Rule returns the enrollment rule.
func (l *Latch) Rule() Rule { return l.rule }

// Feed consumes one edge for id and returns the edge to forward to the
// device. ok is false when the edge is swallowed.
func (l *Latch) Feed(id control.ID, edge model.Edge) (out model.Edge, ok bool) {
	if !l.rule.Enrolled(id) {
		return edge, true
	}

	c := &l.controls[id]
	now := l.now()

	if l.threshold < 0 {
		// plain taps: every edge passes, state only mirrors the last edge
		c.seen = true
		c.state = Released
		if edge == model.Press {
			c.state = Pressed
			c.lastPress = now
		}
		return edge, true
	}

	if !c.seen {
		// first sighting: nothing to compare the window against
		c.seen = true
		c.lastPress = now
		c.state = Released
		if edge == model.Press {
			c.state = Pressed
		}
		return edge, true
	}

	switch c.state {
	case Pressed:
		if edge == model.Release {
			c.state = Released
			return model.Release, true
		}
		return 0, false

	case Held:
		if edge == model.Press {
			c.state = Pressed
			return model.Press, true
		}
		return 0, false

	default: // Released
		if edge == model.Release {
			return 0, false
		}
		if l.threshold >= 0 && now.Sub(c.lastPress) < l.threshold {
			c.state = Held
			return model.Press, true
		}
		c.state = Pressed
		c.lastPress = now
		return model.Press, true
	}
}

// State returns the tracked state of id, Released when never seen.
func (l *Latch) State(id control.ID) State {
	if !id.Valid() {
		return Released
	}
	return l.controls[id].state
}

// Tracked reports whether id has been observed by the latch.
func (l *Latch) Tracked(id control.ID) bool {
	return id.Valid() && l.controls[id].seen
}

// HeldControls lists the controls currently latched down.
func (l *Latch) HeldControls() []control.ID {
	var ids []control.ID
	for i := range l.controls {
		if l.controls[i].state == Held {
			ids = append(ids, control.ID(i))
		}
	}
	return ids
}

// Reset forgets every tracked control.
func (l *Latch) Reset() {
	l.controls = [control.Count]tracked{}
}
