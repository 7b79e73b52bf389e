// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/droidpad/internal/domain/control"
)

// Edge is a press or release notification for a digital control.
type Edge uint8

const (
	Release Edge = iota
	Press
)

func (e Edge) String() string {
	if e == Press {
		return "press"
	}
	return "release"
}

// Kind discriminates the two event shapes.
type Kind uint8

const (
	Digital Kind = iota
	Analog
)

func (k Kind) String() string {
	if k == Analog {
		return "analog"
	}
	return "digital"
}

// Event is a decoded, already validated client event.
// Digital events use Control and Edge; analog events use Stick, X and Y.
type Event struct {
	Kind    Kind
	Control control.ID    // digital only
	Edge    Edge          // digital only
	Stick   control.Stick // analog only
	X       float64       // analog only, nominally [-1, 1]
	Y       float64       // analog only, nominally [-1, 1]
	TS      time.Time     // receive time
}

// DigitalEvent builds a press/release event for id.
func DigitalEvent(id control.ID, edge Edge) Event {
	return Event{Kind: Digital, Control: id, Edge: edge, TS: time.Now()}
}

// AnalogEvent builds a stick sample. Out-of-range components are kept as is.
func AnalogEvent(stick control.Stick, x, y float64) Event {
	return Event{Kind: Analog, Stick: stick, X: x, Y: y, TS: time.Now()}
}
