package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/okian/droidpad/internal/domain/control"
	"github.com/okian/droidpad/internal/domain/model"
)

// Message types as sent by clients. Both spellings are accepted.
const (
	TypeDpad     = "dpad"
	TypeJoystick = "joystick"
	TypeButton   = "button"
)

var messageTypes = map[string]string{
	"DPAD": TypeDpad, "Dpad": TypeDpad,
	"JOYSTICK": TypeJoystick, "Joystick": TypeJoystick,
	"BUTTON": TypeButton, "Button": TypeButton,
}

var edges = map[string]model.Edge{
	"PRESS": model.Press, "Press": model.Press,
	"RELEASE": model.Release, "Release": model.Release,
}

var dpadButtons = map[string]control.ID{
	"UP":    control.DPadUp,
	"DOWN":  control.DPadDown,
	"LEFT":  control.DPadLeft,
	"RIGHT": control.DPadRight,
}

var buttons = map[string]control.ID{
	"A":     control.A,
	"B":     control.B,
	"X":     control.X,
	"Y":     control.Y,
	"lb":    control.BumperLeft,
	"lt":    control.TriggerLeft,
	"rb":    control.BumperRight,
	"rt":    control.TriggerRight,
	"start": control.Start,
	"back":  control.Select,
	"l3":    control.ThumbLeft,
	"r3":    control.ThumbRight,
}

var sticks = map[string]control.Stick{
	"left":  control.LeftStick,
	"right": control.RightStick,
}

type message struct {
	Type   string   `json:"type"`
	ID     *string  `json:"id"`
	Button *string  `json:"button"`
	State  *string  `json:"state"`
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
}

// Decoded is the result of decoding one text frame.
type Decoded struct {
	// Type is the normalized message type.
	Type string
	// Event is valid when Known is true.
	Event model.Event
	// Known is false for well-formed messages naming a control outside
	// the catalog. Those are ignored.
	Known bool
}

// Decode parses one client message received at ts. Malformed JSON,
// unknown types and missing or invalid fields return an error.
func Decode(raw []byte, ts time.Time) (Decoded, error) {
	var m message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Decoded{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	typ, ok := messageTypes[m.Type]
	if !ok {
		return Decoded{}, fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}
	d := Decoded{Type: typ}

	switch typ {
	case TypeDpad:
		if m.ID == nil || m.Button == nil {
			return d, fmt.Errorf("%w: dpad needs id and button", ErrMalformed)
		}
		edge, err := decodeState(m.State)
		if err != nil {
			return d, err
		}
		if id, ok := dpadButtons[*m.Button]; ok {
			d.Event = model.Event{Kind: model.Digital, Control: id, Edge: edge, TS: ts}
			d.Known = true
		}

	case TypeButton:
		if m.ID == nil {
			return d, fmt.Errorf("%w: button needs id", ErrMalformed)
		}
		edge, err := decodeState(m.State)
		if err != nil {
			return d, err
		}
		if id, ok := buttons[*m.ID]; ok {
			d.Event = model.Event{Kind: model.Digital, Control: id, Edge: edge, TS: ts}
			d.Known = true
		}

	case TypeJoystick:
		if m.ID == nil || m.X == nil || m.Y == nil {
			return d, fmt.Errorf("%w: joystick needs id, x and y", ErrMalformed)
		}
		if s, ok := sticks[*m.ID]; ok {
			d.Event = model.Event{Kind: model.Analog, Stick: s, X: *m.X, Y: *m.Y, TS: ts}
			d.Known = true
		}
	}
	return d, nil
}

func decodeState(s *string) (model.Edge, error) {
	if s == nil {
		return model.Release, fmt.Errorf("%w: missing state", ErrMalformed)
	}
	e, ok := edges[*s]
	if !ok {
		return model.Release, fmt.Errorf("%w: state %q", ErrMalformed, *s)
	}
	return e, nil
}
