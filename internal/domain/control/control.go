// Package control is the fixed catalog of every input the virtual gamepad exposes.
package control

// ID identifies one controllable input. IDs are dense from zero so callers
// can index per-control state with an array of length Count.
type ID uint8

// Digital controls.
const (
	A ID = iota
	B
	X
	Y
	Start
	Select
	TriggerLeft
	BumperLeft
	TriggerRight
	BumperRight
	ThumbLeft
	ThumbRight
	DPadUp
	DPadDown
	DPadLeft
	DPadRight

	// Analog axes.
	LeftStickX
	LeftStickY
	RightStickX
	RightStickY

	// Count is the number of catalog entries.
	Count
)

// Kind tells digital buttons apart from analog axes.
type Kind uint8

const (
	Digital Kind = iota
	Axis
)

// Stick names one of the two analog sticks.
type Stick uint8

const (
	LeftStick Stick = iota
	RightStick
)

type entry struct {
	name string
	kind Kind
}

var catalog = [Count]entry{
	A:            {"a", Digital},
	B:            {"b", Digital},
	X:            {"x", Digital},
	Y:            {"y", Digital},
	Start:        {"start", Digital},
	Select:       {"select", Digital},
	TriggerLeft:  {"trigger_left", Digital},
	BumperLeft:   {"bumper_left", Digital},
	TriggerRight: {"trigger_right", Digital},
	BumperRight:  {"bumper_right", Digital},
	ThumbLeft:    {"thumb_left", Digital},
	ThumbRight:   {"thumb_right", Digital},
	DPadUp:       {"dpad_up", Digital},
	DPadDown:     {"dpad_down", Digital},
	DPadLeft:     {"dpad_left", Digital},
	DPadRight:    {"dpad_right", Digital},
	LeftStickX:   {"left_stick_x", Axis},
	LeftStickY:   {"left_stick_y", Axis},
	RightStickX:  {"right_stick_x", Axis},
	RightStickY:  {"right_stick_y", Axis},
}

// Valid reports whether id is part of the catalog.
func (id ID) Valid() bool { return id < Count }

// Name returns the canonical lowercase name, or "unknown".
func (id ID) Name() string {
	if !id.Valid() {
		return "unknown"
	}
	return catalog[id].name
}

func (id ID) String() string { return id.Name() }

// Kind returns the control kind. Unknown ids report Digital; check Valid first.
func (id ID) Kind() Kind {
	if !id.Valid() {
		return Digital
	}
	return catalog[id].kind
}

// IsDigital reports whether id is a known button or d-pad direction.
func (id ID) IsDigital() bool { return id.Valid() && catalog[id].kind == Digital }

// IsAxis reports whether id is a known analog axis.
func (id ID) IsAxis() bool { return id.Valid() && catalog[id].kind == Axis }

// ByName looks up a control by canonical name.
func ByName(name string) (ID, bool) {
	for i := range catalog {
		if catalog[i].name == name {
			return ID(i), true
		}
	}
	return 0, false
}

// All returns every catalog id in order.
func All() []ID {
	ids := make([]ID, Count)
	for i := range ids {
		ids[i] = ID(i)
	}
	return ids
}

// Digitals returns the digital controls in catalog order.
func Digitals() []ID {
	ids := make([]ID, 0, Count)
	for _, id := range All() {
		if id.IsDigital() {
			ids = append(ids, id)
		}
	}
	return ids
}

// Valid reports whether s is a known stick.
func (s Stick) Valid() bool { return s == LeftStick || s == RightStick }

// XAxis returns the horizontal axis of the stick.
func (s Stick) XAxis() ID {
	if s == RightStick {
		return RightStickX
	}
	return LeftStickX
}

// YAxis returns the vertical axis of the stick.
func (s Stick) YAxis() ID {
	if s == RightStick {
		return RightStickY
	}
	return LeftStickY
}

func (s Stick) String() string {
	switch s {
	case LeftStick:
		return "left"
	case RightStick:
		return "right"
	default:
		return "unknown"
	}
}
