package device

import (
	"github.com/okian/droidpad/internal/domain/axis"
	"github.com/okian/droidpad/internal/domain/control"
)

// Linux input event types and codes (linux/input-event-codes.h).
const (
	evSyn = 0x00
	evKey = 0x01
	evAbs = 0x03

	synReport = 0

	btnSouth     = 0x130
	btnEast      = 0x131
	btnNorth     = 0x133
	btnWest      = 0x134
	btnTL        = 0x136
	btnTR        = 0x137
	btnTL2       = 0x138
	btnTR2       = 0x139
	btnSelect    = 0x13a
	btnStart     = 0x13b
	btnThumbL    = 0x13d
	btnThumbR    = 0x13e
	btnDPadUp    = 0x220
	btnDPadDown  = 0x221
	btnDPadLeft  = 0x222
	btnDPadRight = 0x223

	absX  = 0x00
	absY  = 0x01
	absRX = 0x03
	absRY = 0x04
)

// Identity the virtual pad reports to the host: an Xbox 360 pad on the
// virtual bus, which most games map without extra configuration.
const (
	busVirtual     = 0x06
	vendorXbox     = 0x045e
	productXbox    = 0x028e
	productVersion = 1
)

// evdev maps a control to its Linux event type and code.
type evdev struct {
	typ  uint16
	code uint16
}

var evdevCodes = [control.Count]evdev{
	control.A:            {evKey, btnSouth},
	control.B:            {evKey, btnEast},
	control.X:            {evKey, btnWest},
	control.Y:            {evKey, btnNorth},
	control.Start:        {evKey, btnStart},
	control.Select:       {evKey, btnSelect},
	control.TriggerLeft:  {evKey, btnTL2},
	control.BumperLeft:   {evKey, btnTL},
	control.TriggerRight: {evKey, btnTR2},
	control.BumperRight:  {evKey, btnTR},
	control.ThumbLeft:    {evKey, btnThumbL},
	control.ThumbRight:   {evKey, btnThumbR},
	control.DPadUp:       {evKey, btnDPadUp},
	control.DPadDown:     {evKey, btnDPadDown},
	control.DPadLeft:     {evKey, btnDPadLeft},
	control.DPadRight:    {evKey, btnDPadRight},
	control.LeftStickX:   {evAbs, absX},
	control.LeftStickY:   {evAbs, absY},
	control.RightStickX:  {evAbs, absRX},
	control.RightStickY:  {evAbs, absRY},
}

// uinputAxes is the signed 16-bit layout. Stick Y grows downwards on evdev.
var uinputAxes = map[control.ID]axis.Spec{
	control.LeftStickX:  {Min: -32768, Max: 32767},
	control.LeftStickY:  {Min: -32768, Max: 32767, Invert: true},
	control.RightStickX: {Min: -32768, Max: 32767},
	control.RightStickY: {Min: -32768, Max: 32767, Invert: true},
}

// vJoy numbers buttons from one and axes as HID usages X, Y, Z, RX.
var vjoyButtons = [control.Count]uint8{
	control.A:            1,
	control.B:            2,
	control.X:            3,
	control.Y:            4,
	control.BumperLeft:   5,
	control.BumperRight:  6,
	control.TriggerLeft:  7,
	control.TriggerRight: 8,
	control.Select:       9,
	control.Start:        10,
	control.ThumbLeft:    11,
	control.ThumbRight:   12,
	control.DPadUp:       13,
	control.DPadDown:     14,
	control.DPadLeft:     15,
	control.DPadRight:    16,
}

// vjoyAxisMax is the top of vJoy's 15-bit axis range.
const vjoyAxisMax = 32767

var vjoyAxes = map[control.ID]axis.Spec{
	control.LeftStickX:  {Min: 0, Max: vjoyAxisMax},
	control.LeftStickY:  {Min: 0, Max: vjoyAxisMax, Invert: true},
	control.RightStickX: {Min: 0, Max: vjoyAxisMax},
	control.RightStickY: {Min: 0, Max: vjoyAxisMax, Invert: true},
}

// Layout is the axis table a backend declares.
type Layout int

const (
	LayoutUinput Layout = iota
	LayoutVJoy
)

func (l Layout) axes() map[control.ID]axis.Spec {
	if l == LayoutVJoy {
		return vjoyAxes
	}
	return uinputAxes
}

func (l Layout) String() string {
	if l == LayoutVJoy {
		return "vjoy"
	}
	return "uinput"
}
