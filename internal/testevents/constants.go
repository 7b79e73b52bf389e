package testevents

import "time"

// Wire vocabulary.
const (
	typeButton   = "BUTTON"
	typeDpad     = "DPAD"
	typeJoystick = "JOYSTICK"
	statePress   = "PRESS"
	stateRelease = "RELEASE"
)

// Controls the script exercises. The latched name is what /sessions
// reports in its held list.
const (
	tapButton       = "A"
	doubleTapButton = "B"
	latchedName     = "b"
	dpadButton      = "UP"
	sweepStick      = "left"
)

// Runner configuration constants.
const (
	DefaultClients       = 4
	DefaultSamples       = 16
	DefaultTapGap        = 30 * time.Millisecond
	DefaultTimeout       = 5 * time.Second
	DefaultSettleTimeout = 10 * time.Second
	PollInterval         = 50 * time.Millisecond
	PercentageMultiplier = 100
)
