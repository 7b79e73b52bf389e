package testevents

import (
	"context"
	"crypto/rand"
	"math"
	"math/big"

	"github.com/okian/droidpad/pkg/logger"
)

// Constants for stick sample generation.
const (
	randomFloatDivisor = 1000000
	minSweepRadius     = 0.5
	sweepRadiusRange   = 0.5
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

func button(id, state string) Frame {
	return Frame{Type: typeButton, ID: id, State: state}
}

func dpad(dir, state string) Frame {
	return Frame{Type: typeDpad, ID: "dpad", Button: dir, State: state}
}

func joystick(id string, x, y float64) Frame {
	return Frame{Type: typeJoystick, ID: id, X: &x, Y: &y}
}

// buildScript lays out a single tap, a double tap, a d-pad tap and one
// stick sweep ending centred. Every control is pressed for the first
// time here, so only the double tap can latch.
func buildScript(ctx context.Context, config *Config) Script {
	gap := config.TapGap
	steps := []Step{
		{Frame: button(tapButton, statePress), Pause: gap},
		{Frame: button(tapButton, stateRelease), Pause: gap},

		{Frame: button(doubleTapButton, statePress), Pause: gap},
		{Frame: button(doubleTapButton, stateRelease), Pause: gap},
		{Frame: button(doubleTapButton, statePress), Pause: gap},
		{Frame: button(doubleTapButton, stateRelease), Pause: gap},

		{Frame: dpad(dpadButton, statePress), Pause: gap},
		{Frame: dpad(dpadButton, stateRelease), Pause: gap},
	}

	samples := max(config.Samples, 1)
	for i := range samples {
		angle := 2 * math.Pi * float64(i) / float64(samples)
		r := minSweepRadius + sweepRadiusRange*getRandomFloat()
		steps = append(steps, Step{Frame: joystick(sweepStick, r*math.Cos(angle), r*math.Sin(angle))})
	}
	steps = append(steps, Step{Frame: joystick(sweepStick, 0, 0)})

	script := Script{Steps: steps, Held: []string{}}
	if config.ExpectLatch {
		script.Held = append(script.Held, latchedName)
	}

	logger.Get().Info(ctx, "script generated",
		logger.Int("frames", len(steps)),
		logger.Int("samples", samples),
		logger.Any("held", script.Held))
	return script
}
