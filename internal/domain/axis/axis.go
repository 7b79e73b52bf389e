// Package axis maps analog stick samples onto a device's integer axis domain.
package axis

import "math"

// Normalize maps value from [-1, 1] onto [min, max].
//
// The result is rounded half away from zero (math.Round), so the centre of
// the symmetric uinput domain [-32768, 32767] lands on -1. When invert is
// set, -value is mapped instead. Values outside [-1, 1] are not clamped and
// may land outside [min, max]; results beyond the int32 range saturate and
// NaN maps to the centre sample (value 0).
func Normalize(value float64, min, max int32, invert bool) int32 {
	if math.IsNaN(value) {
		value = 0
	}
	if invert {
		value = -value
	}
	span := float64(int64(max) - int64(min))
	scaled := math.Round(((value+1.0)/2.0)*span + float64(min))
	switch {
	case scaled >= math.MaxInt32:
		return math.MaxInt32
	case scaled <= math.MinInt32:
		return math.MinInt32
	}
	return int32(scaled)
}

// Spec is the declared range of one device axis.
type Spec struct {
	Min    int32
	Max    int32
	Invert bool
}

// Normalize maps value onto the axis using Normalize.
func (s Spec) Normalize(value float64) int32 {
	return Normalize(value, s.Min, s.Max, s.Invert)
}

// Contains reports whether v lies within [Min, Max].
func (s Spec) Contains(v int32) bool {
	return v >= s.Min && v <= s.Max
}

// Clamp saturates v into [Min, Max].
func (s Spec) Clamp(v int32) int32 {
	if v < s.Min {
		return s.Min
	}
	if v > s.Max {
		return s.Max
	}
	return v
}
