package session

import (
	"context"
	"fmt"

	"github.com/okian/droidpad/internal/domain/axis"
	"github.com/okian/droidpad/internal/domain/control"
)

// Value is one encoded control state: a button level or an axis position
// already in the device's range.
type Value struct {
	axis    bool
	pressed bool
	level   int32
}

// ButtonValue encodes a digital state.
func ButtonValue(pressed bool) Value { return Value{pressed: pressed} }

// AxisValue encodes an axis position.
func AxisValue(level int32) Value { return Value{axis: true, level: level} }

func (v Value) IsAxis() bool  { return v.axis }
func (v Value) Pressed() bool { return v.pressed }
func (v Value) Level() int32  { return v.level }

func (v Value) String() string {
	if v.axis {
		return fmt.Sprintf("axis(%d)", v.level)
	}
	if v.pressed {
		return "pressed"
	}
	return "released"
}

// Sink is a virtual gamepad. Apply only changes a pending buffer;
// Synchronize publishes everything pending as one frame. A Synchronize
// with nothing pending must leave the device unchanged.
type Sink interface {
	Apply(id control.ID, v Value) error
	Synchronize() error
	// Axis reports the range and orientation the device declares for id.
	Axis(id control.ID) (axis.Spec, bool)
	Close() error
}

// Opener creates the device backing one session.
type Opener interface {
	Open(ctx context.Context, slot int, label string) (Sink, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, slot int, label string) (Sink, error)

func (f OpenerFunc) Open(ctx context.Context, slot int, label string) (Sink, error) {
	return f(ctx, slot, label)
}

// SlotPool is the shared device identity pool.
type SlotPool interface {
	Acquire(ctx context.Context) (int, error)
	Release(slot int) error
}
