//go:build !windows

package device

import (
	"github.com/okian/droidpad/internal/domain/axis"
	"github.com/okian/droidpad/internal/domain/control"
	"github.com/okian/droidpad/internal/domain/session"
)

// VJoy only exists on Windows.
type VJoy struct{}

func openVJoy(string, int, string) (*VJoy, error) { return nil, ErrUnsupported }

func (*VJoy) Apply(control.ID, session.Value) error { return ErrUnsupported }
func (*VJoy) Synchronize() error                    { return ErrUnsupported }
func (*VJoy) Axis(control.ID) (axis.Spec, bool)     { return axis.Spec{}, false }
func (*VJoy) Close() error                          { return ErrUnsupported }

func vjoySupported() bool { return false }
