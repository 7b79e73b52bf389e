//go:build !linux

package device

import (
	"github.com/okian/droidpad/internal/domain/axis"
	"github.com/okian/droidpad/internal/domain/control"
	"github.com/okian/droidpad/internal/domain/session"
)

// Uinput only exists on Linux.
type Uinput struct{}

func openUinput(string, int, string) (*Uinput, error) { return nil, ErrUnsupported }

func (*Uinput) Apply(control.ID, session.Value) error { return ErrUnsupported }
func (*Uinput) Synchronize() error                    { return ErrUnsupported }
func (*Uinput) Axis(control.ID) (axis.Spec, bool)     { return axis.Spec{}, false }
func (*Uinput) Close() error                          { return ErrUnsupported }

func uinputSupported() bool { return false }
