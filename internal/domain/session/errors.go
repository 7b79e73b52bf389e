package session

import (
	"errors"
	"fmt"

	"github.com/okian/droidpad/internal/domain/control"
)

// Sentinel kinds for session errors.
var (
	ErrSink   = errors.New("virtual device failure")
	ErrClosed = errors.New("session closed")
	ErrSlot   = errors.New("device slot unavailable")
)

// Sink operations reported in SinkError.Op.
const (
	OpOpen  = "open"
	OpApply = "apply"
	OpSync  = "sync"
	OpClose = "close"
)

// SinkError is a device failure. It is fatal to the session that hit it.
type SinkError struct {
	Op      string
	Control control.ID
	Err     error
}

func (e *SinkError) Error() string {
	if e.Op == OpApply {
		return fmt.Sprintf("device %s %s: %v", e.Op, e.Control, e.Err)
	}
	return fmt.Sprintf("device %s: %v", e.Op, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

// Is matches ErrSink so callers can test the kind without a type assertion.
func (e *SinkError) Is(target error) bool { return target == ErrSink }
