package device

import "errors"

// Sentinel kinds for device errors.
var (
	ErrClosed      = errors.New("device closed")
	ErrUnsupported = errors.New("device backend not supported on this platform")
	ErrUnknown     = errors.New("unknown device backend")
	ErrControl     = errors.New("control not exposed by device")
	ErrValue       = errors.New("value does not fit control")
	ErrDriver      = errors.New("device driver unavailable")
	ErrShortWrite  = errors.New("short write to device")
)
