package slots

import "errors"

var (
	ErrExhausted   = errors.New("no free device slot")
	ErrNotAcquired = errors.New("device slot not acquired")
	ErrOutOfRange  = errors.New("device slot out of range")
)
