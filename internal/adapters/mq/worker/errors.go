package worker

import "errors"

// Sentinel kinds for worker errors.
var (
	ErrStopped   = errors.New("worker pool stopped")
	ErrDuplicate = errors.New("worker already running")
)
