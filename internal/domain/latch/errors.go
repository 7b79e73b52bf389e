package latch

import "errors"

// Sentinel kinds for latch configuration errors.
var (
	ErrBadRule = errors.New("invalid latch rule")
)
