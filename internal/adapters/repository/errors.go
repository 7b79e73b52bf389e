package repository

import "errors"

// Sentinel kinds for registry errors.
var (
	ErrNotFound     = errors.New("session not found")
	ErrDuplicate    = errors.New("session already registered")
	ErrInvalidLimit = errors.New("invalid session list limit")
	ErrInvalidEntry = errors.New("invalid session entry")
)
