package testevents

import "errors"

var (
	ErrInvalidURL       = errors.New("invalid url")
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrUnhealthy        = errors.New("bridge unhealthy")
	ErrVerification     = errors.New("verification failed")
)
