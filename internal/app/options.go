package service

import (
	"time"

	"github.com/okian/droidpad/internal/domain/latch"
	"github.com/okian/droidpad/internal/domain/slots"
	"github.com/okian/droidpad/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxDevices bounds how many sessions may hold a device at once.
func WithMaxDevices(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxDevices = n
		}
	}
}

// WithSlotPool replaces the slot pool built at Start.
func WithSlotPool(p slots.Pool) Option {
	return func(s *Service) {
		if p != nil {
			s.pool = p
		}
	}
}

// WithOpener sets how devices are created. The memory backend is used
// when none is given.
func WithOpener(o DeviceOpener) Option {
	return func(s *Service) {
		if o != nil {
			s.opener = o
		}
	}
}

// WithThreshold sets the double-tap threshold of new sessions. A negative
// value disables latching.
func WithThreshold(d time.Duration) Option {
	return func(s *Service) {
		s.threshold = d
	}
}

// WithRule sets which controls new sessions latch.
func WithRule(r latch.Rule) Option {
	return func(s *Service) {
		s.rule = r
	}
}

// WithQueueSize sets the per-session event queue bound.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithCloseTimeout bounds how long closing one session may wait for its
// worker.
func WithCloseTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.closeTimeout = d
		}
	}
}
