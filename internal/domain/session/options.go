package session

import (
	"time"

	"github.com/okian/droidpad/internal/domain/latch"
	"github.com/okian/droidpad/pkg/logger"
)

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithID sets the session identifier used in logs and the registry.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// WithThreshold sets the double-tap window; latch.Disabled turns latching off.
func WithThreshold(d time.Duration) Option {
	return func(s *Session) {
		s.latchOpts = append(s.latchOpts, latch.WithThreshold(d))
	}
}

// WithRule sets which controls take part in latching.
func WithRule(r latch.Rule) Option {
	return func(s *Session) {
		s.latchOpts = append(s.latchOpts, latch.WithRule(r))
	}
}

// WithClock replaces the time source of the latch.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
			s.latchOpts = append(s.latchOpts, latch.WithClock(now))
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}
