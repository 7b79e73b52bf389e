// Package session drives one client's virtual gamepad: it owns the tap
// latch and the device, and turns each control event into one frame.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/droidpad/internal/domain/control"
	"github.com/okian/droidpad/internal/domain/latch"
	"github.com/okian/droidpad/internal/domain/model"
	"github.com/okian/droidpad/pkg/logger"
	"github.com/okian/droidpad/pkg/metrics"
)

// Drop reasons for events that never reach the device.
const (
	dropUnknownControl = "unknown_control"
	dropUnknownStick   = "unknown_stick"
	dropUnknownKind    = "unknown_kind"
	dropNoAxis         = "axis_not_exposed"
)

// Stats is a snapshot of a session's counters.
type Stats struct {
	Received  uint64
	Forwarded uint64
	Swallowed uint64
	Dropped   uint64
	Frames    uint64
	Held      []control.ID
}

// Session is one connected client. Handle must be called from a single
// goroutine; Close and the accessors are safe from any goroutine.
type Session struct {
	id     string
	label  string
	slot   int
	opened time.Time

	pool  SlotPool
	sink  Sink
	latch *latch.Latch

	latchOpts []latch.Option
	now       func() time.Time
	log       logger.Logger

	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool
	fatal     atomic.Pointer[error]

	received  atomic.Uint64
	forwarded atomic.Uint64
	swallowed atomic.Uint64
	dropped   atomic.Uint64
	frames    atomic.Uint64
	held      atomic.Pointer[[]control.ID]
}

// New takes a slot from pool, opens the device labelled label on it and
// returns a ready session. On failure nothing is left allocated.
func New(ctx context.Context, pool SlotPool, opener Opener, label string, opts ...Option) (*Session, error) {
	s := &Session{
		id:    label,
		label: label,
		pool:  pool,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get()
	}
	s.log = s.log.With(logger.String("session", s.id))

	slot, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSlot, err)
	}

	sink, err := opener.Open(ctx, slot, label)
	if err != nil {
		if rerr := pool.Release(slot); rerr != nil {
			s.log.Warn(ctx, "release slot after failed open", logger.Int("slot", slot), logger.Error(rerr))
		}
		metrics.RecordDeviceError(OpOpen)
		return nil, &SinkError{Op: OpOpen, Err: err}
	}

	s.slot = slot
	s.sink = sink
	s.latch = latch.New(s.latchOpts...)
	s.opened = s.now()

	s.log.Info(ctx, "session opened",
		logger.Int("slot", slot),
		logger.String("label", label),
		logger.Duration("threshold", s.latch.Threshold()),
		logger.String("latch_rule", s.latch.Rule().String()),
	)
	return s, nil
}

func (s *Session) ID() string               { return s.id }
func (s *Session) Label() string            { return s.label }
func (s *Session) Slot() int                { return s.slot }
func (s *Session) Opened() time.Time        { return s.opened }
func (s *Session) Closed() bool             { return s.closed.Load() }
func (s *Session) Threshold() time.Duration { return s.latch.Threshold() }

// Err returns the fatal device error that ended the session, if any.
func (s *Session) Err() error {
	if p := s.fatal.Load(); p != nil {
		return *p
	}
	return nil
}

// Handle routes one event to the device and publishes it as one frame.
// Events naming controls outside the catalog are dropped silently. A
// returned error is a *SinkError and the session must be closed.
func (s *Session) Handle(ctx context.Context, ev model.Event) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.Err(); err != nil {
		return err
	}
	s.received.Add(1)

	switch ev.Kind {
	case model.Digital:
		return s.handleDigital(ctx, ev)
	case model.Analog:
		return s.handleAnalog(ctx, ev)
	default:
		s.drop(ctx, ev, dropUnknownKind)
		return nil
	}
}

func (s *Session) handleDigital(ctx context.Context, ev model.Event) error {
	if !ev.Control.IsDigital() {
		s.drop(ctx, ev, dropUnknownControl)
		return nil
	}
	metrics.RecordEventReceived("digital")

	before := s.latch.State(ev.Control)
	out, ok := s.latch.Feed(ev.Control, ev.Edge)
	after := s.latch.State(ev.Control)

	if after == latch.Held && before != latch.Held {
		metrics.RecordLatchEngaged()
		s.log.Debug(ctx, "control latched", logger.String("control", ev.Control.Name()))
	}
	if before == latch.Held || after == latch.Held {
		held := s.latch.HeldControls()
		s.held.Store(&held)
	}

	if ok {
		if err := s.apply(ev.Control, ButtonValue(out == model.Press)); err != nil {
			return s.fail(ctx, err)
		}
		s.forwarded.Add(1)
		metrics.RecordEventForwarded("digital")
	} else {
		s.swallowed.Add(1)
		metrics.RecordEventSwallowed()
	}

	return s.synchronize(ctx)
}

func (s *Session) handleAnalog(ctx context.Context, ev model.Event) error {
	if !ev.Stick.Valid() {
		s.drop(ctx, ev, dropUnknownStick)
		return nil
	}
	metrics.RecordEventReceived("analog")

	pairs := [2]struct {
		id control.ID
		v  float64
	}{
		{ev.Stick.XAxis(), ev.X},
		{ev.Stick.YAxis(), ev.Y},
	}
	applied := false
	for _, p := range pairs {
		spec, ok := s.sink.Axis(p.id)
		if !ok {
			metrics.RecordEventDropped(dropNoAxis)
			continue
		}
		if err := s.apply(p.id, AxisValue(spec.Clamp(spec.Normalize(p.v)))); err != nil {
			return s.fail(ctx, err)
		}
		applied = true
	}
	if applied {
		s.forwarded.Add(1)
		metrics.RecordEventForwarded("analog")
	}

	return s.synchronize(ctx)
}

func (s *Session) apply(id control.ID, v Value) error {
	if err := s.sink.Apply(id, v); err != nil {
		metrics.RecordDeviceError(OpApply)
		return &SinkError{Op: OpApply, Control: id, Err: err}
	}
	return nil
}

func (s *Session) synchronize(ctx context.Context) error {
	start := time.Now()
	if err := s.sink.Synchronize(); err != nil {
		metrics.RecordDeviceError(OpSync)
		return s.fail(ctx, &SinkError{Op: OpSync, Err: err})
	}
	s.frames.Add(1)
	metrics.RecordDeviceSync(float64(time.Since(start).Microseconds()) / 1000.0)
	return nil
}

func (s *Session) drop(ctx context.Context, ev model.Event, reason string) {
	s.dropped.Add(1)
	metrics.RecordEventDropped(reason)
	s.log.Debug(ctx, "event dropped",
		logger.String("reason", reason),
		logger.String("kind", ev.Kind.String()),
		logger.Int("control", int(ev.Control)),
	)
}

func (s *Session) fail(ctx context.Context, err error) error {
	s.fatal.CompareAndSwap(nil, &err)
	s.log.Error(ctx, "device failure, session will close", logger.Int("slot", s.slot), logger.Error(err))
	return err
}

// Stats returns the session counters.
func (s *Session) Stats() Stats {
	st := Stats{
		Received:  s.received.Load(),
		Forwarded: s.forwarded.Load(),
		Swallowed: s.swallowed.Load(),
		Dropped:   s.dropped.Load(),
		Frames:    s.frames.Load(),
	}
	if p := s.held.Load(); p != nil {
		st.Held = append([]control.ID(nil), (*p)...)
	}
	return st
}

// Close destroys the device and returns the slot to the pool. It is
// idempotent; later calls return the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		ctx := context.Background()

		var errs []error
		if err := s.sink.Close(); err != nil {
			metrics.RecordDeviceError(OpClose)
			errs = append(errs, &SinkError{Op: OpClose, Err: err})
		}
		if err := s.pool.Release(s.slot); err != nil {
			errs = append(errs, fmt.Errorf("release slot %d: %w", s.slot, err))
		}
		s.latch.Reset()
		s.held.Store(nil)
		s.closeErr = errors.Join(errs...)

		s.log.Info(ctx, "session closed",
			logger.Int("slot", s.slot),
			logger.Duration("lifetime", s.now().Sub(s.opened)),
			logger.Int64("frames", int64(s.frames.Load())),
		)
	})
	return s.closeErr
}
