// Package service wires slots, devices, sessions and their workers
// together and answers the read side of the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/droidpad/internal/adapters/device"
	"github.com/okian/droidpad/internal/adapters/mq/queue"
	"github.com/okian/droidpad/internal/adapters/mq/worker"
	"github.com/okian/droidpad/internal/adapters/repository"
	"github.com/okian/droidpad/internal/domain/latch"
	"github.com/okian/droidpad/internal/domain/session"
	"github.com/okian/droidpad/internal/domain/slots"
	"github.com/okian/droidpad/internal/domain/types"
	"github.com/okian/droidpad/pkg/logger"
	"github.com/okian/droidpad/pkg/metrics"
)

const (
	defaultMaxDevices   = 16
	defaultQueueSize    = 256
	defaultCloseTimeout = 5 * time.Second
)

// DeviceOpener creates devices and names them.
type DeviceOpener interface {
	session.Opener
	Backend() string
	DeviceName(label string) string
}

// Service owns every live session.
type Service struct {
	mu sync.RWMutex

	// Core components
	pool     slots.Pool
	opener   DeviceOpener
	registry repository.Store
	workers  *worker.Pool
	clients  map[string]*Client

	// Configuration
	maxDevices   int
	queueSize    int
	threshold    time.Duration
	rule         latch.Rule
	closeTimeout time.Duration

	// State
	started   bool
	stopping  bool
	startedAt time.Time
	runCtx    context.Context
	cancel    context.CancelFunc

	opened atomic.Uint64
	closed atomic.Uint64
	failed atomic.Uint64

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		maxDevices:   defaultMaxDevices,
		queueSize:    defaultQueueSize,
		threshold:    latch.DefaultThreshold,
		rule:         latch.AllControls(),
		closeTimeout: defaultCloseTimeout,
		clients:      make(map[string]*Client),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the shared components. It is a no-op when already started.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.opener == nil {
		o, err := device.NewOpener(device.BackendMemory, device.WithLogger(s.logger.Named("device")))
		if err != nil {
			return fmt.Errorf("memory backend: %w", err)
		}
		s.opener = o
	}
	if s.pool == nil {
		s.pool = slots.NewInMemoryPool(slots.WithCapacity(s.maxDevices))
	}
	s.registry = repository.NewMemoryStore()
	s.workers = worker.NewPool(s.logger)
	s.runCtx, s.cancel = context.WithCancel(context.Background())
	s.startedAt = time.Now()
	s.stopping = false
	s.started = true

	metrics.UpdateSlotsCapacity(s.pool.Capacity())
	metrics.UpdateSlotsInUse(int(s.pool.InUse()))
	metrics.UpdateQueueCapacity(s.queueSize)

	s.logger.Info(ctx, "service started",
		logger.String("backend", s.opener.Backend()),
		logger.Int("max_devices", s.pool.Capacity()),
		logger.Int("queue_size", s.queueSize),
		logger.Duration("double_tap", s.threshold),
		logger.String("latch_controls", s.rule.String()),
	)
	return nil
}

// Stop closes every session and releases all slots.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started || s.stopping {
		s.mu.Unlock()
		return nil
	}
	s.stopping = true
	clients := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping service", logger.Int("sessions", len(clients)))

	var errs []error
	for _, c := range clients {
		if err := c.Close(ReasonShutdown); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.workers.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	s.mu.Lock()
	s.cancel()
	s.started = false
	s.mu.Unlock()

	s.logger.Info(ctx, "service stopped")
	return errors.Join(errs...)
}

// OpenSession creates the session for a client connected from remoteAddr
// and starts its worker.
func (s *Service) OpenSession(ctx context.Context, remoteAddr string) (*Client, error) {
	s.mu.RLock()
	started, stopping := s.started, s.stopping
	runCtx := s.runCtx
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}
	if stopping {
		return nil, ErrStopping
	}

	id := uuid.NewString()
	host := hostOf(remoteAddr)
	log := s.logger.Named("session").With(logger.String("remote", remoteAddr))

	sess, err := session.New(ctx, s.pool, s.opener, host,
		session.WithID(id),
		session.WithThreshold(s.threshold),
		session.WithRule(s.rule),
		session.WithLogger(log),
	)
	if err != nil {
		s.failed.Add(1)
		metrics.RecordErrorByComponent("service", "session_open")
		return nil, fmt.Errorf("open session for %s: %w", remoteAddr, err)
	}

	c := &Client{
		svc:     s,
		session: sess,
		queue:   queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize)),
		done:    make(chan struct{}),
		log:     log.With(logger.String("session", id)),
	}
	c.worker = worker.NewInMemoryWorker(c.queue, worker.HandlerFunc(sess.Handle),
		worker.WithName(id),
		worker.WithLogger(s.logger.Named("worker")),
		worker.WithOnStop(c.stopped),
	)

	entry := repository.Entry{
		ID:       id,
		Label:    s.opener.DeviceName(host),
		Remote:   remoteAddr,
		Slot:     sess.Slot(),
		Backend:  s.opener.Backend(),
		OpenedAt: sess.Opened(),
		Session:  sess,
	}
	if err := s.registry.Add(ctx, entry); err != nil {
		_ = sess.Close()
		return nil, fmt.Errorf("register session: %w", err)
	}

	s.mu.Lock()
	s.clients[id] = c
	s.mu.Unlock()

	if err := s.workers.Go(runCtx, c.worker); err != nil {
		_ = c.Close(ReasonShutdown)
		return nil, fmt.Errorf("start session worker: %w", err)
	}
	c.running.Store(true)

	s.opened.Add(1)
	metrics.RecordSessionOpened()
	metrics.UpdateSlotsInUse(int(s.pool.InUse()))
	return c, nil
}

// forget drops a closed client from the service.
func (s *Service) forget(ctx context.Context, c *Client) {
	s.mu.Lock()
	delete(s.clients, c.ID())
	s.mu.Unlock()

	if _, err := s.registry.Remove(ctx, c.ID()); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn(ctx, "unregister session", logger.String("session", c.ID()), logger.Error(err))
	}
	s.closed.Add(1)
	if c.session.Err() != nil {
		s.failed.Add(1)
	}
	metrics.UpdateSlotsInUse(int(s.pool.InUse()))
}

// Sessions lists up to limit live sessions, oldest first.
func (s *Service) Sessions(ctx context.Context, limit int) ([]types.SessionInfo, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	entries, err := s.registry.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	infos := make([]types.SessionInfo, len(entries))
	for i, e := range entries {
		infos[i] = infoOf(e)
	}
	return infos, nil
}

// Session returns one live session.
func (s *Service) Session(ctx context.Context, id string) (types.SessionInfo, error) {
	if !s.isStarted() {
		return types.SessionInfo{}, ErrNotStarted
	}
	e, err := s.registry.Get(ctx, id)
	if err != nil {
		return types.SessionInfo{}, fmt.Errorf("session %s: %w", id, err)
	}
	return infoOf(e), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":         s.started,
		"max_devices":     s.maxDevices,
		"queue_size":      s.queueSize,
		"double_tap_ms":   s.threshold.Milliseconds(),
		"latch_controls":  s.rule.String(),
		"sessions_opened": s.opened.Load(),
		"sessions_closed": s.closed.Load(),
		"sessions_failed": s.failed.Load(),
	}
	if !s.started {
		return stats
	}

	ctx := context.Background()
	inUse := int(s.pool.InUse())
	stats["backend"] = s.opener.Backend()
	stats["uptime_seconds"] = int64(time.Since(s.startedAt).Seconds())
	stats["sessions_active"] = s.registry.Count(ctx)
	stats["slots_capacity"] = s.pool.Capacity()
	stats["slots_in_use"] = inUse
	stats["workers"] = s.workers.Len()

	queued := 0
	for _, c := range s.clients {
		queued += c.queue.Len(ctx)
	}
	stats["queued_events"] = queued

	metrics.UpdateSlotsInUse(inUse)
	return stats
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func infoOf(e repository.Entry) types.SessionInfo {
	info := types.SessionInfo{
		ID:       e.ID,
		Label:    e.Label,
		Remote:   e.Remote,
		Slot:     e.Slot,
		Backend:  e.Backend,
		OpenedAt: e.OpenedAt,
	}
	if e.Session == nil {
		return info
	}
	st := e.Session.Stats()
	info.Threshold = e.Session.Threshold().String()
	if e.Session.Threshold() < 0 {
		info.Threshold = "disabled"
	}
	info.Received = st.Received
	info.Forwarded = st.Forwarded
	info.Swallowed = st.Swallowed
	info.Dropped = st.Dropped
	info.Frames = st.Frames
	info.Held = make([]string, len(st.Held))
	for i, id := range st.Held {
		info.Held[i] = id.Name()
	}
	info.Failed = e.Session.Err() != nil
	return info
}

func hostOf(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
