// Package worker drains a session queue into its handler, one event at a
// time, and tracks the running workers of all sessions.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/droidpad/internal/adapters/mq/queue"
	"github.com/okian/droidpad/internal/domain/model"
	"github.com/okian/droidpad/pkg/logger"
	"github.com/okian/droidpad/pkg/metrics"
)

// Default worker configuration constants.
const (
	poolShutdownTimeout = 10 * time.Second
)

// Event abstracts what workers read off the queue.
type Event = model.Event

// Handler applies one event. A non-nil error is fatal: the worker stops
// and reports it.
type Handler interface {
	Handle(ctx context.Context, e Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, e Event) error

func (f HandlerFunc) Handle(ctx context.Context, e Event) error { return f(ctx, e) }

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes events from one queue in order.
type Worker interface {
	// Run processes events until the queue closes, ctx is done, Shutdown
	// is called or the handler fails. It returns the handler error.
	Run(ctx context.Context) error

	// Shutdown stops the worker and waits for Run to return.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	handler Handler
	name    string
	onStop  func(err error)

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}
	err          error

	processed uint64

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, h Handler, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		handler:  h,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named("worker")
	}
	w.logger = w.logger.With(logger.String("worker", w.name))

	return w
}

// Name returns the worker name.
func (w *InMemoryWorker) Name() string { return w.name }

// Done is closed when Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Err returns the error Run stopped with. Valid after Done is closed.
func (w *InMemoryWorker) Err() error {
	select {
	case <-w.done:
		return w.err
	default:
		return nil
	}
}

// Processed returns how many events were handled. Valid after Done is closed.
func (w *InMemoryWorker) Processed() uint64 {
	select {
	case <-w.done:
		return w.processed
	default:
		return 0
	}
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) error {
	metrics.UpdateWorkerCount(1)
	defer func() {
		metrics.UpdateWorkerCount(-1)
		if w.onStop != nil {
			w.onStop(w.err)
		}
		close(w.done)
	}()

	// the dequeue goroutine must not outlive Run
	dctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := w.queue.Dequeue(dctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.shutdown:
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := w.processEvent(ctx, event); err != nil {
				w.err = err
				return err
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processEvent handles a single event.
func (w *InMemoryWorker) processEvent(ctx context.Context, event queue.Event) error { //nolint:gocritic // hugeParam: Event must be passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if err := w.handler.Handle(ctx, event); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "handler_error")
		metrics.RecordErrorByType("handler_error", "high")
		w.logger.Error(ctx, "event handling failed, stopping worker",
			logger.String("kind", event.Kind.String()),
			logger.Error(err),
		)
		return fmt.Errorf("%s: %w", w.name, err)
	}
	w.processed++
	return nil
}

// Pool tracks the running workers of all sessions.
type Pool struct {
	mu      sync.Mutex
	workers map[string]*InMemoryWorker
	wg      sync.WaitGroup
	closed  bool

	logger logger.Logger
}

// NewPool creates an empty worker pool.
func NewPool(l logger.Logger) *Pool {
	if l == nil {
		l = logger.Get()
	}
	return &Pool{
		workers: make(map[string]*InMemoryWorker),
		logger:  l.Named("worker-pool"),
	}
}

// Go starts w under its name. Names must be unique among running workers.
func (p *Pool) Go(ctx context.Context, w *InMemoryWorker) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrStopped
	}
	if _, exists := p.workers[w.name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, w.name)
	}
	p.workers[w.name] = w
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()
		_ = w.Run(ctx)

		p.mu.Lock()
		delete(p.workers, w.name)
		p.mu.Unlock()
	}()
	return nil
}

// Len returns the number of running workers.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// Shutdown stops every worker and waits for them, bounded by ctx and
// poolShutdownTimeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	workers := make([]*InMemoryWorker, 0, len(p.workers))
	for _, w := range p.workers {
		workers = append(workers, w)
	}
	p.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for _, w := range workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.String("worker", w.name))
		}
	}

	waited := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
		return nil
	case <-shutdownCtx.Done():
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
}
