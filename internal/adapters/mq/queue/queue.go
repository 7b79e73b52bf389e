// Package queue carries decoded control events from a connection's read
// loop to the worker that applies them, one bounded FIFO per session.
package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/droidpad/internal/domain/model"
	"github.com/okian/droidpad/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 256
)

// Event represents the payload type flowing through the queue.
type Event = model.Event

// Queue is a bounded FIFO. Enqueue blocks while the queue is full so a
// slow device pushes back on the client instead of dropping edges.
type Queue interface {
	// Enqueue adds an event, waiting for room until ctx is done or the
	// queue is closed.
	Enqueue(ctx context.Context, e Event) error

	// Dequeue returns a channel that receives events in order. It is
	// closed when the queue is closed or ctx is done.
	Dequeue(ctx context.Context) <-chan Event

	// Len returns the current number of queued events.
	Len(ctx context.Context) int

	// Close stops the queue. Undelivered events are discarded.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	events   chan Event
	done     chan struct{}
	capacity int

	closeOnce sync.Once
	closed    atomic.Bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(q)
	}

	q.events = make(chan Event, q.capacity)
	return q
}

// Capacity returns the queue bound.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Enqueue adds an event to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e Event) error { //nolint:gocritic // hugeParam: Event must be passed by value for channel semantics
	if q.closed.Load() {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}

	select {
	case q.events <- e:
		return q.accepted()
	default:
	}

	start := time.Now()
	select {
	case q.events <- e:
		metrics.RecordErrorLatency("queue", "backpressure", float64(time.Since(start).Milliseconds()))
		return q.accepted()
	case <-q.done:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return ctx.Err()
	}
}

// accepted finishes a send. A send that raced with Close is reported as
// closed since nobody will dequeue it.
func (q *InMemoryQueue) accepted() error {
	if q.closed.Load() {
		metrics.RecordQueueEnqueueError()
		return ErrClosed
	}
	metrics.RecordQueueEnqueue()
	return nil
}

// Dequeue returns a channel that will receive events as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Event {
	out := make(chan Event)

	go func() {
		defer close(out)
		for {
			select {
			case <-q.done:
				return
			case <-ctx.Done():
				return
			case ev := <-q.events:
				metrics.RecordQueueDequeue()
				select {
				case out <- ev:
				case <-q.done:
					return
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// Len returns the current number of queued events.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	return len(q.events)
}

// Close stops the queue and discards what is left.
func (q *InMemoryQueue) Close() error {
	q.closeOnce.Do(func() {
		q.closed.Store(true)
		close(q.done)
		for n := 0; ; n++ {
			select {
			case <-q.events:
			default:
				metrics.RecordQueueDiscard(n)
				return
			}
		}
	})
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	return q.closed.Load()
}
