package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/droidpad/internal/adapters/mq/queue"
	"github.com/okian/droidpad/internal/adapters/mq/worker"
	"github.com/okian/droidpad/internal/domain/model"
	"github.com/okian/droidpad/internal/domain/session"
	"github.com/okian/droidpad/pkg/logger"
	"github.com/okian/droidpad/pkg/metrics"
)

// ReasonShutdown is the close reason used when the service stops.
const ReasonShutdown = "shutdown"

// Client is one open session together with its queue and worker.
type Client struct {
	svc     *Service
	session *session.Session
	queue   *queue.InMemoryQueue
	worker  *worker.InMemoryWorker
	running atomic.Bool

	done     chan struct{}
	doneOnce sync.Once

	closeOnce sync.Once
	closeErr  error

	log logger.Logger
}

// ID returns the session id.
func (c *Client) ID() string { return c.session.ID() }

// Session returns the underlying session.
func (c *Client) Session() *session.Session { return c.session }

// Enqueue queues ev for the session worker. It blocks while the queue is
// full and fails once the session stopped.
func (c *Client) Enqueue(ctx context.Context, ev model.Event) error {
	if err := c.queue.Enqueue(ctx, ev); err != nil {
		return fmt.Errorf("session %s: %w", c.ID(), err)
	}
	return nil
}

// Done is closed when the worker stopped, normally after a device failure.
func (c *Client) Done() <-chan struct{} { return c.done }

// stopped runs on the worker goroutine when it exits.
func (c *Client) stopped(err error) {
	_ = c.queue.Close()
	if err != nil {
		c.log.Error(context.Background(), "session failed", logger.Error(err))
	}
	c.doneOnce.Do(func() { close(c.done) })
}

// Close stops the worker, destroys the device and releases the slot. Later
// calls return the first result.
func (c *Client) Close(reason string) error {
	c.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.svc.closeTimeout)
		defer cancel()

		var errs []error
		_ = c.queue.Close()
		if c.running.Load() {
			if err := c.worker.Shutdown(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		if err := c.session.Close(); err != nil {
			errs = append(errs, err)
		}
		c.svc.forget(ctx, c)

		metrics.RecordSessionClosed(reason, time.Since(c.session.Opened()))
		c.closeErr = errors.Join(errs...)
	})
	return c.closeErr
}
