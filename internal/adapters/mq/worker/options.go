package worker

import (
	"github.com/okian/droidpad/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithOnStop registers a callback run once Run has returned, with the
// error it stopped on (nil for a clean stop). It runs before Done closes.
func WithOnStop(fn func(err error)) Option {
	return func(w *InMemoryWorker) {
		w.onStop = fn
	}
}
