package worker

import (
	"time"

	"github.com/okian/turnover/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithWriteTimeout bounds a single store write.
func WithWriteTimeout(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d > 0 {
			w.writeTimeout = d
		}
	}
}

func withOnWritten(fn func()) Option {
	return func(w *InMemoryWorker) { w.onWritten = fn }
}
