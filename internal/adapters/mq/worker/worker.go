// Package worker drains the prediction log queue into a store.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/turnover/internal/adapters/mq/queue"
	"github.com/okian/turnover/internal/domain/model"
	"github.com/okian/turnover/pkg/logger"
	"github.com/okian/turnover/pkg/metrics"
)

const (
	defaultWorkerCount    = 2
	metricsUpdateInterval = 5 * time.Second
	defaultWriteTimeout   = 5 * time.Second
)

// Writer persists one prediction log.
type Writer interface {
	Save(ctx context.Context, log model.PredictionLog) error
}

// Queue defines how workers receive entries.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Entry
}

// Worker writes queued logs until the queue is closed and drained.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue        Queue
	writer       Writer
	name         string
	writeTimeout time.Duration
	onWritten    func()

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker reading from q and writing to w.
func NewInMemoryWorker(q Queue, w Writer, opts ...Option) *InMemoryWorker {
	wk := &InMemoryWorker{
		queue:        q,
		writer:       w,
		name:         "log-writer",
		writeTimeout: defaultWriteTimeout,
		shutdown:     make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(wk)
	}
	if wk.logger == nil {
		wk.logger = logger.Get().Named(wk.name)
	}
	return wk
}

// Run processes entries until the queue closes, ctx is cancelled or
// Shutdown is called.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	entries := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case e, ok := <-entries:
			if !ok {
				return
			}
			if err := w.process(ctx, e); err != nil {
				w.logger.Error(ctx, "prediction log not written",
					logger.String("log_id", e.Log.ID.String()),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker without draining and waits for it to return.
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

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, e queue.Entry) error { //nolint:gocritic // hugeParam: entries arrive by value
	metrics.RecordQueueDequeue()
	metrics.RecordQueueProcessingLatency(float64(time.Since(e.EnqueuedAt).Microseconds()) / 1000)

	// The write outlives a cancelled request but not the worker.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.writeTimeout)
	defer cancel()

	start := time.Now()
	err := w.writer.Save(wctx, e.Log)
	metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("save prediction log %s: %w", e.Log.ID, err)
	}
	if w.onWritten != nil {
		w.onWritten()
	}
	return nil
}

// Pool runs several workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	stop     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool

	processed         atomic.Int64
	lastProcessedTime time.Time

	logger logger.Logger
}

// NewPool creates a pool of workerCount writers.
func NewPool(workerCount int, q Queue, w Writer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	p := &Pool{
		workers:           make([]*InMemoryWorker, workerCount),
		queue:             q,
		stop:              make(chan struct{}),
		lastProcessedTime: time.Now(),
		logger:            logger.Get().Named("log-writer-pool"),
	}
	for i := range p.workers {
		workerOpts := append([]Option{
			WithName("log-writer-" + strconv.Itoa(i)),
			withOnWritten(func() { p.processed.Add(1) }),
		}, opts...)
		p.workers[i] = NewInMemoryWorker(q, w, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerIdleCount(workerCount)
	metrics.UpdateWorkerMessagesPerSecond(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of logs written since the pool started.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Start launches the workers and the metrics updater.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
	metrics.UpdateWorkerIdleCount(0)
	go p.runMetricsUpdater(ctx)
}

func (p *Pool) runMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	var last int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			now := time.Now()
			current := p.processed.Load()
			if elapsed := now.Sub(p.lastProcessedTime).Seconds(); elapsed > 0 {
				metrics.UpdateWorkerMessagesPerSecond(float64(current-last) / elapsed)
			}
			last = current
			p.lastProcessedTime = now
		}
	}
}

// Shutdown closes the queue, lets the workers drain what is left and waits
// for them until ctx expires. A pool that was never started only closes the
// queue. Workers still running at the deadline are
// stopped and their pending logs are lost.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	p.stopOnce.Do(func() { close(p.stop) })
	// Workers that never ran have nothing to wait for.
	if !p.started.Load() {
		return nil
	}

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-ctx.Done():
			timedOut = true
			p.logger.Warn(ctx, "log writer did not drain in time", logger.Int("worker_id", i))
			_ = w.Shutdown(context.Background())
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerIdleCount(len(p.workers))
	if timedOut {
		return fmt.Errorf("log writers shutdown: %w", ctx.Err())
	}
	return nil
}
