// Package worker drains roster changes from the queue into the journal.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/mergington/internal/adapters/mq/queue"
	"github.com/okian/mergington/pkg/logger"
	"github.com/okian/mergington/pkg/metrics"
)

const defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()

// Change is what workers read off the queue.
type Change = queue.Change

// Recorder persists processed changes.
type Recorder interface {
	Append(ctx context.Context, c Change)
}

// Source defines how workers receive changes.
type Source interface {
	Dequeue(ctx context.Context) <-chan Change
}

// InMemoryWorker processes changes until its source is closed or it is stopped.
type InMemoryWorker struct {
	source   Source
	recorder Recorder
	name     string
	now      func() time.Time

	stop <-chan struct{}
	done chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker. stop forces the worker to return
// without draining.
func NewInMemoryWorker(source Source, recorder Recorder, stop <-chan struct{}, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		source:   source,
		recorder: recorder,
		name:     "worker",
		now:      time.Now,
		stop:     stop,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Named(w.name)
	}
	return w
}

// Run consumes changes until the source channel is closed, stop fires or
// ctx is done.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	changes := w.source.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			w.process(ctx, c)
		}
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

func (w *InMemoryWorker) process(ctx context.Context, c Change) { //nolint:gocritic // hugeParam: passed by value for channel semantics
	w.recorder.Append(ctx, c)

	latency := float64(w.now().Sub(c.At).Microseconds()) / 1000
	metrics.RecordChangeProcessed(latency)
	w.logger.Debug(ctx, "roster change journaled",
		logger.String("id", c.ID),
		logger.Any("seq", c.Seq),
		logger.String("activity", c.Activity),
		logger.String("kind", string(c.Kind)),
	)
}

// Pool runs a fixed number of workers over one source.
type Pool struct {
	workers []*InMemoryWorker
	source  Source

	stop     chan struct{}
	stopOnce sync.Once

	logger logger.Logger
}

// NewPool creates workerCount workers. workerCount < 1 falls back to
// runtime.NumCPU() * 2.
func NewPool(workerCount int, source Source, recorder Recorder) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		source:  source,
		stop:    make(chan struct{}),
		logger:  logger.Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(source, recorder, p.stop,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the source (when it can be closed) so workers drain what is
// buffered, then waits for them. When ctx expires first the remaining
// workers are stopped without draining.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.source.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	var err error
	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			err = fmt.Errorf("worker pool shutdown: %w", ctx.Err())
		}
		if err != nil {
			break
		}
	}

	p.stopOnce.Do(func() { close(p.stop) })
	metrics.UpdateWorkerCount(0)
	return err
}
