// Package queue carries roster changes from the service to the journal workers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/mergington/internal/domain/model"
	"github.com/okian/mergington/pkg/logger"
	"github.com/okian/mergington/pkg/metrics"
)

const defaultCapacity = 10_000

// Change is the payload flowing through the queue.
type Change = model.RosterChange

// Queue provides non-blocking enqueue and channel-based dequeue.
type Queue interface {
	// Enqueue adds c. It returns false when the queue is full, closed, or ctx is done.
	Enqueue(ctx context.Context, c Change) bool

	// Dequeue returns the receive side shared by all consumers. It is closed
	// by Close once drained.
	Dequeue(ctx context.Context) <-chan Change

	// Len returns the number of queued changes.
	Len(ctx context.Context) int

	// Close stops accepting changes.
	Close() error
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	changes  chan Change
	capacity int

	mu     sync.RWMutex
	closed bool

	logger logger.Logger
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a queue configured by opts.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	if q.logger == nil {
		q.logger = logger.Named("change-queue")
	}
	q.changes = make(chan Change, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue implements Queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, c Change) bool { //nolint:gocritic // hugeParam: passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed || ctx.Err() != nil {
		q.drop(ctx, c, "closed")
		return false
	}

	select {
	case q.changes <- c:
		metrics.UpdateQueueSize(len(q.changes))
		return true
	default:
		q.drop(ctx, c, "full")
		return false
	}
}

func (q *InMemoryQueue) drop(ctx context.Context, c Change, why string) { //nolint:gocritic // hugeParam
	metrics.RecordQueueDropped()
	q.logger.Debug(ctx, "roster change dropped",
		logger.String("id", c.ID),
		logger.String("activity", c.Activity),
		logger.String("reason", why),
	)
}

// Dequeue implements Queue.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Change {
	return q.changes
}

// Len implements Queue.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.changes)
}

// Close implements Queue. Buffered changes stay readable until drained.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.changes)
	q.closed = true
	q.logger.Debug(context.Background(), "change queue closed", logger.Int("pending", len(q.changes)))
	return nil
}
