package queue

import "github.com/okian/mergington/pkg/logger"

// Option configures an InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity bounds the number of roster changes waiting for a worker.
// Non-positive values keep the default.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithLogger routes drop and close events to l.
func WithLogger(l logger.Logger) Option {
	return func(q *InMemoryQueue) {
		if l != nil {
			q.logger = l
		}
	}
}
