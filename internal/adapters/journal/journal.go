// Package journal keeps the most recent roster changes in memory.
package journal

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/okian/mergington/internal/domain/model"
	"github.com/okian/mergington/pkg/metrics"
)

const defaultCapacity = 1024

// Journal is a bounded log of roster changes kept in Seq order. Workers may
// append out of order; the journal sorts on the way in.
type Journal struct {
	mu       sync.RWMutex
	entries  []model.RosterChange // ascending Seq
	capacity int
	total    int64
}

// New creates a journal holding at most capacity changes.
func New(capacity int) *Journal {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Journal{
		entries:  make([]model.RosterChange, 0, capacity),
		capacity: capacity,
	}
}

// Append stores c in Seq order. When full, the change with the lowest Seq
// is evicted, which may be c itself. Equal Seq values keep append order.
func (j *Journal) Append(_ context.Context, c model.RosterChange) { //nolint:gocritic // hugeParam
	j.mu.Lock()
	defer j.mu.Unlock()

	j.total++
	i := sort.Search(len(j.entries), func(k int) bool { return j.entries[k].Seq > c.Seq })
	if len(j.entries) == j.capacity {
		if i == 0 {
			return
		}
		j.entries = slices.Delete(j.entries, 0, 1)
		i--
	}
	j.entries = slices.Insert(j.entries, i, c)
	metrics.UpdateJournalEntries(len(j.entries))
}

// Recent returns up to n changes, newest first. n <= 0 returns everything held.
func (j *Journal) Recent(_ context.Context, n int) []model.RosterChange {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if n <= 0 || n > len(j.entries) {
		n = len(j.entries)
	}
	out := make([]model.RosterChange, 0, n)
	for i := len(j.entries) - 1; i >= len(j.entries)-n; i-- {
		out = append(out, j.entries[i])
	}
	return out
}

// Len returns the number of changes currently held.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}

// Total returns how many changes were ever appended.
func (j *Journal) Total() int64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.total
}

// Cap returns the journal capacity.
func (j *Journal) Cap() int {
	return j.capacity
}
