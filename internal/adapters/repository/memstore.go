package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/okian/mergington/internal/domain/model"
)

// entry guards one activity. The check and the mutation of a roster happen
// under the same lock.
type entry struct {
	mu       sync.Mutex
	activity model.Activity
}

// MemoryStore is an in-memory Store. The set of activities is fixed at
// construction, so the name index is never written after NewMemoryStore and
// is read without locking.
type MemoryStore struct {
	entries map[string]*entry
	names   []string

	// seq is bumped while the activity lock is held, so receipts of one
	// activity are numbered in the order their mutations happened.
	seq atomic.Uint64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore copies seed into a new store. Seeds with empty names,
// negative capacity or duplicate emails within one roster are rejected.
func NewMemoryStore(_ context.Context, seed model.Directory) (*MemoryStore, error) {
	if len(seed) == 0 {
		return nil, fmt.Errorf("%w: no activities", ErrInvalidSeed)
	}

	s := &MemoryStore{
		entries: make(map[string]*entry, len(seed)),
		names:   make([]string, 0, len(seed)),
	}
	for name, a := range seed {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: empty activity name", ErrInvalidSeed)
		}
		if a.MaxParticipants < 0 {
			return nil, fmt.Errorf("%w: %q has negative max_participants", ErrInvalidSeed, name)
		}
		seen := make(map[string]struct{}, len(a.Participants))
		for _, email := range a.Participants {
			if _, dup := seen[email]; dup {
				return nil, fmt.Errorf("%w: %q lists %s twice", ErrInvalidSeed, name, email)
			}
			seen[email] = struct{}{}
		}
		s.entries[name] = &entry{activity: a.Clone()}
		s.names = append(s.names, name)
	}
	sort.Strings(s.names)
	return s, nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context) (model.Directory, error) {
	out := make(model.Directory, len(s.entries))
	for _, name := range s.names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e := s.entries[name]
		e.mu.Lock()
		out[name] = e.activity.Clone()
		e.mu.Unlock()
	}
	return out, nil
}

// Signup implements Store.
func (s *MemoryStore) Signup(_ context.Context, name, email string) (Receipt, error) {
	e, ok := s.entries[name]
	if !ok {
		return Receipt{}, ErrActivityNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.activity.Has(email) {
		return Receipt{}, ErrAlreadyRegistered
	}
	e.activity.Participants = append(e.activity.Participants, email)
	return Receipt{Activity: name, Email: email, Participants: len(e.activity.Participants), Seq: s.seq.Add(1)}, nil
}

// Unregister implements Store.
func (s *MemoryStore) Unregister(_ context.Context, name, email string) (Receipt, error) {
	e, ok := s.entries[name]
	if !ok {
		return Receipt{}, ErrActivityNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	i := slices.Index(e.activity.Participants, email)
	if i < 0 {
		return Receipt{}, ErrNotRegistered
	}
	e.activity.Participants = slices.Delete(e.activity.Participants, i, i+1)
	return Receipt{Activity: name, Email: email, Participants: len(e.activity.Participants), Seq: s.seq.Add(1)}, nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	return len(s.entries)
}

// Participants implements Store.
func (s *MemoryStore) Participants(_ context.Context) int {
	total := 0
	for _, e := range s.entries {
		e.mu.Lock()
		total += len(e.activity.Participants)
		e.mu.Unlock()
	}
	return total
}
