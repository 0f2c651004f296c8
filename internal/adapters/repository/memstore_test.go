package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/okian/mergington/internal/domain/model"
)

func testSeed() model.Directory {
	return model.Directory{
		"Chess Club": {
			Description:     "Learn strategies and compete in chess tournaments",
			Schedule:        "Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 12,
			Participants:    []string{"michael@mergington.edu", "daniel@mergington.edu"},
		},
		"Programming Class": {
			Description:     "Learn programming fundamentals and build software projects",
			Schedule:        "Tuesdays and Thursdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 20,
			Participants:    []string{"emma@mergington.edu"},
		},
		"Art Club": {
			Description:     "Explore painting, drawing and sculpture",
			Schedule:        "Thursdays, 3:30 PM - 5:00 PM",
			MaxParticipants: 15,
		},
	}
}

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	s, err := NewMemoryStore(context.Background(), testSeed())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

// activity reads one activity back through List.
func activity(t *testing.T, s *MemoryStore, name string) model.Activity {
	t.Helper()
	dir, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, ok := dir[name]
	if !ok {
		t.Fatalf("activity %q not listed", name)
	}
	return a
}

func TestMemoryStore_List(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	dir, err := store.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dir) != 3 {
		t.Fatalf("expected 3 activities, got %d", len(dir))
	}
	chess, ok := dir["Chess Club"]
	if !ok {
		t.Fatal("expected Chess Club in listing")
	}
	if chess.MaxParticipants != 12 || chess.Schedule != "Fridays, 3:30 PM - 5:00 PM" {
		t.Errorf("unexpected metadata: %+v", chess)
	}
	if art := dir["Art Club"]; art.Participants == nil {
		t.Error("expected empty roster to be a non-nil slice")
	}

	// Mutating the listing must not leak into the store.
	chess.Participants[0] = "mallory@mergington.edu"
	dir["Chess Club"] = chess
	again := activity(t, store, "Chess Club")
	if again.Participants[0] != "michael@mergington.edu" {
		t.Errorf("listing shares roster memory with store: %v", again.Participants)
	}
}

func TestMemoryStore_ListCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestStore(t).List(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMemoryStore_Signup(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	r, err := store.Signup(ctx, "Chess Club", "test@mergington.edu")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Activity != "Chess Club" || r.Email != "test@mergington.edu" || r.Participants != 3 {
		t.Errorf("unexpected receipt: %+v", r)
	}

	a := activity(t, store, "Chess Club")
	want := []string{"michael@mergington.edu", "daniel@mergington.edu", "test@mergington.edu"}
	if !slices.Equal(a.Participants, want) {
		t.Errorf("expected %v, got %v", want, a.Participants)
	}
}

func TestMemoryStore_SignupDuplicate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.Signup(ctx, "Programming Class", "duplicate@mergington.edu"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Signup(ctx, "Programming Class", "duplicate@mergington.edu"); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}

	a := activity(t, store, "Programming Class")
	n := 0
	for _, p := range a.Participants {
		if p == "duplicate@mergington.edu" {
			n++
		}
	}
	if n != 1 {
		t.Errorf("expected email exactly once, found %d times", n)
	}
}

func TestMemoryStore_UnknownActivity(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, name := range []string{"NonexistentClub", "chess club", "Chess Club ", ""} {
		if _, err := store.Signup(ctx, name, "test@mergington.edu"); !errors.Is(err, ErrActivityNotFound) {
			t.Errorf("signup %q: expected ErrActivityNotFound, got %v", name, err)
		}
		if _, err := store.Unregister(ctx, name, "test@mergington.edu"); !errors.Is(err, ErrActivityNotFound) {
			t.Errorf("unregister %q: expected ErrActivityNotFound, got %v", name, err)
		}
	}
}

func TestMemoryStore_Unregister(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.Signup(ctx, "Art Club", "unregister@mergington.edu"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, err := store.Unregister(ctx, "Art Club", "unregister@mergington.edu")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Participants != 0 {
		t.Errorf("expected empty roster, got %d", r.Participants)
	}

	dir, _ := store.List(ctx)
	if dir["Art Club"].Has("unregister@mergington.edu") {
		t.Error("expected email to be removed")
	}

	if _, err := store.Unregister(ctx, "Art Club", "unregister@mergington.edu"); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("expected ErrNotRegistered, got %v", err)
	}
}

func TestMemoryStore_UnregisterKeepsOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, e := range []string{"a@mergington.edu", "b@mergington.edu", "c@mergington.edu"} {
		if _, err := store.Signup(ctx, "Art Club", e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := store.Unregister(ctx, "Art Club", "b@mergington.edu"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := activity(t, store, "Art Club")
	if want := []string{"a@mergington.edu", "c@mergington.edu"}; !slices.Equal(a.Participants, want) {
		t.Errorf("expected %v, got %v", want, a.Participants)
	}
}

func TestMemoryStore_Counts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if got := store.Count(ctx); got != 3 {
		t.Errorf("expected 3 activities, got %d", got)
	}
	if got := store.Participants(ctx); got != 3 {
		t.Errorf("expected 3 participants, got %d", got)
	}
}

func TestNewMemoryStore_InvalidSeed(t *testing.T) {
	ctx := context.Background()
	cases := map[string]model.Directory{
		"empty":          {},
		"blank name":     {" ": {}},
		"negative max":   {"Chess Club": {MaxParticipants: -1}},
		"duplicate mail": {"Chess Club": {Participants: []string{"x@mergington.edu", "x@mergington.edu"}}},
	}
	for name, seed := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewMemoryStore(ctx, seed); !errors.Is(err, ErrInvalidSeed) {
				t.Errorf("expected ErrInvalidSeed, got %v", err)
			}
		})
	}
}

func TestMemoryStore_SeedIsCopied(t *testing.T) {
	seed := testSeed()
	store, err := NewMemoryStore(context.Background(), seed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seed["Chess Club"].Participants[0] = "changed@mergington.edu"

	a := activity(t, store, "Chess Club")
	if a.Participants[0] != "michael@mergington.edu" {
		t.Errorf("store aliases the seed roster: %v", a.Participants)
	}
}

func TestMemoryStore_ConcurrentSameEmail(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	numGoroutines := 50

	var wg sync.WaitGroup
	var succeeded, rejected atomic.Int64
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Signup(ctx, "Chess Club", "race@mergington.edu")
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, ErrAlreadyRegistered):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded.Load() != 1 {
		t.Errorf("expected exactly one successful signup, got %d", succeeded.Load())
	}
	if rejected.Load() != int64(numGoroutines-1) {
		t.Errorf("expected %d rejections, got %d", numGoroutines-1, rejected.Load())
	}
}

func TestMemoryStore_ConcurrentDistinctEmails(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	numGoroutines := 10
	perGoroutine := 100

	var wg sync.WaitGroup
	for g := 0; g < numGoroutines; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				email := fmt.Sprintf("student%d_%d@mergington.edu", id, j)
				if _, err := store.Signup(ctx, "Art Club", email); err != nil {
					t.Errorf("goroutine %d: unexpected error: %v", id, err)
				}
				if j%2 == 0 {
					if _, err := store.Unregister(ctx, "Art Club", email); err != nil {
						t.Errorf("goroutine %d: unexpected error: %v", id, err)
					}
				}
			}
		}(g)
	}

	// Readers run alongside the writers.
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := store.List(ctx); err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	a := activity(t, store, "Art Club")
	if want := numGoroutines * perGoroutine / 2; len(a.Participants) != want {
		t.Errorf("expected %d participants, got %d", want, len(a.Participants))
	}
}

func TestMemoryStore_ReceiptSequence(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first, err := store.Signup(ctx, "Art Club", "seq@mergington.edu")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Signup(ctx, "Art Club", "seq@mergington.edu"); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
	second, err := store.Unregister(ctx, "Art Club", "seq@mergington.edu")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Seq != 1 || second.Seq != 2 {
		t.Errorf("expected sequence 1 then 2, got %d then %d", first.Seq, second.Seq)
	}
}

func TestMemoryStore_ConcurrentSequenceIsUnique(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	numGoroutines := 8
	perGoroutine := 200

	var mu sync.Mutex
	seen := make(map[uint64]struct{}, numGoroutines*perGoroutine*2)
	var wg sync.WaitGroup
	for g := 0; g < numGoroutines; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				email := fmt.Sprintf("s%d_%d@mergington.edu", id, j)
				in, err := store.Signup(ctx, "Art Club", email)
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				out, err := store.Unregister(ctx, "Art Club", email)
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				if out.Seq <= in.Seq {
					t.Errorf("unregister seq %d not after signup seq %d", out.Seq, in.Seq)
				}
				mu.Lock()
				seen[in.Seq] = struct{}{}
				seen[out.Seq] = struct{}{}
				mu.Unlock()
			}
		}(g)
	}
	wg.Wait()

	if want := numGoroutines * perGoroutine * 2; len(seen) != want {
		t.Errorf("expected %d distinct sequence numbers, got %d", want, len(seen))
	}
}
