// Package repository defines the activity directory store and its errors.
package repository

import (
	"context"

	"github.com/okian/mergington/internal/domain/model"
)

// Receipt describes a successful roster mutation.
type Receipt struct {
	Activity     string
	Email        string
	Participants int    // roster size after the mutation
	Seq          uint64 // store-wide order of the mutation, starting at 1
}

// Store provides read/write access to the activity directory.
type Store interface {
	// List returns a deep copy of every activity keyed by name.
	List(ctx context.Context) (model.Directory, error)

	// Signup appends email to the roster of name.
	// Returns ErrActivityNotFound or ErrAlreadyRegistered.
	Signup(ctx context.Context, name, email string) (Receipt, error)

	// Unregister removes email from the roster of name.
	// Returns ErrActivityNotFound or ErrNotRegistered.
	Unregister(ctx context.Context, name, email string) (Receipt, error)

	// Count returns the number of activities.
	Count(ctx context.Context) int

	// Participants returns the number of roster entries across activities.
	Participants(ctx context.Context) int
}
