package repository

import "errors"

// Sentinel kinds for roster errors. Together with a nil error they form the
// complete outcome set of Signup and Unregister.
var (
	ErrActivityNotFound  = errors.New("activity not found")
	ErrAlreadyRegistered = errors.New("already signed up")
	ErrNotRegistered     = errors.New("not registered")
	ErrInvalidSeed       = errors.New("invalid activity seed")
)
