package model

import "time"

// ChangeKind tells which roster transition happened.
type ChangeKind string

const (
	ChangeSignup     ChangeKind = "signup"
	ChangeUnregister ChangeKind = "unregister"
)

// RosterChange records one successful roster mutation. Seq orders changes
// the way the store applied them; At is only a timestamp.
type RosterChange struct {
	ID       string     `json:"id"`
	Seq      uint64     `json:"seq"`
	Activity string     `json:"activity"`
	Email    string     `json:"email"`
	Kind     ChangeKind `json:"kind"`
	At       time.Time  `json:"at"`
}
