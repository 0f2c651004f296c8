// Package model contains domain models passed between layers.
package model

import "slices"

// Activity is an extracurricular offering with its participant roster.
// Participants holds unique emails in signup order.
type Activity struct {
	Description     string   `json:"description" koanf:"description"`
	Schedule        string   `json:"schedule" koanf:"schedule"`
	MaxParticipants int      `json:"max_participants" koanf:"max_participants"`
	Participants    []string `json:"participants" koanf:"participants"`
}

// Clone returns a deep copy so callers never share the roster slice.
func (a Activity) Clone() Activity {
	c := a
	c.Participants = slices.Clone(a.Participants)
	if c.Participants == nil {
		c.Participants = []string{}
	}
	return c
}

// Has reports whether email is on the roster.
func (a Activity) Has(email string) bool {
	return slices.Contains(a.Participants, email)
}

// Directory maps activity name to activity.
type Directory map[string]Activity

// Clone deep-copies every activity.
func (d Directory) Clone() Directory {
	out := make(Directory, len(d))
	for name, a := range d {
		out[name] = a.Clone()
	}
	return out
}

// Confirmation is returned by successful signup and unregister calls.
type Confirmation struct {
	Activity string
	Email    string
}
