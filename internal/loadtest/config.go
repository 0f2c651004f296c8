// Package loadtest drives concurrent roster traffic against a running
// activities service and verifies the rosters it leaves behind.
package loadtest

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL        string        // Base URL of the service
	Students       int           // Distinct students to sign up
	Workers        int           // Concurrent requests in flight
	Timeout        time.Duration // HTTP request timeout
	DuplicateRate  float64       // Share of signups sent twice
	UnregisterRate float64       // Share of students unregistered afterwards
	Seed           uint64        // Seed for the operation plan; 0 picks one
	Verbose        bool          // Log every failed expectation
}

// Stats holds run statistics.
type Stats struct {
	Requests   int
	OK         int // 200
	BadRequest int // 400, duplicate signup or unknown registration
	NotFound   int // 404
	Other      int
	Violations int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

// activity mirrors one value of GET /activities.
type activity struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}
