package domain

import "time"

// CheckStats holds statistics about a single poll cycle.
type CheckStats struct {
	Fetched   int
	New       int
	Notified  int
	Published int
	Errors    int
	Duration  time.Duration
}
