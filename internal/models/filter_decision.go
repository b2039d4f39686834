package models

import "time"

// FilterDecision is recorded for every post on every filter chain run and
// exported as debug metadata.
type FilterDecision struct {
	PostID   string
	Passed   bool
	Reason   string
	Duration time.Duration
}
