// Package simulate drives a running hangout service through a full
// submit, assign and resolve cycle and checks the results.
package simulate

import "time"

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Requests    int           // Number of requests to submit
	Users       int           // Number of distinct requesters
	Events      int           // Number of catalog events to seed
	Workers     int           // Number of concurrent workers
	Duplicates  int           // Percentage of submissions sent twice
	AcceptRatio int           // Percentage of suggestions accepted
	Timeout     time.Duration // HTTP request timeout
	AdminSecret string        // Signs admin tokens; empty when auth is off
	LogFile     string        // Log file for run output
	Verbose     bool          // Enable verbose logging
}

// Stats holds run statistics.
type Stats struct {
	EventsSeeded        int
	RequestsSubmitted   int
	RequestsDuplicate   int
	RequestsFailed      int
	DuplicateMismatches int
	Assigned            int
	Unmatched           int
	AssignFailed        int
	Accepted            int
	Declined            int
	ResolveFailed       int
	PerfectMatches      int
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}
