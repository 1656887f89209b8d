// Package constants defines timeout values and retry limits used throughout the application.
package constants

import "time"

// Timeout constants for various operations
const (
	// Per-request timeout for outbound HTTP calls
	RequestTimeout = 10 * time.Second

	// Pause between two consecutive ids of an import run
	ImportDelay = time.Second

	// Retry policy for idempotent outbound requests
	RetryWait = 500 * time.Millisecond
	RetryMax  = 2

	// Read cache lifetime and sweep period
	CacheTTL           = 10 * time.Minute
	CacheSweepInterval = time.Minute

	ShutdownTimeout = 10 * time.Second
)
