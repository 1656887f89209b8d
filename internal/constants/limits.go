// Package constants defines numerical limits.
package constants

// Limits and counts for various operations
const (
	// Billed cast members linked per movie
	DefaultCastLimit = 10

	// Exact title matches imported by a single from-title lookup
	MaxTitleImports = 5

	// Bytes of an error body kept for logs
	MaxErrorBodyLength = 300
)
