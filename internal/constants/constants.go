// Package constants defines application-wide constants and default values.
package constants

const (
	AppName    = "gocatalog"
	AppVersion = "1.0.0"

	// Default configuration values
	DefaultPort     = "1338"
	DefaultLogLevel = "info"

	// Cache settings
	DefaultCacheSize = 1000

	// Rate limiting
	TMDBRateLimit = 20 // requests per second
	TMDBRateBurst = 5  // burst capacity

	// Import defaults
	DefaultLanguage = "fr-FR"
	DefaultDirector = "Inconnu"
	DefaultStartID  = 1
	DefaultEndID    = 10
)
