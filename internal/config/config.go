// Package config provides configuration management for the catalog server and the TMDB importer.
// Values come from environment variables, optionally seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/amaumene/gocatalog/internal/constants"
	catalogerrors "github.com/amaumene/gocatalog/internal/errors"
	"github.com/amaumene/gocatalog/pkg/security"
)

const (
	// Default .env file name
	defaultEnvFile = ".env"
	// Default database path
	defaultDatabasePath = "./catalog.db"

	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
)

// TMDBConfig holds the source API settings shared by both binaries.
type TMDBConfig struct {
	APIKey       string `env:"TMDB_API_KEY"`
	BaseURL      string `env:"TMDB_BASE_URL" envDefault:"https://api.themoviedb.org/3"`
	ImageBaseURL string `env:"TMDB_IMAGE_BASE_URL" envDefault:"https://image.tmdb.org/t/p"`
	Language     string `env:"TMDB_LANGUAGE" envDefault:"fr-FR"`
	RateLimit    int    `env:"TMDB_RATE_LIMIT" envDefault:"20"`
}

// HTTPConfig bounds every outbound request.
type HTTPConfig struct {
	Timeout   time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
	RetryMax  int           `env:"HTTP_RETRY_MAX" envDefault:"2"`
	RetryWait time.Duration `env:"HTTP_RETRY_WAIT" envDefault:"500ms"`
}

// ImporterConfig configures cmd/tmdb-importer.
type ImporterConfig struct {
	TMDB TMDBConfig
	HTTP HTTPConfig

	// StrapiURL is the movies collection URL; the API base is derived from it.
	StrapiURL   string `env:"STRAPI_URL" envDefault:"http://localhost:1338/api/movies"`
	StrapiToken string `env:"STRAPI_API_TOKEN"`

	// Raw bounds are kept as strings so that non-numeric values fall back to defaults instead of failing.
	RawStartID string `env:"TMDB_START_ID"`
	RawEndID   string `env:"TMDB_END_ID"`

	Delay     time.Duration `env:"IMPORT_DELAY" envDefault:"1s"`
	CastLimit int           `env:"IMPORT_CAST_LIMIT" envDefault:"10"`
	LogLevel  string        `env:"LOG_LEVEL" envDefault:"info"`

	StartID int
	EndID   int
}

// ServerConfig configures cmd/catalogd.
type ServerConfig struct {
	TMDB TMDBConfig
	HTTP HTTPConfig

	Port            string        `env:"PORT" envDefault:"1338"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseDriver  string        `env:"DATABASE_DRIVER" envDefault:"bolt"`
	DatabasePath    string        `env:"DATABASE_PATH" envDefault:"./catalog.db"`
	PostgresDSN     string        `env:"POSTGRES_DSN"`
	APIToken        string        `env:"API_TOKEN"`
	CacheSize       int           `env:"CACHE_SIZE" envDefault:"1000"`
	CacheTTL        time.Duration `env:"CACHE_TTL" envDefault:"10m"`
	CastLimit       int           `env:"IMPORT_CAST_LIMIT" envDefault:"10"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// LoadImporter reads the importer configuration from the process environment.
func LoadImporter() (*ImporterConfig, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}
	return ParseImporter(nil)
}

// ParseImporter parses the importer configuration from environ, or from the process environment when environ is nil.
func ParseImporter(environ map[string]string) (*ImporterConfig, error) {
	cfg := &ImporterConfig{}
	if err := env.ParseWithOptions(cfg, options(environ)); err != nil {
		return nil, catalogerrors.NewConfigurationError("failed to parse importer config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the importer configuration and normalizes the id range.
func (c *ImporterConfig) Validate() error {
	validator := security.NewAPIKeyValidator()
	c.TMDB.APIKey = validator.SanitizeAPIKey(c.TMDB.APIKey)
	if c.TMDB.APIKey == "" {
		return catalogerrors.NewConfigurationError("TMDB_API_KEY is required", nil)
	}
	if c.StrapiURL == "" {
		return catalogerrors.NewConfigurationError("STRAPI_URL must not be empty", nil)
	}
	c.StartID, c.EndID = NormalizeRange(c.RawStartID, c.RawEndID)
	c.TMDB.applyDefaults()
	c.HTTP.applyDefaults()
	if c.CastLimit <= 0 {
		c.CastLimit = constants.DefaultCastLimit
	}
	if c.Delay < 0 {
		c.Delay = 0
	}
	return nil
}

// APIBase is StrapiURL without its trailing /movies segment.
func (c *ImporterConfig) APIBase() string {
	base := strings.TrimRight(c.StrapiURL, "/")
	return strings.TrimSuffix(base, "/movies")
}

// NormalizeRange parses the id bounds, falling back to 1 and 10 for non-numeric values, and
// swaps them when given in descending order.
func NormalizeRange(rawStart, rawEnd string) (int, int) {
	start := parseIntOr(rawStart, constants.DefaultStartID)
	end := parseIntOr(rawEnd, constants.DefaultEndID)
	if start > end {
		start, end = end, start
	}
	return start, end
}

// LoadServer reads the server configuration from the process environment.
func LoadServer() (*ServerConfig, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}
	return ParseServer(nil)
}

// ParseServer parses the server configuration from environ, or from the process environment when environ is nil.
func ParseServer(environ map[string]string) (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if err := env.ParseWithOptions(cfg, options(environ)); err != nil {
		return nil, catalogerrors.NewConfigurationError("failed to parse server config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the server configuration and sets defaults for unusable values.
func (c *ServerConfig) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return catalogerrors.NewConfigurationError(fmt.Sprintf("PORT %q is not a number", c.Port), err)
	}
	switch c.DatabaseDriver {
	case DriverBolt:
		if c.DatabasePath == "" {
			c.DatabasePath = defaultDatabasePath
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return catalogerrors.NewConfigurationError("POSTGRES_DSN is required with DATABASE_DRIVER=postgres", nil)
		}
	default:
		return catalogerrors.NewConfigurationError(fmt.Sprintf("unknown DATABASE_DRIVER %q", c.DatabaseDriver), nil)
	}
	if c.CacheSize <= 0 {
		c.CacheSize = constants.DefaultCacheSize
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = constants.CacheTTL
	}
	if c.CastLimit <= 0 {
		c.CastLimit = constants.DefaultCastLimit
	}
	c.TMDB.APIKey = security.NewAPIKeyValidator().SanitizeAPIKey(c.TMDB.APIKey)
	c.TMDB.applyDefaults()
	c.HTTP.applyDefaults()
	return nil
}

// TMDBEnabled reports whether from-title may fall back to the source.
func (c *ServerConfig) TMDBEnabled() bool {
	return c.TMDB.APIKey != ""
}

func (t *TMDBConfig) applyDefaults() {
	if t.BaseURL == "" {
		t.BaseURL = constants.TMDBBaseURL
	}
	if t.ImageBaseURL == "" {
		t.ImageBaseURL = constants.TMDBImageBaseURL
	}
	if t.Language == "" {
		t.Language = constants.DefaultLanguage
	}
	if t.RateLimit <= 0 {
		t.RateLimit = constants.TMDBRateLimit
	}
}

func (h *HTTPConfig) applyDefaults() {
	if h.Timeout <= 0 {
		h.Timeout = constants.RequestTimeout
	}
	if h.RetryMax < 0 {
		h.RetryMax = 0
	}
	if h.RetryWait <= 0 {
		h.RetryWait = constants.RetryWait
	}
}

func options(environ map[string]string) env.Options {
	if environ == nil {
		return env.Options{}
	}
	return env.Options{Environment: environ}
}

// loadEnvFile seeds the environment from ENV_FILE (default .env); a missing file is not an error.
func loadEnvFile() error {
	file := getEnvOrDefault("ENV_FILE", defaultEnvFile)
	if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
		return catalogerrors.NewConfigurationError("failed to load "+file, err)
	}
	return nil
}

func parseIntOr(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvOrDefault returns environment variable value or default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
