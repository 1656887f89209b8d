package config

import (
	"testing"
	"time"

	catalogerrors "github.com/amaumene/gocatalog/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		wantStart  int
		wantEnd    int
	}{
		{"defaults", "", "", 1, 10},
		{"ascending", "3", "7", 3, 7},
		{"swapped", "10", "1", 1, 10},
		{"non numeric", "abc", "xyz", 1, 10},
		{"non numeric start", "abc", "5", 1, 5},
		{"non numeric end below start", "20", "oops", 10, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := NormalizeRange(tt.start, tt.end)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestParseImporterDefaults(t *testing.T) {
	cfg, err := ParseImporter(map[string]string{"TMDB_API_KEY": "0123456789abcdef0123456789abcdef"})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:1338/api/movies", cfg.StrapiURL)
	assert.Equal(t, "http://localhost:1338/api", cfg.APIBase())
	assert.Equal(t, 1, cfg.StartID)
	assert.Equal(t, 10, cfg.EndID)
	assert.Equal(t, time.Second, cfg.Delay)
	assert.Equal(t, 10, cfg.CastLimit)
	assert.Equal(t, "fr-FR", cfg.TMDB.Language)
	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 2, cfg.HTTP.RetryMax)
}

func TestParseImporterOverrides(t *testing.T) {
	cfg, err := ParseImporter(map[string]string{
		"TMDB_API_KEY":     "key_1234567",
		"STRAPI_URL":       "https://cms.example.com/api/movies/",
		"STRAPI_API_TOKEN": "token",
		"TMDB_START_ID":    "600",
		"TMDB_END_ID":      "550",
		"IMPORT_DELAY":     "250ms",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://cms.example.com/api", cfg.APIBase())
	assert.Equal(t, 550, cfg.StartID)
	assert.Equal(t, 600, cfg.EndID)
	assert.Equal(t, 250*time.Millisecond, cfg.Delay)
}

func TestParseImporterRequiresTMDBKey(t *testing.T) {
	_, err := ParseImporter(map[string]string{})
	require.Error(t, err)
	assert.Equal(t, catalogerrors.ErrorTypeConfigurationInvalid, catalogerrors.TypeOf(err))
}

func TestParseServer(t *testing.T) {
	cfg, err := ParseServer(map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "1338", cfg.Port)
	assert.Equal(t, DriverBolt, cfg.DatabaseDriver)
	assert.Equal(t, "./catalog.db", cfg.DatabasePath)
	assert.False(t, cfg.TMDBEnabled())

	_, err = ParseServer(map[string]string{"DATABASE_DRIVER": "postgres"})
	assert.Error(t, err)

	_, err = ParseServer(map[string]string{"DATABASE_DRIVER": "mongo"})
	assert.Error(t, err)

	_, err = ParseServer(map[string]string{"PORT": "http"})
	assert.Error(t, err)

	cfg, err = ParseServer(map[string]string{"DATABASE_DRIVER": "postgres", "POSTGRES_DSN": "postgres://localhost/catalog", "TMDB_API_KEY": "abc12345"})
	require.NoError(t, err)
	assert.True(t, cfg.TMDBEnabled())
}
