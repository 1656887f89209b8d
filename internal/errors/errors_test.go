package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("failed to create movie: %w", NewConflictError("movies", "tmdb_id", "550"))

	assert.True(t, stderrors.Is(err, ErrConflict))
	assert.False(t, stderrors.Is(err, ErrNotFound))
	assert.Equal(t, "tmdb_id", FieldOf(err))
	assert.Equal(t, ErrorTypeConflict, TypeOf(err))
}

func TestCatalogErrorUnwrapsCause(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := NewTransportError("catalog request failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "caused by: connection reset")
	assert.Equal(t, "", FieldOf(stderrors.New("plain")))
}

func TestSourceNotFound(t *testing.T) {
	err := NewSourceNotFoundError("movie", 3)
	assert.ErrorIs(t, err, ErrSourceNotFound)
	assert.Equal(t, "SOURCE_NOT_FOUND: movie 3 not found on source", err.Error())
}

func TestStatusErrorTruncatesBody(t *testing.T) {
	long := make([]byte, 400)
	for i := range long {
		long[i] = 'x'
	}
	err := &StatusError{Method: "POST", URL: "/api/movies", StatusCode: 400, Body: string(long)}
	assert.Contains(t, err.Error(), "POST /api/movies: HTTP 400 - ")
	assert.Contains(t, err.Error(), "...")

	err = &StatusError{Method: "GET", URL: "/x", StatusCode: 502}
	assert.Equal(t, "GET /x: HTTP 502", err.Error())
}
