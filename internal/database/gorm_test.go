package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amaumene/gocatalog/internal/models"
)

func TestColumnFor(t *testing.T) {
	tests := []struct {
		collection models.Collection
		field      string
		want       string
		ok         bool
	}{
		{models.CollectionMovies, "tmdb_id", "tmdb_id", true},
		{models.CollectionMovies, "documentId", "document_id", true},
		{models.CollectionMovies, "createdAt", "created_at", true},
		{models.CollectionMovieGenres, "movie.documentId", "movie_document_id", true},
		{models.CollectionMovieActors, "actor", "actor_document_id", true},
		{models.CollectionMovies, "title; DROP TABLE movies", "", false},
		{models.CollectionGenres, "director", "", false},
	}
	for _, tt := range tests {
		got, ok := columnFor(tt.collection, tt.field)
		assert.Equal(t, tt.ok, ok, tt.field)
		assert.Equal(t, tt.want, got, tt.field)
	}
}

func TestReferencing(t *testing.T) {
	assert.Equal(t, map[models.Collection]string{
		models.CollectionMovieGenres: "movie",
		models.CollectionMovieActors: "movie",
	}, referencing(models.CollectionMovies))
	assert.Equal(t, map[models.Collection]string{models.CollectionMovieActors: "actor"}, referencing(models.CollectionActors))
	assert.Empty(t, referencing(models.CollectionMovieGenres))
}
