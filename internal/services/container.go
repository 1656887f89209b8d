// Package services provides the external collaborators of the import pipeline and the
// dependency container of the catalog server.
package services

import (
	"context"

	"github.com/amaumene/gocatalog/internal/cache"
	"github.com/amaumene/gocatalog/internal/database"
	"github.com/amaumene/gocatalog/internal/models"
	"github.com/amaumene/gocatalog/pkg/logger"
)

// Container holds all server services for dependency injection.
type Container struct {
	Store    database.Store
	Cache    *cache.LRUCache
	TMDB     MovieSearcher
	Importer TitleImporter
	Logger   logger.Logger
}

// SourceFetcher reads records from the external movie database.
type SourceFetcher interface {
	FetchMovie(ctx context.Context, id int) (*models.MovieBundle, error)
	FetchPerson(ctx context.Context, id int) (*models.TMDBPerson, error)
}

// MovieSearcher finds source movies by title.
type MovieSearcher interface {
	SearchMovies(ctx context.Context, query string) ([]models.TMDBMovie, error)
}

// Destination is the catalog the pipeline writes into.
type Destination interface {
	// Lookup reports whether a document matching every filter exists. An error means the
	// answer is unknown.
	Lookup(ctx context.Context, collection models.Collection, filters ...models.Filter) (models.Existence, error)
	// CreateIfAbsent creates payload unless a document matching key already exists, in which
	// case the existing documentId is returned with created=false. A conflict on any other
	// unique attribute is returned as an ErrConflict naming the field.
	CreateIfAbsent(ctx context.Context, collection models.Collection, key []models.Filter, payload models.Entry) (documentID string, created bool, err error)
}

// TitleImporter imports one source movie by id and returns its catalog documentId.
type TitleImporter interface {
	ImportOne(ctx context.Context, id int) (string, error)
}

var (
	_ SourceFetcher = (*TMDB)(nil)
	_ MovieSearcher = (*TMDB)(nil)
	_ Destination   = (*CatalogClient)(nil)
	_ Destination   = (*database.Local)(nil)
)
