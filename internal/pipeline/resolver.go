// Package pipeline imports movies from the source into the catalog: fetch, resolve existence,
// normalize, create, then link genres and cast.
package pipeline

import (
	"context"
	"strconv"

	"github.com/amaumene/gocatalog/internal/models"
	"github.com/amaumene/gocatalog/internal/services"
	"github.com/amaumene/gocatalog/pkg/logger"
)

// Natural keys of each collection, as destination filters.

func movieKey(tmdbID int) []models.Filter {
	return []models.Filter{models.Eq("tmdb_id", tmdbID)}
}

func actorKey(tmdbID int) []models.Filter {
	return []models.Filter{models.Eq("tmdb_id", tmdbID)}
}

func genreKey(slug string) []models.Filter {
	return []models.Filter{models.Eq("slug", slug)}
}

func movieGenreKey(movieDoc, genreDoc string) []models.Filter {
	return []models.Filter{models.Eq("movie.documentId", movieDoc), models.Eq("genre.documentId", genreDoc)}
}

func movieActorKey(movieDoc, actorDoc string) []models.Filter {
	return []models.Filter{models.Eq("movie.documentId", movieDoc), models.Eq("actor.documentId", actorDoc)}
}

// Resolver answers "does this natural key already exist" with a tri-state result. A failed
// lookup is StateUnknown; callers decide whether that blocks creation.
type Resolver struct {
	dest   services.Destination
	logger logger.Logger
}

func NewResolver(dest services.Destination, log logger.Logger) *Resolver {
	return &Resolver{dest: dest, logger: log}
}

func (r *Resolver) Movie(ctx context.Context, tmdbID int) models.Existence {
	return r.lookup(ctx, models.CollectionMovies, "tmdb_id="+strconv.Itoa(tmdbID), movieKey(tmdbID))
}

func (r *Resolver) Actor(ctx context.Context, tmdbID int) models.Existence {
	return r.lookup(ctx, models.CollectionActors, "tmdb_id="+strconv.Itoa(tmdbID), actorKey(tmdbID))
}

func (r *Resolver) Genre(ctx context.Context, slug string) models.Existence {
	return r.lookup(ctx, models.CollectionGenres, "slug="+slug, genreKey(slug))
}

func (r *Resolver) MovieGenre(ctx context.Context, movieDoc, genreDoc string) models.Existence {
	return r.lookup(ctx, models.CollectionMovieGenres, movieDoc+"/"+genreDoc, movieGenreKey(movieDoc, genreDoc))
}

func (r *Resolver) MovieActor(ctx context.Context, movieDoc, actorDoc string) models.Existence {
	return r.lookup(ctx, models.CollectionMovieActors, movieDoc+"/"+actorDoc, movieActorKey(movieDoc, actorDoc))
}

func (r *Resolver) lookup(ctx context.Context, collection models.Collection, label string, key []models.Filter) models.Existence {
	existence, err := r.dest.Lookup(ctx, collection, key...)
	if err != nil {
		r.logger.Warnf("[Resolver] existence check for %s %s failed: %v", collection, label, err)
		return models.Unknown(err)
	}
	return existence
}
