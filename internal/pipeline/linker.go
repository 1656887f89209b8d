package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	catalogerrors "github.com/amaumene/gocatalog/internal/errors"
	"github.com/amaumene/gocatalog/internal/models"
	"github.com/amaumene/gocatalog/internal/services"
	"github.com/amaumene/gocatalog/internal/slug"
	"github.com/amaumene/gocatalog/pkg/logger"
)

// LinkStats counts association outcomes for one relation kind.
type LinkStats struct {
	// Linked counts associations created by this run
	Linked int
	// Existing counts associations that were already present
	Existing int
	// Skipped counts items without a usable name or source record
	Skipped int
	Failed  int
}

func (s *LinkStats) add(o LinkStats) {
	s.Linked += o.Linked
	s.Existing += o.Existing
	s.Skipped += o.Skipped
	s.Failed += o.Failed
}

// LinkReport is the outcome of linking one movie.
type LinkReport struct {
	Genres LinkStats
	Actors LinkStats
}

func (r *LinkReport) add(o LinkReport) {
	r.Genres.add(o.Genres)
	r.Actors.add(o.Actors)
}

func (r LinkReport) String() string {
	return fmt.Sprintf("genres %d new/%d kept/%d skipped/%d failed, cast %d new/%d kept/%d skipped/%d failed",
		r.Genres.Linked, r.Genres.Existing, r.Genres.Skipped, r.Genres.Failed,
		r.Actors.Linked, r.Actors.Existing, r.Actors.Skipped, r.Actors.Failed)
}

// Linker resolves or creates genres and actors and their association records. A failure on
// one item is counted and logged and never stops the others.
type Linker struct {
	source     services.SourceFetcher
	dest       services.Destination
	resolver   *Resolver
	normalizer Normalizer
	castLimit  int
	logger     logger.Logger
}

func NewLinker(source services.SourceFetcher, dest services.Destination, resolver *Resolver, normalizer Normalizer, castLimit int, log logger.Logger) *Linker {
	return &Linker{
		source:     source,
		dest:       dest,
		resolver:   resolver,
		normalizer: normalizer,
		castLimit:  castLimit,
		logger:     log,
	}
}

// Link attaches the genres and the first castLimit billed actors of bundle to the movie.
func (l *Linker) Link(ctx context.Context, movieDoc string, bundle *models.MovieBundle) LinkReport {
	return LinkReport{
		Genres: l.LinkGenres(ctx, movieDoc, bundle.Movie.Genres),
		Actors: l.LinkCast(ctx, movieDoc, bundle.Cast()),
	}
}

func (l *Linker) LinkGenres(ctx context.Context, movieDoc string, genres []models.TMDBGenre) LinkStats {
	var stats LinkStats
	for _, g := range genres {
		if ctx.Err() != nil {
			stats.Failed++
			continue
		}
		genre, ok := l.normalizer.Genre(g)
		if !ok {
			stats.Skipped++
			continue
		}

		genreDoc, err := l.ensureGenre(ctx, genre)
		if err != nil {
			l.logger.Errorf("[Linker] genre %q: %v", genre.Name, err)
			stats.Failed++
			continue
		}

		created, err := l.ensureLink(ctx, models.CollectionMovieGenres, l.resolver.MovieGenre(ctx, movieDoc, genreDoc),
			movieGenreKey(movieDoc, genreDoc), &models.MovieGenre{MovieID: movieDoc, GenreID: genreDoc})
		switch {
		case err != nil:
			l.logger.Errorf("[Linker] link to genre %q: %v", genre.Name, err)
			stats.Failed++
		case created:
			l.logger.Infof("[Linker]   ↳ genre linked: %s (#%s)", genre.Name, genreDoc)
			stats.Linked++
		default:
			stats.Existing++
		}
	}
	return stats
}

// LinkCast links the first castLimit entries of cast in billing order; order_index is the
// position in that list.
func (l *Linker) LinkCast(ctx context.Context, movieDoc string, cast []models.CastMember) LinkStats {
	var stats LinkStats
	if l.castLimit > 0 && len(cast) > l.castLimit {
		cast = cast[:l.castLimit]
	}
	for i, member := range cast {
		if ctx.Err() != nil {
			stats.Failed++
			continue
		}
		name := strings.TrimSpace(member.Name)
		if name == "" || member.ID <= 0 {
			stats.Skipped++
			continue
		}

		actorDoc, err := l.ensureActor(ctx, member.ID)
		if catalogerrors.IsSourceNotFound(err) {
			l.logger.Warnf("[Linker] actor %s (%d) not found on source, skipped", name, member.ID)
			stats.Skipped++
			continue
		}
		if err != nil {
			l.logger.Errorf("[Linker] actor %s (%d): %v", name, member.ID, err)
			stats.Failed++
			continue
		}

		link := &models.MovieActor{MovieID: movieDoc, ActorID: actorDoc, CharacterName: member.Character, OrderIndex: i}
		created, err := l.ensureLink(ctx, models.CollectionMovieActors, l.resolver.MovieActor(ctx, movieDoc, actorDoc),
			movieActorKey(movieDoc, actorDoc), link)
		switch {
		case err != nil:
			l.logger.Errorf("[Linker] link to actor %s: %v", name, err)
			stats.Failed++
		case created:
			l.logger.Infof("[Linker]   ↳ actor linked: %s (#%s)", name, actorDoc)
			stats.Linked++
		default:
			stats.Existing++
		}
	}
	return stats
}

// ensureGenre returns the documentId of the genre, creating it when absent or unknown.
func (l *Linker) ensureGenre(ctx context.Context, genre *models.Genre) (string, error) {
	existence := l.resolver.Genre(ctx, genre.Slug)
	if existence.Found() {
		return existence.DocumentID, nil
	}
	id, _, err := l.dest.CreateIfAbsent(ctx, models.CollectionGenres, genreKey(genre.Slug), genre)
	return id, err
}

// ensureActor returns the documentId of the actor, fetching the full person record from the
// source to create it when absent or unknown.
func (l *Linker) ensureActor(ctx context.Context, tmdbID int) (string, error) {
	existence := l.resolver.Actor(ctx, tmdbID)
	if existence.Found() {
		return existence.DocumentID, nil
	}

	person, err := l.source.FetchPerson(ctx, tmdbID)
	if err != nil {
		return "", err
	}
	actor := l.normalizer.Actor(person)
	id, _, err := createWithSlugFallback(ctx, l.dest, models.CollectionActors, actorKey(tmdbID), actor, &actor.Slug, tmdbID)
	return id, err
}

// ensureLink creates an association unless existence says it is there. An unknown existence
// still attempts the create: the destination rejects duplicate pairs and CreateIfAbsent then
// returns the existing record.
func (l *Linker) ensureLink(ctx context.Context, collection models.Collection, existence models.Existence, key []models.Filter, link models.Entry) (bool, error) {
	if existence.Found() {
		return false, nil
	}
	_, created, err := l.dest.CreateIfAbsent(ctx, collection, key, link)
	return created, err
}

// createWithSlugFallback creates e, and when its slug collides with a different document retries
// once with the source id appended to the slug.
func createWithSlugFallback(ctx context.Context, dest services.Destination, collection models.Collection, key []models.Filter, e models.Entry, slugField *string, tmdbID int) (string, bool, error) {
	id, created, err := dest.CreateIfAbsent(ctx, collection, key, e)
	if err == nil || !catalogerrors.IsConflict(err) || catalogerrors.FieldOf(err) != "slug" {
		return id, created, err
	}
	*slugField = slug.WithSuffix(*slugField, strconv.Itoa(tmdbID))
	return dest.CreateIfAbsent(ctx, collection, key, e)
}
