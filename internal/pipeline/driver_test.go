package pipeline

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amaumene/gocatalog/internal/database"
	catalogerrors "github.com/amaumene/gocatalog/internal/errors"
	"github.com/amaumene/gocatalog/internal/models"
	"github.com/amaumene/gocatalog/pkg/logger"
)

func TestDriverImportsMovieWithRelations(t *testing.T) {
	source := newFakeSource()
	source.addMovie(550, "Fight Club", []string{"Drame", "Thriller"}, 25)
	d, store := newTestDriver(t, source, Options{StartID: 550, EndID: 550})

	summary, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 0, summary.Errored)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 2, summary.Links.Genres.Linked)
	assert.Equal(t, 10, summary.Links.Actors.Linked)

	movies, _, err := store.Find(context.Background(), models.CollectionMovies, models.Query{})
	require.NoError(t, err)
	require.Len(t, movies, 1)
	movie := movies[0].(*models.Movie)
	assert.Equal(t, "fight-club", movie.Slug)
	assert.Equal(t, "David Fincher", movie.Director)
	assert.Equal(t, 8, movie.VoteAverage)

	assert.Equal(t, 2, count(t, store, models.CollectionGenres))
	assert.Equal(t, 2, count(t, store, models.CollectionMovieGenres, models.Eq("movie.documentId", movie.DocumentID)))
	assert.Equal(t, 10, count(t, store, models.CollectionActors))

	links, _, err := store.Find(context.Background(), models.CollectionMovieActors,
		models.Query{Filters: []models.Filter{models.Eq("movie.documentId", movie.DocumentID)}, PageSize: 100})
	require.NoError(t, err)
	require.Len(t, links, 10)
	var orders []int
	for _, e := range links {
		orders = append(orders, e.(*models.MovieActor).OrderIndex)
	}
	sort.Ints(orders)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, orders)
}

func TestDriverReimportOnlyLinks(t *testing.T) {
	source := newFakeSource()
	source.addMovie(550, "Fight Club", []string{"Drame"}, 3)
	d, store := newTestDriver(t, source, Options{StartID: 550, EndID: 550})

	_, err := d.Run(context.Background())
	require.NoError(t, err)

	summary, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Imported)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Links.Genres.Linked)
	assert.Equal(t, 1, summary.Links.Genres.Existing)
	assert.Equal(t, 3, summary.Links.Actors.Existing)

	assert.Equal(t, 1, count(t, store, models.CollectionMovies))
	assert.Equal(t, 1, count(t, store, models.CollectionMovieGenres))
	assert.Equal(t, 3, count(t, store, models.CollectionMovieActors))
}

func TestDriverReimportRepairsMissingLinks(t *testing.T) {
	source := newFakeSource()
	source.addMovie(13, "Forrest Gump", nil, 0)
	d, store := newTestDriver(t, source, Options{StartID: 13, EndID: 13})

	_, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count(t, store, models.CollectionMovieGenres))

	source.addMovie(13, "Forrest Gump", []string{"Comédie"}, 1)
	res := d.Process(context.Background(), 13)
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, 1, res.Links.Genres.Linked)
	assert.Equal(t, 1, res.Links.Actors.Linked)
}

func TestDriverCountsPartialFailures(t *testing.T) {
	source := newFakeSource()
	for _, id := range []int{1, 2, 4, 5} {
		source.addMovie(id, "Movie "+string(rune('A'+id)), nil, 0)
	}
	d, store := newTestDriver(t, source, Options{StartID: 1, EndID: 5})

	var results []Result
	d.WithObserver(recordingObserver{results: &results})
	summary, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Imported)
	assert.Equal(t, 1, summary.Errored)
	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 4, count(t, store, models.CollectionMovies))

	require.Len(t, results, 5)
	assert.Equal(t, OutcomeErrored, results[2].Outcome)
	assert.Equal(t, StateFailed, results[2].State)
	assert.True(t, catalogerrors.IsSourceNotFound(results[2].Err))
}

func TestDriverSlugFallback(t *testing.T) {
	source := newFakeSource()
	source.addMovie(550, "Fight Club", nil, 0)
	d, store := newTestDriver(t, source, Options{StartID: 550, EndID: 550})

	_, err := store.Create(context.Background(), &models.Movie{TMDBID: 1, Title: "Fight Club"})
	require.NoError(t, err)

	docID, err := d.ImportOne(context.Background(), 550)
	require.NoError(t, err)

	e, err := store.Get(context.Background(), models.CollectionMovies, docID)
	require.NoError(t, err)
	assert.Equal(t, "fight-club-550", e.(*models.Movie).Slug)
}

func TestDriverFailsClosedOnUnknownMovie(t *testing.T) {
	source := newFakeSource()
	source.addMovie(550, "Fight Club", []string{"Drame"}, 2)
	store := newTestStore(t)
	dest := &flakyDest{
		Local:      database.NewLocal(store, logger.Discard()),
		failLookup: map[models.Collection]bool{models.CollectionMovies: true},
		creates:    map[models.Collection]int{},
	}
	d := NewDriver(source, dest, Options{StartID: 550, EndID: 550}, logger.Discard())

	res := d.Process(context.Background(), 550)

	assert.Equal(t, OutcomeErrored, res.Outcome)
	assert.Contains(t, res.Err.Error(), "connection refused")
	assert.Zero(t, dest.creates[models.CollectionMovies])
	assert.Equal(t, 0, count(t, store, models.CollectionMovies))
}

func TestDriverFailsOpenOnUnknownRelations(t *testing.T) {
	source := newFakeSource()
	source.addMovie(550, "Fight Club", []string{"Drame"}, 2)
	store := newTestStore(t)
	dest := &flakyDest{
		Local: database.NewLocal(store, logger.Discard()),
		failLookup: map[models.Collection]bool{
			models.CollectionGenres:      true,
			models.CollectionMovieGenres: true,
			models.CollectionMovieActors: true,
		},
		creates: map[models.Collection]int{},
	}
	d := NewDriver(source, dest, Options{StartID: 550, EndID: 550}, logger.Discard())

	first := d.Process(context.Background(), 550)
	require.Equal(t, OutcomeImported, first.Outcome)
	assert.Equal(t, 1, first.Links.Genres.Linked)
	assert.Equal(t, 2, first.Links.Actors.Linked)

	// Without lookups every link is attempted again and the unique constraints keep one copy.
	second := d.Process(context.Background(), 550)
	assert.Equal(t, OutcomeSkipped, second.Outcome)
	assert.Equal(t, 1, second.Links.Genres.Existing)
	assert.Equal(t, 2, second.Links.Actors.Existing)
	assert.Equal(t, 1, count(t, store, models.CollectionGenres))
	assert.Equal(t, 1, count(t, store, models.CollectionMovieGenres))
	assert.Equal(t, 2, count(t, store, models.CollectionMovieActors))
}

func TestDriverSkipsActorMissingOnSource(t *testing.T) {
	source := newFakeSource()
	source.addMovie(550, "Fight Club", nil, 3)
	delete(source.people, 550*1000+1)
	d, store := newTestDriver(t, source, Options{StartID: 550, EndID: 550})

	res := d.Process(context.Background(), 550)
	assert.Equal(t, OutcomeImported, res.Outcome)
	assert.Equal(t, 2, res.Links.Actors.Linked)
	assert.Equal(t, 1, res.Links.Actors.Skipped)
	assert.Equal(t, 2, count(t, store, models.CollectionMovieActors))
}

func TestDriverWaitsBetweenIDs(t *testing.T) {
	source := newFakeSource()
	for id := 1; id <= 3; id++ {
		source.addMovie(id, "Movie "+string(rune('A'+id)), nil, 0)
	}
	d, _ := newTestDriver(t, source, Options{StartID: 3, EndID: 1, Delay: time.Second})

	var waits []time.Duration
	d.sleep = func(_ context.Context, delay time.Duration) error {
		waits = append(waits, delay)
		return nil
	}
	summary, err := d.Run(context.Background())
	require.NoError(t, err)

	start, end := d.Range()
	assert.Equal(t, 1, start)
	assert.Equal(t, 3, end)
	assert.Equal(t, 3, summary.Imported)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, waits)
}

func TestDriverStopsOnCancel(t *testing.T) {
	source := newFakeSource()
	for id := 1; id <= 5; id++ {
		source.addMovie(id, "Movie "+string(rune('A'+id)), nil, 0)
	}
	d, _ := newTestDriver(t, source, Options{StartID: 1, EndID: 5, Delay: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	summary, err := d.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, source.fetched[1])
	assert.Zero(t, source.fetched[2])
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))
}

type recordingObserver struct {
	NopObserver
	results *[]Result
}

func (o recordingObserver) OnResult(res Result, _ Summary) {
	*o.results = append(*o.results, res)
}
