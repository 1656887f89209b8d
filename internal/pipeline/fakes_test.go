package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amaumene/gocatalog/internal/database"
	catalogerrors "github.com/amaumene/gocatalog/internal/errors"
	"github.com/amaumene/gocatalog/internal/models"
	"github.com/amaumene/gocatalog/pkg/logger"
)

// fakeSource serves movies and people from memory.
type fakeSource struct {
	mu      sync.Mutex
	movies  map[int]*models.MovieBundle
	people  map[int]*models.TMDBPerson
	fetched map[int]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		movies:  map[int]*models.MovieBundle{},
		people:  map[int]*models.TMDBPerson{},
		fetched: map[int]int{},
	}
}

func (f *fakeSource) addMovie(id int, title string, genres []string, castSize int) {
	bundle := &models.MovieBundle{
		Movie: models.TMDBMovieDetails{
			ID:          id,
			Title:       title,
			Overview:    "overview of " + title,
			Tagline:     "tagline",
			ReleaseDate: "1999-10-15",
			Runtime:     139,
			PosterPath:  "/poster.jpg",
			VoteAverage: 8.433,
			VoteCount:   26280,
		},
		Credits:  &models.Credits{ID: id},
		Director: "David Fincher",
	}
	for i, name := range genres {
		bundle.Movie.Genres = append(bundle.Movie.Genres, models.TMDBGenre{ID: 100 + i, Name: name})
	}
	for i := 0; i < castSize; i++ {
		personID := id*1000 + i
		name := fmt.Sprintf("Actor %d-%d", id, i)
		bundle.Credits.Cast = append(bundle.Credits.Cast, models.CastMember{
			ID: personID, Name: name, Character: fmt.Sprintf("Role %d", i), Order: i,
		})
		f.people[personID] = &models.TMDBPerson{ID: personID, Name: name, Popularity: 1.5}
	}
	f.movies[id] = bundle
}

func (f *fakeSource) FetchMovie(_ context.Context, id int) (*models.MovieBundle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched[id]++
	b, ok := f.movies[id]
	if !ok {
		return nil, catalogerrors.NewSourceNotFoundError("movie", id)
	}
	cp := *b
	return &cp, nil
}

func (f *fakeSource) FetchPerson(_ context.Context, id int) (*models.TMDBPerson, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.people[id]
	if !ok {
		return nil, catalogerrors.NewSourceNotFoundError("person", id)
	}
	cp := *p
	return &cp, nil
}

// flakyDest fails lookups on chosen collections.
type flakyDest struct {
	*database.Local
	failLookup map[models.Collection]bool
	creates    map[models.Collection]int
}

func (d *flakyDest) Lookup(ctx context.Context, c models.Collection, filters ...models.Filter) (models.Existence, error) {
	if d.failLookup[c] {
		return models.Existence{}, errors.New("connection refused")
	}
	return d.Local.Lookup(ctx, c, filters...)
}

func (d *flakyDest) CreateIfAbsent(ctx context.Context, c models.Collection, key []models.Filter, payload models.Entry) (string, bool, error) {
	d.creates[c]++
	return d.Local.CreateIfAbsent(ctx, c, key, payload)
}

func newTestStore(t *testing.T) database.Store {
	t.Helper()
	db, err := database.NewBolt(filepath.Join(t.TempDir(), "catalog.db"), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestDriver(t *testing.T, source *fakeSource, opts Options) (*Driver, database.Store) {
	t.Helper()
	store := newTestStore(t)
	d := NewDriver(source, database.NewLocal(store, logger.Discard()), opts, logger.Discard())
	d.sleep = func(context.Context, time.Duration) error { return nil }
	return d, store
}

func count(t *testing.T, store database.Store, c models.Collection, filters ...models.Filter) int {
	t.Helper()
	_, total, err := store.Find(context.Background(), c, models.Query{Filters: filters})
	require.NoError(t, err)
	return total
}
