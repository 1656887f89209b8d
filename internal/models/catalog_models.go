package models

import (
	"strconv"
	"strings"
	"time"

	catalogerrors "github.com/amaumene/gocatalog/internal/errors"
	"github.com/amaumene/gocatalog/internal/slug"
)

// Collection is the REST name of a content type.
type Collection string

const (
	CollectionMovies      Collection = "movies"
	CollectionActors      Collection = "actors"
	CollectionGenres      Collection = "genres"
	CollectionMovieGenres Collection = "movie-genres"
	CollectionMovieActors Collection = "movie-actors"
)

var collections = []Collection{
	CollectionMovies,
	CollectionActors,
	CollectionGenres,
	CollectionMovieGenres,
	CollectionMovieActors,
}

// Collections lists every collection, entities before associations.
func Collections() []Collection {
	return append([]Collection(nil), collections...)
}

func ParseCollection(s string) (Collection, bool) {
	for _, c := range collections {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

func (c Collection) String() string { return string(c) }

// New returns an empty document of the collection.
func (c Collection) New() Entry {
	switch c {
	case CollectionMovies:
		return &Movie{}
	case CollectionActors:
		return &Actor{}
	case CollectionGenres:
		return &Genre{}
	case CollectionMovieGenres:
		return &MovieGenre{}
	case CollectionMovieActors:
		return &MovieActor{}
	}
	return nil
}

// RelationFields names the fields of c that reference other documents.
func (c Collection) RelationFields() map[string]Collection {
	switch c {
	case CollectionMovieGenres:
		return map[string]Collection{"movie": CollectionMovies, "genre": CollectionGenres}
	case CollectionMovieActors:
		return map[string]Collection{"movie": CollectionMovies, "actor": CollectionActors}
	}
	return nil
}

// Entry is a stored document of any collection.
type Entry interface {
	Collection() Collection
	Base() *Meta
	// Field returns the value of a JSON attribute, relation paths such as "movie.documentId" included.
	Field(name string) (any, bool)
	UniqueKeys() []UniqueKey
	Relations() []Relation
	// Prepare fills derived attributes (slug) before validation.
	Prepare()
	Validate() error
}

// UniqueKey is a value that at most one document of a collection may hold.
type UniqueKey struct {
	Field string
	Value string
}

// Relation is a reference from an association record to another document.
type Relation struct {
	Field      string
	Target     Collection
	DocumentID string
}

// Meta holds the attributes every document carries.
type Meta struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	DocumentID  string     `json:"documentId" gorm:"column:document_id;size:64;uniqueIndex;not null"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	PublishedAt *time.Time `json:"publishedAt"`
}

func (m *Meta) Base() *Meta { return m }

func (m *Meta) field(name string) (any, bool) {
	switch name {
	case "id":
		return m.ID, true
	case "documentId":
		return m.DocumentID, true
	case "createdAt":
		return m.CreatedAt, true
	case "updatedAt":
		return m.UpdatedAt, true
	case "publishedAt":
		return deref(m.PublishedAt), true
	}
	return nil, false
}

type Movie struct {
	Meta
	TMDBID       int     `json:"tmdb_id" gorm:"column:tmdb_id;uniqueIndex;not null"`
	Title        string  `json:"title" gorm:"not null"`
	Description  string  `json:"description" gorm:"type:text"`
	Text         string  `json:"text" gorm:"type:text"`
	Director     string  `json:"director"`
	ReleaseDate  *string `json:"release_date" gorm:"size:10"`
	Runtime      int     `json:"runtime"`
	PosterPath   *string `json:"poster_path"`
	BackdropPath *string `json:"backdrop_path"`
	VoteAverage  int     `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	Slug         string  `json:"slug" gorm:"uniqueIndex;not null"`
}

func (*Movie) Collection() Collection { return CollectionMovies }

func (m *Movie) Field(name string) (any, bool) {
	switch name {
	case "tmdb_id":
		return m.TMDBID, true
	case "title":
		return m.Title, true
	case "description":
		return m.Description, true
	case "text":
		return m.Text, true
	case "director":
		return m.Director, true
	case "release_date":
		return deref(m.ReleaseDate), true
	case "runtime":
		return m.Runtime, true
	case "poster_path":
		return deref(m.PosterPath), true
	case "backdrop_path":
		return deref(m.BackdropPath), true
	case "vote_average":
		return m.VoteAverage, true
	case "vote_count":
		return m.VoteCount, true
	case "slug":
		return m.Slug, true
	}
	return m.Meta.field(name)
}

func (m *Movie) UniqueKeys() []UniqueKey {
	return []UniqueKey{
		{Field: "tmdb_id", Value: strconv.Itoa(m.TMDBID)},
		{Field: "slug", Value: m.Slug},
	}
}

func (*Movie) Relations() []Relation { return nil }

func (m *Movie) Prepare() {
	m.Title = strings.TrimSpace(m.Title)
	if m.Slug == "" {
		m.Slug = slugOr(m.Title, m.TMDBID)
	}
}

func (m *Movie) Validate() error {
	if m.Title == "" {
		return catalogerrors.NewValidationError("title", "title is required")
	}
	if m.TMDBID <= 0 {
		return catalogerrors.NewValidationError("tmdb_id", "tmdb_id must be a positive integer")
	}
	if m.Slug == "" {
		return catalogerrors.NewValidationError("slug", "slug is required")
	}
	return nil
}

type Actor struct {
	Meta
	TMDBID             int     `json:"tmdb_id" gorm:"column:tmdb_id;uniqueIndex;not null"`
	Name               string  `json:"name" gorm:"not null"`
	OriginalName       string  `json:"original_name"`
	Gender             int     `json:"gender"`
	Biography          string  `json:"biography" gorm:"type:text"`
	Birthday           *string `json:"birthday" gorm:"size:10"`
	Deathday           *string `json:"deathday" gorm:"size:10"`
	PlaceOfBirth       string  `json:"place_of_birth"`
	ProfilePath        *string `json:"profile_path"`
	Popularity         int     `json:"popularity"`
	KnownForDepartment string  `json:"known_for_department"`
	Slug               string  `json:"slug" gorm:"uniqueIndex;not null"`
}

func (*Actor) Collection() Collection { return CollectionActors }

func (a *Actor) Field(name string) (any, bool) {
	switch name {
	case "tmdb_id":
		return a.TMDBID, true
	case "name":
		return a.Name, true
	case "original_name":
		return a.OriginalName, true
	case "gender":
		return a.Gender, true
	case "biography":
		return a.Biography, true
	case "birthday":
		return deref(a.Birthday), true
	case "deathday":
		return deref(a.Deathday), true
	case "place_of_birth":
		return a.PlaceOfBirth, true
	case "profile_path":
		return deref(a.ProfilePath), true
	case "popularity":
		return a.Popularity, true
	case "known_for_department":
		return a.KnownForDepartment, true
	case "slug":
		return a.Slug, true
	}
	return a.Meta.field(name)
}

func (a *Actor) UniqueKeys() []UniqueKey {
	return []UniqueKey{
		{Field: "tmdb_id", Value: strconv.Itoa(a.TMDBID)},
		{Field: "slug", Value: a.Slug},
	}
}

func (*Actor) Relations() []Relation { return nil }

func (a *Actor) Prepare() {
	a.Name = strings.TrimSpace(a.Name)
	if a.OriginalName == "" {
		a.OriginalName = a.Name
	}
	if a.Slug == "" {
		a.Slug = slugOr(a.Name, a.TMDBID)
	}
}

func (a *Actor) Validate() error {
	if a.Name == "" {
		return catalogerrors.NewValidationError("name", "name is required")
	}
	if a.TMDBID <= 0 {
		return catalogerrors.NewValidationError("tmdb_id", "tmdb_id must be a positive integer")
	}
	if a.Slug == "" {
		return catalogerrors.NewValidationError("slug", "slug is required")
	}
	return nil
}

type Genre struct {
	Meta
	Name   string `json:"name" gorm:"not null"`
	Slug   string `json:"slug" gorm:"uniqueIndex;not null"`
	TMDBID *int   `json:"tmdb_id" gorm:"column:tmdb_id"`
}

func (*Genre) Collection() Collection { return CollectionGenres }

func (g *Genre) Field(name string) (any, bool) {
	switch name {
	case "name":
		return g.Name, true
	case "slug":
		return g.Slug, true
	case "tmdb_id":
		if g.TMDBID == nil {
			return nil, true
		}
		return *g.TMDBID, true
	}
	return g.Meta.field(name)
}

func (g *Genre) UniqueKeys() []UniqueKey {
	return []UniqueKey{{Field: "slug", Value: g.Slug}}
}

func (*Genre) Relations() []Relation { return nil }

func (g *Genre) Prepare() {
	g.Name = strings.TrimSpace(g.Name)
	if g.Slug == "" {
		g.Slug = slug.Make(g.Name)
	}
}

func (g *Genre) Validate() error {
	if g.Name == "" {
		return catalogerrors.NewValidationError("name", "name is required")
	}
	if g.Slug == "" {
		return catalogerrors.NewValidationError("slug", "slug is required")
	}
	return nil
}

// MovieGenre links a movie to a genre. Relations hold the target documentId.
type MovieGenre struct {
	Meta
	MovieID string `json:"movie" gorm:"column:movie_document_id;size:64;not null;uniqueIndex:idx_movie_genres_pair"`
	GenreID string `json:"genre" gorm:"column:genre_document_id;size:64;not null;uniqueIndex:idx_movie_genres_pair;index"`
}

func (*MovieGenre) Collection() Collection { return CollectionMovieGenres }

func (l *MovieGenre) Field(name string) (any, bool) {
	switch name {
	case "movie", "movie.documentId":
		return l.MovieID, true
	case "genre", "genre.documentId":
		return l.GenreID, true
	}
	return l.Meta.field(name)
}

func (l *MovieGenre) UniqueKeys() []UniqueKey {
	return []UniqueKey{{Field: "movie,genre", Value: l.MovieID + "|" + l.GenreID}}
}

func (l *MovieGenre) Relations() []Relation {
	return []Relation{
		{Field: "movie", Target: CollectionMovies, DocumentID: l.MovieID},
		{Field: "genre", Target: CollectionGenres, DocumentID: l.GenreID},
	}
}

func (*MovieGenre) Prepare() {}

func (l *MovieGenre) Validate() error {
	if l.MovieID == "" {
		return catalogerrors.NewValidationError("movie", "movie relation is required")
	}
	if l.GenreID == "" {
		return catalogerrors.NewValidationError("genre", "genre relation is required")
	}
	return nil
}

// MovieActor links a movie to an actor with the billed character and position.
type MovieActor struct {
	Meta
	MovieID       string `json:"movie" gorm:"column:movie_document_id;size:64;not null;uniqueIndex:idx_movie_actors_pair"`
	ActorID       string `json:"actor" gorm:"column:actor_document_id;size:64;not null;uniqueIndex:idx_movie_actors_pair;index"`
	CharacterName string `json:"character_name"`
	OrderIndex    int    `json:"order_index"`
}

func (*MovieActor) Collection() Collection { return CollectionMovieActors }

func (l *MovieActor) Field(name string) (any, bool) {
	switch name {
	case "movie", "movie.documentId":
		return l.MovieID, true
	case "actor", "actor.documentId":
		return l.ActorID, true
	case "character_name":
		return l.CharacterName, true
	case "order_index":
		return l.OrderIndex, true
	}
	return l.Meta.field(name)
}

func (l *MovieActor) UniqueKeys() []UniqueKey {
	return []UniqueKey{{Field: "movie,actor", Value: l.MovieID + "|" + l.ActorID}}
}

func (l *MovieActor) Relations() []Relation {
	return []Relation{
		{Field: "movie", Target: CollectionMovies, DocumentID: l.MovieID},
		{Field: "actor", Target: CollectionActors, DocumentID: l.ActorID},
	}
}

func (*MovieActor) Prepare() {}

func (l *MovieActor) Validate() error {
	if l.MovieID == "" {
		return catalogerrors.NewValidationError("movie", "movie relation is required")
	}
	if l.ActorID == "" {
		return catalogerrors.NewValidationError("actor", "actor relation is required")
	}
	if l.OrderIndex < 0 {
		return catalogerrors.NewValidationError("order_index", "order_index must not be negative")
	}
	return nil
}

func slugOr(s string, id int) string {
	if v := slug.Make(s); v != "" {
		return v
	}
	if id > 0 {
		return strconv.Itoa(id)
	}
	return ""
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// StringPtr returns nil for the empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
