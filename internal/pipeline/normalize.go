package pipeline

import (
	"math"
	"strconv"
	"strings"

	"github.com/amaumene/gocatalog/internal/constants"
	"github.com/amaumene/gocatalog/internal/models"
	"github.com/amaumene/gocatalog/internal/slug"
)

// Normalizer maps source records to catalog documents. It performs no I/O.
type Normalizer struct {
	ImageBaseURL string
}

func NewNormalizer(imageBaseURL string) Normalizer {
	if imageBaseURL == "" {
		imageBaseURL = constants.TMDBImageBaseURL
	}
	return Normalizer{ImageBaseURL: strings.TrimRight(imageBaseURL, "/")}
}

// Movie builds the movie document. An empty director becomes the default director.
func (n Normalizer) Movie(src *models.TMDBMovieDetails, director string) *models.Movie {
	if strings.TrimSpace(director) == "" {
		director = constants.DefaultDirector
	}
	title := strings.TrimSpace(src.Title)
	return &models.Movie{
		TMDBID:       src.ID,
		Title:        title,
		Description:  src.Overview,
		Text:         src.Tagline,
		Director:     director,
		ReleaseDate:  models.StringPtr(src.ReleaseDate),
		Runtime:      src.Runtime,
		PosterPath:   n.imageURL(constants.PosterSize, src.PosterPath),
		BackdropPath: n.imageURL(constants.BackdropSize, src.BackdropPath),
		VoteAverage:  round(src.VoteAverage),
		VoteCount:    src.VoteCount,
		Slug:         slugOrID(title, src.ID),
	}
}

// Actor builds the actor document from a full person record.
func (n Normalizer) Actor(p *models.TMDBPerson) *models.Actor {
	name := strings.TrimSpace(p.Name)
	original := strings.TrimSpace(p.OriginalName)
	if original == "" {
		original = name
	}
	return &models.Actor{
		TMDBID:             p.ID,
		Name:               name,
		OriginalName:       original,
		Gender:             p.Gender,
		Biography:          p.Biography,
		Birthday:           models.StringPtr(p.Birthday),
		Deathday:           models.StringPtr(p.Deathday),
		PlaceOfBirth:       p.PlaceOfBirth,
		ProfilePath:        n.imageURL(constants.ProfileSize, p.ProfilePath),
		Popularity:         round(p.Popularity),
		KnownForDepartment: p.KnownForDepartment,
		Slug:               slugOrID(name, p.ID),
	}
}

// Genre builds the genre document; ok is false when the name yields no slug.
func (n Normalizer) Genre(g models.TMDBGenre) (*models.Genre, bool) {
	name := strings.TrimSpace(g.Name)
	s := slug.Make(name)
	if name == "" || s == "" {
		return nil, false
	}
	genre := &models.Genre{Name: name, Slug: s}
	if g.ID > 0 {
		id := g.ID
		genre.TMDBID = &id
	}
	return genre, true
}

func (n Normalizer) imageURL(size, path string) *string {
	if path == "" {
		return nil
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := n.ImageBaseURL + "/" + size + path
	return &u
}

// round rounds half away from zero.
func round(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Round(f))
}

func slugOrID(s string, id int) string {
	if v := slug.Make(s); v != "" {
		return v
	}
	return strconv.Itoa(id)
}
