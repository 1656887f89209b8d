// Package models defines data structures for TMDB API responses and catalog documents.
package models

// TMDBStatus is the error body TMDB returns alongside (or instead of) a record.
type TMDBStatus struct {
	Success       *bool  `json:"success,omitempty"`
	StatusCode    int    `json:"status_code,omitempty"`
	StatusMessage string `json:"status_message,omitempty"`
}

// Failed reports an explicit success:false.
func (s TMDBStatus) Failed() bool {
	return s.Success != nil && !*s.Success
}

type TMDBGenre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type TMDBMovie struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	Overview      string  `json:"overview"`
	PosterPath    string  `json:"poster_path"`
	BackdropPath  string  `json:"backdrop_path"`
	ReleaseDate   string  `json:"release_date"`
	VoteAverage   float64 `json:"vote_average"`
	VoteCount     int     `json:"vote_count"`
	GenreIDs      []int   `json:"genre_ids"`
	Popularity    float64 `json:"popularity"`
}

type TMDBMovieResponse struct {
	Page         int         `json:"page"`
	Results      []TMDBMovie `json:"results"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
}

type TMDBMovieDetails struct {
	TMDBStatus
	ID            int         `json:"id"`
	IMDBId        string      `json:"imdb_id"`
	Title         string      `json:"title"`
	OriginalTitle string      `json:"original_title"`
	Overview      string      `json:"overview"`
	Tagline       string      `json:"tagline"`
	PosterPath    string      `json:"poster_path"`
	BackdropPath  string      `json:"backdrop_path"`
	ReleaseDate   string      `json:"release_date"`
	Runtime       int         `json:"runtime"`
	VoteAverage   float64     `json:"vote_average"`
	VoteCount     int         `json:"vote_count"`
	Genres        []TMDBGenre `json:"genres"`
}

type TMDBPerson struct {
	TMDBStatus
	ID                 int     `json:"id"`
	Name               string  `json:"name"`
	OriginalName       string  `json:"original_name"`
	Gender             int     `json:"gender"`
	Biography          string  `json:"biography"`
	Birthday           string  `json:"birthday"`
	Deathday           string  `json:"deathday"`
	PlaceOfBirth       string  `json:"place_of_birth"`
	ProfilePath        string  `json:"profile_path"`
	Popularity         float64 `json:"popularity"`
	KnownForDepartment string  `json:"known_for_department"`
}

// MovieBundle is a fetched movie with its credits. Credits is nil when the credits request failed.
type MovieBundle struct {
	Movie    TMDBMovieDetails
	Credits  *Credits
	Director string
}

// Cast returns the billed cast, or nil without credits.
func (b *MovieBundle) Cast() []CastMember {
	if b == nil || b.Credits == nil {
		return nil
	}
	return b.Credits.Cast
}
