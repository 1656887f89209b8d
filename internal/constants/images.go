package constants

// TMDB endpoints and the image size variants stored on catalog records
const (
	TMDBBaseURL      = "https://api.themoviedb.org/3"
	TMDBImageBaseURL = "https://image.tmdb.org/t/p"

	PosterSize   = "w500"
	BackdropSize = "original"
	ProfileSize  = "w500"
)
