package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/amaumene/gocatalog/internal/constants"
	catalogerrors "github.com/amaumene/gocatalog/internal/errors"
	"github.com/amaumene/gocatalog/internal/models"
	"github.com/amaumene/gocatalog/pkg/httputil"
	"github.com/amaumene/gocatalog/pkg/logger"
	"github.com/amaumene/gocatalog/pkg/ratelimiter"
	"github.com/amaumene/gocatalog/pkg/security"
)

// TMDBOptions configures a TMDB client. Zero values fall back to package defaults.
type TMDBOptions struct {
	APIKey    string
	BaseURL   string
	Language  string
	RateLimit int
	Timeout   time.Duration
	RetryMax  int
	RetryWait time.Duration
}

// TMDB reads movies, credits and people from the TMDB v3 API.
type TMDB struct {
	apiKey      string
	baseURL     string
	language    string
	rateLimiter *ratelimiter.TokenBucket
	httpClient  *http.Client
	logger      logger.Logger
	validator   *security.APIKeyValidator
}

func NewTMDB(opts TMDBOptions, log logger.Logger) *TMDB {
	validator := security.NewAPIKeyValidator()

	if opts.BaseURL == "" {
		opts.BaseURL = constants.TMDBBaseURL
	}
	if opts.Language == "" {
		opts.Language = constants.DefaultLanguage
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = constants.TMDBRateLimit
	}
	if log == nil {
		log = logger.New()
	}

	t := &TMDB{
		apiKey:      validator.SanitizeAPIKey(opts.APIKey),
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		language:    opts.Language,
		rateLimiter: ratelimiter.NewTokenBucket(constants.TMDBRateBurst, int64(opts.RateLimit)),
		logger:      log,
		validator:   validator,
	}
	t.httpClient = httputil.NewRetryingHTTPClient(opts.Timeout, opts.RetryMax, opts.RetryWait, t.throttled)

	if t.apiKey != "" && !validator.IsValidTMDBKey(t.apiKey) {
		t.logger.Warnf("[TMDB] API key does not look like a v3 key (key: %s)", validator.MaskAPIKey(t.apiKey))
	}
	return t
}

// FetchMovie returns the movie details and credits of id. A missing record yields ErrSourceNotFound.
// A failed credits request keeps the movie, with no cast and the default director.
func (t *TMDB) FetchMovie(ctx context.Context, id int) (*models.MovieBundle, error) {
	var movie models.TMDBMovieDetails
	status, err := t.getJSON(ctx, fmt.Sprintf("/movie/%d", id), nil, &movie)
	if status == http.StatusNotFound {
		return nil, catalogerrors.NewSourceNotFoundError("movie", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch movie %d: %w", id, err)
	}
	if movie.Failed() || strings.TrimSpace(movie.Title) == "" {
		return nil, catalogerrors.NewSourceNotFoundError("movie", id)
	}

	bundle := &models.MovieBundle{Movie: movie, Director: constants.DefaultDirector}

	var credits models.Credits
	if _, err := t.getJSON(ctx, fmt.Sprintf("/movie/%d/credits", id), nil, &credits); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		t.logger.Warnf("[TMDB] failed to fetch credits for movie %d: %v", id, err)
		return bundle, nil
	}
	bundle.Credits = &credits
	if name, ok := credits.DirectorName(); ok {
		bundle.Director = name
	}

	t.logger.Debugf("[TMDB] fetched movie %d %q (%d cast, director %s)", id, movie.Title, len(credits.Cast), bundle.Director)
	return bundle, nil
}

// FetchPerson returns the biography of a person. A missing record yields ErrSourceNotFound.
func (t *TMDB) FetchPerson(ctx context.Context, id int) (*models.TMDBPerson, error) {
	var person models.TMDBPerson
	status, err := t.getJSON(ctx, fmt.Sprintf("/person/%d", id), nil, &person)
	if status == http.StatusNotFound {
		return nil, catalogerrors.NewSourceNotFoundError("person", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch person %d: %w", id, err)
	}
	if person.Failed() || strings.TrimSpace(person.Name) == "" {
		return nil, catalogerrors.NewSourceNotFoundError("person", id)
	}
	return &person, nil
}

// SearchMovies returns the first result page of a title search.
func (t *TMDB) SearchMovies(ctx context.Context, query string) ([]models.TMDBMovie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	var resp models.TMDBMovieResponse
	params := url.Values{"query": {query}, "include_adult": {"false"}}
	if _, err := t.getJSON(ctx, "/search/movie", params, &resp); err != nil {
		return nil, fmt.Errorf("failed to search movies %q: %w", query, err)
	}
	t.logger.Debugf("[TMDB] search %q returned %d results", query, len(resp.Results))
	return resp.Results, nil
}

// getJSON decodes a 2xx reply into out. The status code is returned whenever a reply was received.
func (t *TMDB) getJSON(ctx context.Context, path string, params url.Values, out any) (int, error) {
	if t.apiKey == "" {
		return 0, catalogerrors.NewConfigurationError("TMDB API key not configured", nil)
	}
	if err := t.rateLimiter.Wait(ctx); err != nil {
		return 0, err
	}

	reqURL := t.buildURL(path, params)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return 0, catalogerrors.NewTransportError("TMDB request "+path+" failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, &catalogerrors.StatusError{
			Method:     http.MethodGet,
			URL:        path,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode TMDB response for %s: %w", path, err)
	}
	return resp.StatusCode, nil
}

func (t *TMDB) buildURL(path string, params url.Values) string {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("api_key", t.apiKey)
	q.Set("language", t.language)
	return t.baseURL + path + "?" + q.Encode()
}

func (t *TMDB) throttled(d time.Duration) {
	t.logger.Warnf("[TMDB] rate limited, pausing for %s", d)
	t.rateLimiter.Penalize(d)
}

// ParseTMDBID parses a positive numeric id.
func ParseTMDBID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, catalogerrors.NewValidationError("tmdb_id", fmt.Sprintf("invalid TMDB id %q", s))
	}
	return id, nil
}
