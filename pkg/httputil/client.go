// Package httputil provides HTTP client utilities with standard configurations.
package httputil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	// Default timeout for HTTP requests
	defaultTimeout = 30 * time.Second

	// Transport configuration constants
	maxIdleConns        = 10
	maxIdleConnsPerHost = 2
	idleConnTimeout     = 30 * time.Second
)

// NewHTTPClient creates a new HTTP client with the specified timeout.
// The client is configured with connection pooling and idle connection management.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: newBaseTransport(),
	}
}

// NewDefaultHTTPClient creates a new HTTP client with default 30 second timeout.
// This is suitable for most API calls and web requests.
func NewDefaultHTTPClient() *http.Client {
	return NewHTTPClient(defaultTimeout)
}

// NewRetryingHTTPClient is NewHTTPClient with a RetryTransport in front of the pool.
func NewRetryingHTTPClient(timeout time.Duration, retryMax int, retryWait time.Duration, onThrottle func(time.Duration)) *http.Client {
	c := NewHTTPClient(timeout)
	c.Transport = &RetryTransport{
		Base:       c.Transport,
		RetryMax:   retryMax,
		RetryWait:  retryWait,
		OnThrottle: onThrottle,
	}
	return c
}

func newBaseTransport() *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
		IdleConnTimeout:     idleConnTimeout,
	}
}

// RetryTransport retries replayable requests (GET/HEAD without body) on network
// errors, 429 and 5xx replies. RetryMax excludes the first attempt.
type RetryTransport struct {
	Base      http.RoundTripper
	RetryMax  int
	RetryWait time.Duration

	// OnThrottle is told how long the server asked us to back off after a 429.
	OnThrottle func(time.Duration)
}

func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	max := t.RetryMax
	if max < 0 || !replayable(req) {
		max = 0
	}

	var (
		resp    *http.Response
		lastErr error
	)
	for attempt := 0; attempt <= max; attempt++ {
		if attempt > 0 {
			wait := t.backoff(attempt, resp)
			if resp != nil {
				drain(resp)
			}
			if err := sleep(req.Context(), wait); err != nil {
				return nil, err
			}
		}

		resp, lastErr = base.RoundTrip(req.Clone(req.Context()))
		if lastErr != nil {
			resp = nil
			if req.Context().Err() != nil {
				return nil, lastErr
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests && t.OnThrottle != nil {
			t.OnThrottle(RetryAfter(resp, t.RetryWait))
		}
		if !retryableStatus(resp.StatusCode) {
			return resp, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return resp, nil
}

func (t *RetryTransport) backoff(attempt int, last *http.Response) time.Duration {
	wait := time.Duration(attempt) * t.RetryWait
	if last != nil && last.StatusCode == http.StatusTooManyRequests {
		if ra := RetryAfter(last, 0); ra > wait {
			wait = ra
		}
	}
	return wait
}

// RetryAfter reads the Retry-After header in seconds, or returns fallback.
func RetryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	if resp == nil {
		return fallback
	}
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return fallback
}

func replayable(req *http.Request) bool {
	return (req.Method == http.MethodGet || req.Method == http.MethodHead) &&
		(req.Body == nil || req.Body == http.NoBody)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
