// Package spotify provides a wrapper around the Spotify Web API.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/zmb3/spotify/v2"
)

const (
	defaultBaseURL = "https://api.spotify.com/v1/"
	userAgent      = "spotify-etl/1.0"
)

// Sentinel errors. APIError unwraps to one of these when the status matches.
var (
	// ErrUnauthorized is returned when the access token is rejected.
	ErrUnauthorized = errors.New("spotify: unauthorized")

	// ErrRateLimited is returned when the API answers 429.
	ErrRateLimited = errors.New("spotify: rate limit exceeded")

	// ErrNotFound is returned when the playlist does not exist.
	ErrNotFound = errors.New("spotify: not found")
)

// APIError is a non-2xx response from the Web API.
type APIError struct {
	StatusCode int
	Message    string
	RetryAfter string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("spotify API error %d: %s", e.StatusCode, e.Message)
	if e.RetryAfter != "" {
		msg += " (retry after " + e.RetryAfter + "s)"
	}
	return msg
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// Client wraps the Spotify API client with convenience methods.
type Client struct {
	api        *spotify.Client
	httpClient *http.Client
	baseURL    string
	maxPages   int
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the Web API root. The URL must end with a slash.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL == "" {
			return
		}
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		c.baseURL = baseURL
	}
}

// WithMaxPages limits how many listing pages are fetched. Zero means no limit.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		c.maxPages = n
	}
}

// New creates a new Spotify client wrapper.
// The HTTP client should already attach an access token.
func New(httpClient *http.Client, opts ...Option) *Client {
	c := &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.api = spotify.New(httpClient, spotify.WithBaseURL(c.baseURL))
	return c
}

// get performs a single GET and returns the body of a 2xx response.
// There is no retry.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			RetryAfter: resp.Header.Get("Retry-After"),
		}
		var payload errorResponse
		if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
			apiErr.Message = payload.Error.Message
		}
		return nil, apiErr
	}

	return body, nil
}

type errorResponse struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}
