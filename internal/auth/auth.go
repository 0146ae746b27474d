// Package auth obtains app-level Spotify API access with the client
// credentials grant.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var (
	// ErrMissingCredentials is returned when SPOTIFY_ID or SPOTIFY_SECRET is not set.
	ErrMissingCredentials = errors.New("missing SPOTIFY_ID or SPOTIFY_SECRET environment variable")
)

// Authenticator exchanges client credentials for access tokens.
type Authenticator struct {
	config *clientcredentials.Config
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithTokenURL overrides the Spotify accounts token endpoint.
func WithTokenURL(url string) Option {
	return func(a *Authenticator) {
		if url != "" {
			a.config.TokenURL = url
		}
	}
}

// New creates an Authenticator for the given app credentials.
// Returns ErrMissingCredentials if either value is empty.
func New(clientID, clientSecret string, opts ...Option) (*Authenticator, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrMissingCredentials
	}

	a := &Authenticator{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     spotifyauth.TokenURL,
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Client requests an access token and returns an HTTP client that sends it.
// The token is fetched eagerly so credential problems surface here rather
// than on the first API call.
func (a *Authenticator) Client(ctx context.Context) (*http.Client, error) {
	ts := a.config.TokenSource(ctx)

	token, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("requesting access token: %w", err)
	}

	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, ts)), nil
}
