package fsqapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

const (
	fsqOAuth2Base = "https://foursquare.com/oauth2"
)

// Endpoint is Foursquare's OAuth2 authorization-code endpoint. Credentials
// travel in the query, not in a basic auth header.
var Endpoint = oauth2.Endpoint{
	AuthURL:   fsqOAuth2Base + "/authenticate",
	TokenURL:  fsqOAuth2Base + "/access_token",
	AuthStyle: oauth2.AuthStyleInParams,
}

var ErrNoToken = errors.New("no access token")

// Authenticator adds credentials to an outgoing API query.
type Authenticator interface {
	Authenticate(ctx context.Context, q url.Values) error
}

// TokenAuth authenticates as a user with an OAuth access token.
type TokenAuth struct {
	Source oauth2.TokenSource
}

func (a TokenAuth) Authenticate(_ context.Context, q url.Values) error {
	if a.Source == nil {
		return ErrNoToken
	}
	tok, err := a.Source.Token()
	if err != nil {
		return fmt.Errorf("obtain token: %w", err)
	}
	if tok == nil || tok.AccessToken == "" {
		return ErrNoToken
	}
	q.Set("oauth_token", tok.AccessToken)
	return nil
}

// StaticToken wraps an access token obtained earlier, e.g. read from config.
func StaticToken(token string) TokenAuth {
	return TokenAuth{Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: strings.TrimSpace(token)})}
}

// UserlessAuth authenticates as the application alone, which is enough for
// venue search and the category tree.
type UserlessAuth struct {
	ClientID     string
	ClientSecret string
}

func (a UserlessAuth) Authenticate(_ context.Context, q url.Values) error {
	if a.ClientID == "" || a.ClientSecret == "" {
		return errors.New("client id and secret are required for userless access")
	}
	q.Set("client_id", a.ClientID)
	q.Set("client_secret", a.ClientSecret)
	return nil
}

func OAuthConfig(clientId string, clientSecret string, redirectUri string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientId,
		ClientSecret: clientSecret,
		RedirectURL:  redirectUri,
		Endpoint:     Endpoint,
	}
}

// PreAuthenticate returns the URL a user has to visit to grant access.
func PreAuthenticate(cfg *oauth2.Config) string {
	return cfg.AuthCodeURL("")
}

// Authenticate trades the code Foursquare redirected back with for an access
// token.
func Authenticate(ctx context.Context, cfg *oauth2.Config, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", errors.New("empty authorization code")
	}
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}
	if tok.AccessToken == "" {
		return "", ErrNoToken
	}
	return tok.AccessToken, nil
}
