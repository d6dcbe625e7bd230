package fsqapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestPreAuthenticate(t *testing.T) {
	authURL := PreAuthenticate(OAuthConfig("id", "secret", "http://example.com/cb"))

	u, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}
	if !strings.HasPrefix(authURL, "https://foursquare.com/oauth2/authenticate?") {
		t.Fatalf("unexpected auth url %q", authURL)
	}
	q := u.Query()
	if q.Get("client_id") != "id" || q.Get("response_type") != "code" || q.Get("redirect_uri") != "http://example.com/cb" {
		t.Fatalf("unexpected auth query: %v", q)
	}
}

func TestAuthenticateExchangesCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.Form.Get("code") != "the-code" || r.Form.Get("client_secret") != "secret" {
			t.Errorf("unexpected token request: %v", r.Form)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"fresh-token"}`)
	}))
	t.Cleanup(server.Close)

	cfg := OAuthConfig("id", "secret", "http://example.com/cb")
	cfg.Endpoint.TokenURL = server.URL

	token, err := Authenticate(context.Background(), cfg, " the-code\n")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if token != "fresh-token" {
		t.Fatalf("unexpected token %q", token)
	}
}

func TestAuthenticateRejectsEmptyCode(t *testing.T) {
	if _, err := Authenticate(context.Background(), OAuthConfig("id", "secret", ""), "  "); err == nil {
		t.Fatal("expected error for empty code")
	}
}

func TestTokenAuthSetsOAuthToken(t *testing.T) {
	q := url.Values{}
	if err := StaticToken("abc").Authenticate(context.Background(), q); err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if q.Get("oauth_token") != "abc" {
		t.Fatalf("unexpected query %v", q)
	}
}
