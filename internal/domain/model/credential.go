package model

import (
	"slices"
	"time"
)

// expiryDelta is how early a token is treated as expired, so a request never
// leaves with a token that lapses in flight.
const expiryDelta = 10 * time.Second

// Token holds the OAuth2 credential material for the directory API, including
// the client identity needed to refresh it without the client-secret file.
type Token struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	TokenURI     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Expiry       time.Time
}

// Expired reports whether the access token has an expiry and it has passed.
// A zero Expiry never expires.
func (t *Token) Expired(now time.Time) bool {
	if t.Expiry.IsZero() {
		return false
	}
	return !now.Add(expiryDelta).Before(t.Expiry)
}

// Valid reports whether the token can be used for a request right now.
func (t *Token) Valid(now time.Time) bool {
	return t != nil && t.AccessToken != "" && !t.Expired(now)
}

// CanRefresh reports whether the token carries what a refresh grant needs.
func (t *Token) CanRefresh() bool {
	return t != nil && t.RefreshToken != "" && t.TokenURI != ""
}

// CoversScopes reports whether every requested scope was granted. A token with
// no recorded scopes is assumed to cover them; older files did not store any.
func (t *Token) CoversScopes(scopes []string) bool {
	if len(t.Scopes) == 0 {
		return true
	}
	for _, s := range scopes {
		if !slices.Contains(t.Scopes, s) {
			return false
		}
	}
	return true
}
