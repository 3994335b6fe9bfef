package oauth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/ericfisherdev/posixsync/internal/domain/model"
	"github.com/ericfisherdev/posixsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TokenRefresher = (*Refresher)(nil)

// Refresher runs the refresh-token grant using the client identity stored in
// the token itself.
type Refresher struct{}

// NewRefresher creates a Refresher.
func NewRefresher() *Refresher {
	return &Refresher{}
}

// Refresh exchanges token's refresh token for a new access token.
func (r *Refresher) Refresh(ctx context.Context, token *model.Token) (*model.Token, error) {
	if !token.CanRefresh() {
		return nil, errors.New("token has no refresh token or token URI")
	}

	cfg := &oauth2.Config{
		ClientID:     token.ClientID,
		ClientSecret: token.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: token.TokenURI},
		Scopes:       token.Scopes,
	}

	// An empty access token forces the source to hit the token endpoint.
	fresh, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: token.RefreshToken}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode != "" {
			return nil, fmt.Errorf("refresh rejected by %s (%s): %w", token.TokenURI, retrieveErr.ErrorCode, err)
		}
		return nil, fmt.Errorf("refresh at %s: %w", token.TokenURI, err)
	}

	out := fromOAuth2(fresh, cfg, token.Scopes)
	if out.RefreshToken == "" {
		out.RefreshToken = token.RefreshToken
	}
	return out, nil
}
