package driven

import (
	"context"

	"github.com/ericfisherdev/posixsync/internal/domain/model"
)

// Authorizer obtains a brand-new token through interactive user consent.
// It returns ErrMissingCredentialsArtifact when the client-secret file is
// absent; any other error is a failure of the flow itself.
type Authorizer interface {
	Authorize(ctx context.Context, scopes []string) (*model.Token, error)
}

// TokenRefresher exchanges a token's refresh token for a new access token.
// The returned token keeps the original refresh token if the server did not
// issue a new one.
type TokenRefresher interface {
	Refresh(ctx context.Context, token *model.Token) (*model.Token, error)
}
