package driven

import (
	"context"

	"github.com/ericfisherdev/posixsync/internal/domain/model"
)

// TokenStore persists the current-format credential.
type TokenStore interface {
	// Load returns the stored token, or (nil, nil) if none is stored.
	Load(ctx context.Context) (*model.Token, error)

	// Save stores token, replacing any existing one.
	Save(ctx context.Context, token *model.Token) error

	// Delete removes the stored token. Deleting a missing token is not an error.
	Delete(ctx context.Context) error
}

// LegacyTokenStore reads credentials written in the previous on-disk format.
// It only exists to migrate them and can go once no legacy files remain.
type LegacyTokenStore interface {
	// Exists reports whether a legacy credential is present.
	Exists() bool

	// Load decodes the legacy credential. Returns an error wrapping
	// ErrLegacyCredential when the file cannot be decoded.
	Load(ctx context.Context) (*model.Token, error)

	// Delete removes the legacy credential.
	Delete(ctx context.Context) error
}
