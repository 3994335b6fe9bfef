package driven

import (
	"context"

	"github.com/ericfisherdev/posixsync/internal/domain/model"
)

// DirectoryClient defines the driven port for the remote directory API.
// Remote rejections are returned as *model.APIError; any other error is a
// transport or encoding failure.
type DirectoryClient interface {
	// FetchUser returns the full projection of a user.
	FetchUser(ctx context.Context, userKey string) (model.UserRecord, error)
	// UpdateUser replaces the user with body (full update).
	UpdateUser(ctx context.Context, userKey string, body model.UserRecord) (model.UserRecord, error)
	// FetchGroup returns a group.
	FetchGroup(ctx context.Context, groupKey string) (model.GroupRecord, error)
	// PatchGroup applies the fields in body to the group (partial update).
	PatchGroup(ctx context.Context, groupKey string, body map[string]any) (model.GroupRecord, error)
}

// DirectoryClientFactory builds an authenticated DirectoryClient for a token.
type DirectoryClientFactory interface {
	NewDirectoryClient(ctx context.Context, token *model.Token) (DirectoryClient, error)
}
