package driven

import "errors"

// Credential resolution failures. Adapters return or wrap these so the
// application layer can classify errors with errors.Is.
var (
	// ErrMissingCredentialsArtifact means the OAuth client-secret file needed
	// for interactive authorization does not exist.
	ErrMissingCredentialsArtifact = errors.New("oauth client secret file not found")

	// ErrAuthorizationFlow wraps any failure of the interactive consent flow.
	ErrAuthorizationFlow = errors.New("authorization flow failed")

	// ErrTokenRefresh wraps a failed refresh-token grant.
	ErrTokenRefresh = errors.New("token refresh failed")

	// ErrServiceConstruction wraps a failure to build the directory client.
	ErrServiceConstruction = errors.New("directory client construction failed")

	// ErrLegacyCredential means a legacy credential file could not be decoded.
	ErrLegacyCredential = errors.New("legacy credential unreadable")
)

// ErrNotFound is linked from a *model.APIError when the directory answers 404.
var ErrNotFound = errors.New("directory resource not found")
