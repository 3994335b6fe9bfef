package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/posixsync/internal/domain/model"
	"github.com/ericfisherdev/posixsync/internal/domain/port/driven"
)

// CredentialService resolves a usable directory API credential and builds the
// authenticated client. It is the only component that writes credentials.
type CredentialService struct {
	store      driven.TokenStore
	legacy     driven.LegacyTokenStore
	refresher  driven.TokenRefresher
	authorizer driven.Authorizer
	factory    driven.DirectoryClientFactory
	scopes     []string
	now        func() time.Time
}

// NewCredentialService creates a CredentialService. legacy may be nil when no
// legacy credential migration is wanted.
func NewCredentialService(
	store driven.TokenStore,
	legacy driven.LegacyTokenStore,
	refresher driven.TokenRefresher,
	authorizer driven.Authorizer,
	factory driven.DirectoryClientFactory,
	scopes []string,
) *CredentialService {
	return &CredentialService{
		store:      store,
		legacy:     legacy,
		refresher:  refresher,
		authorizer: authorizer,
		factory:    factory,
		scopes:     scopes,
		now:        time.Now,
	}
}

// Resolve returns a directory client authenticated with a valid credential.
// Errors wrap ErrMissingCredentialsArtifact, ErrAuthorizationFlow or
// ErrServiceConstruction; all of them mean no update can be attempted.
func (s *CredentialService) Resolve(ctx context.Context) (driven.DirectoryClient, error) {
	tok, err := s.ResolveToken(ctx)
	if err != nil {
		return nil, err
	}

	client, err := s.factory.NewDirectoryClient(ctx, tok)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", driven.ErrServiceConstruction, err)
	}
	slog.Info("directory client ready", "scopes", s.scopes)
	return client, nil
}

// ResolveToken walks the credential state machine: stored token, legacy
// migration, refresh, then interactive authorization. A token that was
// refreshed or newly authorized is persisted before it is returned.
func (s *CredentialService) ResolveToken(ctx context.Context) (*model.Token, error) {
	tok := s.loadCurrent(ctx)
	if tok == nil {
		migrated, err := s.MigrateLegacyCredential(ctx)
		if err != nil {
			slog.Warn("legacy credential ignored", "error", err)
		}
		tok = migrated
	}

	if tok != nil && !tok.CoversScopes(s.scopes) {
		slog.Warn("stored credential lacks required scopes, re-authorizing",
			"granted", tok.Scopes,
			"required", s.scopes,
		)
		tok = nil
	}

	if tok.Valid(s.now()) {
		slog.Info("using stored credential", "expiry", tok.Expiry)
		return tok, nil
	}

	if tok.CanRefresh() {
		refreshed, err := s.refresher.Refresh(ctx, tok)
		if err != nil {
			slog.Warn("deleting stored credential and re-authorizing",
				"error", fmt.Errorf("%w: %w", driven.ErrTokenRefresh, err),
			)
			if delErr := s.store.Delete(ctx); delErr != nil {
				slog.Error("failed to delete stale credential", "error", delErr)
			}
			tok = nil
		} else {
			slog.Info("credential refreshed", "expiry", refreshed.Expiry)
			tok = refreshed
		}
	} else {
		tok = nil
	}

	if tok == nil {
		authorized, err := s.authorizer.Authorize(ctx, s.scopes)
		if err != nil {
			if errors.Is(err, driven.ErrMissingCredentialsArtifact) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", driven.ErrAuthorizationFlow, err)
		}
		slog.Info("authorization complete")
		tok = authorized
	}

	if err := s.store.Save(ctx, tok); err != nil {
		slog.Error("failed to persist credential", "error", err)
	} else {
		slog.Info("credential saved")
	}
	return tok, nil
}

// MigrateLegacyCredential converts a valid legacy credential to the current
// format and deletes the legacy file. It returns (nil, nil) when there is no
// legacy file or its token is no longer valid. Decode failures wrap
// ErrLegacyCredential.
func (s *CredentialService) MigrateLegacyCredential(ctx context.Context) (*model.Token, error) {
	if s.legacy == nil || !s.legacy.Exists() {
		return nil, nil
	}

	tok, err := s.legacy.Load(ctx)
	if err != nil {
		if !errors.Is(err, driven.ErrLegacyCredential) {
			err = fmt.Errorf("%w: %w", driven.ErrLegacyCredential, err)
		}
		return nil, err
	}
	if !tok.Valid(s.now()) {
		slog.Info("legacy credential is no longer valid, discarding")
		return nil, nil
	}

	if err := s.store.Save(ctx, tok); err != nil {
		// Keep the legacy file so the next run can retry the migration.
		slog.Error("failed to write migrated credential", "error", err)
		return tok, nil
	}
	if err := s.legacy.Delete(ctx); err != nil {
		slog.Warn("migrated legacy credential but could not delete it", "error", err)
	}
	slog.Info("migrated legacy credential to current format")
	return tok, nil
}

// loadCurrent returns the stored current-format token, or nil when there is
// none or it cannot be read.
func (s *CredentialService) loadCurrent(ctx context.Context) *model.Token {
	tok, err := s.store.Load(ctx)
	if err != nil {
		slog.Warn("stored credential unreadable, ignoring", "error", err)
		return nil
	}
	return tok
}
