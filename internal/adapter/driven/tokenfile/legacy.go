package tokenfile

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ericfisherdev/posixsync/internal/domain/model"
	"github.com/ericfisherdev/posixsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.LegacyTokenStore = (*LegacyStore)(nil)

// legacyToken is the gob-encoded blob earlier releases wrote to token.gob.
type legacyToken struct {
	AccessToken  string
	RefreshToken string
	TokenURI     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Expiry       time.Time
}

// LegacyStore reads the legacy gob credential file so it can be migrated.
type LegacyStore struct {
	path string
}

// NewLegacyStore creates a LegacyStore for the file at path.
func NewLegacyStore(path string) *LegacyStore {
	return &LegacyStore{path: path}
}

// Exists reports whether the legacy file is present.
func (s *LegacyStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load decodes the legacy file. Decode failures wrap driven.ErrLegacyCredential.
func (s *LegacyStore) Load(_ context.Context) (*model.Token, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open legacy token %s: %w", s.path, err)
	}
	defer f.Close() //nolint:errcheck

	var lt legacyToken
	if err := gob.NewDecoder(f).Decode(&lt); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", driven.ErrLegacyCredential, s.path, err)
	}

	return &model.Token{
		AccessToken:  lt.AccessToken,
		RefreshToken: lt.RefreshToken,
		TokenType:    "Bearer",
		TokenURI:     lt.TokenURI,
		ClientID:     lt.ClientID,
		ClientSecret: lt.ClientSecret,
		Scopes:       lt.Scopes,
		Expiry:       lt.Expiry,
	}, nil
}

// Delete removes the legacy file. A missing file is not an error.
func (s *LegacyStore) Delete(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete legacy token %s: %w", s.path, err)
	}
	return nil
}
