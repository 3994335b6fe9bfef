// Package tokenfile persists OAuth credentials on the local filesystem.
package tokenfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"

	"github.com/ericfisherdev/posixsync/internal/domain/model"
	"github.com/ericfisherdev/posixsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TokenStore = (*Store)(nil)

// tokenJSON is the on-disk authorized-user format. Field names match what
// Google client libraries write, so a token.json from those tools loads as-is.
type tokenJSON struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	TokenType    string   `json:"token_type,omitempty"`
	TokenURI     string   `json:"token_uri,omitempty"`
	ClientID     string   `json:"client_id,omitempty"`
	ClientSecret string   `json:"client_secret,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`
	Expiry       string   `json:"expiry,omitempty"`
}

// Store keeps the current-format credential in a single JSON file.
type Store struct {
	path string
}

// NewStore creates a Store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the token file. Returns (nil, nil) if the file does not exist.
func (s *Store) Load(_ context.Context) (*model.Token, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token file %s: %w", s.path, err)
	}

	var tj tokenJSON
	if err := json.Unmarshal(data, &tj); err != nil {
		return nil, fmt.Errorf("decode token file %s: %w", s.path, err)
	}

	tok := &model.Token{
		AccessToken:  tj.Token,
		RefreshToken: tj.RefreshToken,
		TokenType:    tj.TokenType,
		TokenURI:     tj.TokenURI,
		ClientID:     tj.ClientID,
		ClientSecret: tj.ClientSecret,
		Scopes:       tj.Scopes,
	}
	if tj.Expiry != "" {
		expiry, err := parseExpiry(tj.Expiry)
		if err != nil {
			return nil, fmt.Errorf("parse expiry in %s: %w", s.path, err)
		}
		tok.Expiry = expiry
	}
	return tok, nil
}

// Save writes token atomically, replacing any existing file. New files are
// created with mode 0600.
func (s *Store) Save(_ context.Context, token *model.Token) error {
	if token == nil {
		return errors.New("save token: token is nil")
	}

	tj := tokenJSON{
		Token:        token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		TokenURI:     token.TokenURI,
		ClientID:     token.ClientID,
		ClientSecret: token.ClientSecret,
		Scopes:       token.Scopes,
	}
	if !token.Expiry.IsZero() {
		tj.Expiry = token.Expiry.UTC().Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(tj, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write token file %s: %w", s.path, err)
	}
	return nil
}

// Delete removes the token file. A missing file is not an error.
func (s *Store) Delete(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete token file %s: %w", s.path, err)
	}
	return nil
}

// parseExpiry accepts RFC 3339 and the zone-less ISO form some tools write.
func parseExpiry(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05.999999999", v)
}
