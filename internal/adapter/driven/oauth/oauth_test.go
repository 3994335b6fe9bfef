package oauth_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/posixsync/internal/adapter/driven/oauth"
	"github.com/ericfisherdev/posixsync/internal/domain/model"
	"github.com/ericfisherdev/posixsync/internal/domain/port/driven"
)

var testScopes = []string{
	"https://www.googleapis.com/auth/admin.directory.user",
	"https://www.googleapis.com/auth/admin.directory.group",
}

// newTokenServer starts a token endpoint that runs check on each request form
// and answers with body.
func newTokenServer(t *testing.T, status int, body map[string]any, check func(url.Values)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if check != nil {
			check(r.PostForm)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return server
}

// writeClientSecret writes an installed-app client secret pointing at tokenURL.
func writeClientSecret(t *testing.T, tokenURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	secret := map[string]any{
		"installed": map[string]any{
			"client_id":     "cid.apps.googleusercontent.com",
			"client_secret": "csecret",
			"redirect_uris": []string{"http://localhost"},
			"auth_uri":      "https://accounts.example.com/o/oauth2/auth",
			"token_uri":     tokenURL,
		},
	}
	b, err := json.Marshal(secret)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

// consentingBrowser follows the auth URL back to the redirect URI the way a
// browser would after the operator approves.
func consentingBrowser(t *testing.T, seen *url.Values) func(string) error {
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		q := u.Query()
		*seen = q
		cb := fmt.Sprintf("%s?code=authcode-1&state=%s", q.Get("redirect_uri"), url.QueryEscape(q.Get("state")))
		resp, err := http.Get(cb) //nolint:noctx
		if err != nil {
			return err
		}
		return resp.Body.Close()
	}
}

func TestLocalServerFlow_Authorize(t *testing.T) {
	tokenServer := newTokenServer(t, http.StatusOK, map[string]any{
		"access_token":  "ya29.new",
		"refresh_token": "1//refresh",
		"token_type":    "Bearer",
		"expires_in":    3600,
	}, func(form url.Values) {
		assert.Equal(t, "authorization_code", form.Get("grant_type"))
		assert.Equal(t, "authcode-1", form.Get("code"))
		assert.NotEmpty(t, form.Get("code_verifier"))
	})
	secretPath := writeClientSecret(t, tokenServer.URL)

	var authQuery url.Values
	flow := oauth.NewLocalServerFlowWithOpener(secretPath, consentingBrowser(t, &authQuery))

	tok, err := flow.Authorize(context.Background(), testScopes)

	require.NoError(t, err)
	assert.Equal(t, "ya29.new", tok.AccessToken)
	assert.Equal(t, "1//refresh", tok.RefreshToken)
	assert.Equal(t, tokenServer.URL, tok.TokenURI)
	assert.Equal(t, "cid.apps.googleusercontent.com", tok.ClientID)
	assert.Equal(t, "csecret", tok.ClientSecret)
	assert.Equal(t, testScopes, tok.Scopes)
	assert.True(t, tok.Valid(time.Now()))

	assert.Equal(t, "offline", authQuery.Get("access_type"))
	assert.Equal(t, "consent", authQuery.Get("prompt"))
	assert.Equal(t, "S256", authQuery.Get("code_challenge_method"))
	assert.Contains(t, authQuery.Get("redirect_uri"), "http://127.0.0.1:")
}

func TestLocalServerFlow_MissingClientSecret(t *testing.T) {
	flow := oauth.NewLocalServerFlowWithOpener(filepath.Join(t.TempDir(), "absent.json"), func(string) error {
		t.Fatal("browser must not open without a client secret")
		return nil
	})

	_, err := flow.Authorize(context.Background(), testScopes)
	assert.ErrorIs(t, err, driven.ErrMissingCredentialsArtifact)
}

func TestLocalServerFlow_ConsentDenied(t *testing.T) {
	secretPath := writeClientSecret(t, "http://127.0.0.1:1/token")
	flow := oauth.NewLocalServerFlowWithOpener(secretPath, func(authURL string) error {
		u, _ := url.Parse(authURL)
		resp, err := http.Get(u.Query().Get("redirect_uri") + "?error=access_denied") //nolint:noctx
		if err != nil {
			return err
		}
		return resp.Body.Close()
	})

	_, err := flow.Authorize(context.Background(), testScopes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied")
}

func TestLocalServerFlow_ContextCanceled(t *testing.T) {
	secretPath := writeClientSecret(t, "http://127.0.0.1:1/token")
	ctx, cancel := context.WithCancel(context.Background())
	flow := oauth.NewLocalServerFlowWithOpener(secretPath, func(string) error {
		cancel()
		return errors.New("no browser available")
	})

	_, err := flow.Authorize(ctx, testScopes)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRefresher_Refresh(t *testing.T) {
	tokenServer := newTokenServer(t, http.StatusOK, map[string]any{
		"access_token": "ya29.refreshed",
		"token_type":   "Bearer",
		"expires_in":   3600,
	}, func(form url.Values) {
		assert.Equal(t, "refresh_token", form.Get("grant_type"))
		assert.Equal(t, "1//old", form.Get("refresh_token"))
	})

	old := &model.Token{
		AccessToken:  "ya29.stale",
		RefreshToken: "1//old",
		TokenURI:     tokenServer.URL,
		ClientID:     "cid",
		ClientSecret: "cs",
		Scopes:       testScopes,
		Expiry:       time.Now().Add(-time.Hour),
	}

	fresh, err := oauth.NewRefresher().Refresh(context.Background(), old)

	require.NoError(t, err)
	assert.Equal(t, "ya29.refreshed", fresh.AccessToken)
	assert.Equal(t, "1//old", fresh.RefreshToken, "refresh token is kept when none is reissued")
	assert.Equal(t, testScopes, fresh.Scopes)
	assert.Equal(t, "cid", fresh.ClientID)
	assert.True(t, fresh.Valid(time.Now()))
}

func TestRefresher_Rejected(t *testing.T) {
	tokenServer := newTokenServer(t, http.StatusBadRequest, map[string]any{
		"error":             "invalid_grant",
		"error_description": "Token has been expired or revoked.",
	}, nil)

	_, err := oauth.NewRefresher().Refresh(context.Background(), &model.Token{
		RefreshToken: "1//revoked",
		TokenURI:     tokenServer.URL,
		ClientID:     "cid",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_grant")
}

func TestRefresher_NoRefreshToken(t *testing.T) {
	_, err := oauth.NewRefresher().Refresh(context.Background(), &model.Token{AccessToken: "a"})
	assert.Error(t, err)
}
