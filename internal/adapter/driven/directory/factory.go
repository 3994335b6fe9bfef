package directory

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gregjones/httpcache"
	"golang.org/x/oauth2"

	"github.com/ericfisherdev/posixsync/internal/domain/model"
	"github.com/ericfisherdev/posixsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DirectoryClientFactory = (*Factory)(nil)

// Factory builds authenticated Clients with the following transport stack:
//  1. oauth2 (bearer token, refresh for long runs, saved through Store)
//  2. httpcache over Cache (ETag revalidation, served-from-cache on 304)
//  3. Instrument, when set (request metrics)
//  4. x/time/rate token bucket (RequestsPerSecond; zero disables pacing)
type Factory struct {
	BaseURL           string
	Scopes            []string
	RequestsPerSecond float64
	Instrument        func(http.RoundTripper) http.RoundTripper
	// Cache holds cached responses; nil selects a per-client memory cache.
	Cache httpcache.Cache
	// Store receives tokens the transport refreshes mid-run; nil skips saving.
	Store driven.TokenStore
}

// NewFactory creates a Factory for the API rooted at baseURL. An empty
// baseURL selects DefaultBaseURL.
func NewFactory(baseURL string, scopes []string) *Factory {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Factory{BaseURL: baseURL, Scopes: scopes}
}

// NewDirectoryClient returns a Client that authenticates with token. ctx is
// retained by the transport for token refresh requests.
func (f *Factory) NewDirectoryClient(ctx context.Context, token *model.Token) (driven.DirectoryClient, error) {
	if token == nil || token.AccessToken == "" {
		return nil, errors.New("no access token")
	}

	cfg := &oauth2.Config{
		ClientID:     token.ClientID,
		ClientSecret: token.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: token.TokenURI},
		Scopes:       f.Scopes,
	}

	var transport http.RoundTripper = http.DefaultTransport
	transport = newRateLimitTransport(f.RequestsPerSecond, transport)
	if f.Instrument != nil {
		transport = f.Instrument(transport)
	}
	responses := f.Cache
	if responses == nil {
		responses = httpcache.NewMemoryCache()
	}
	cached := httpcache.NewTransport(responses)
	cached.Transport = transport

	base := &http.Client{Transport: cached}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	initial := &oauth2.Token{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}
	src := &savingTokenSource{
		ctx:    context.WithoutCancel(ctx),
		next:   cfg.TokenSource(ctx, initial),
		store:  f.Store,
		tmpl:   *token,
		access: token.AccessToken,
	}

	client, err := NewClient(oauth2.NewClient(ctx, src), f.BaseURL, responses)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// savingTokenSource hands out tokens from next and saves each new access
// token, so a refresh inside the transport is not lost when the run ends.
type savingTokenSource struct {
	ctx   context.Context
	next  oauth2.TokenSource
	store driven.TokenStore

	mu     sync.Mutex
	tmpl   model.Token
	access string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.next.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t.AccessToken == s.access {
		return t, nil
	}
	s.access = t.AccessToken

	s.tmpl.AccessToken = t.AccessToken
	s.tmpl.TokenType = t.TokenType
	s.tmpl.Expiry = t.Expiry
	if t.RefreshToken != "" {
		s.tmpl.RefreshToken = t.RefreshToken
	}
	if s.store != nil {
		saved := s.tmpl
		if err := s.store.Save(s.ctx, &saved); err != nil {
			slog.Warn("saving refreshed token failed", "error", err)
		} else {
			slog.Info("saved token refreshed during run")
		}
	}
	return t, nil
}
