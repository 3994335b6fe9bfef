package oauth

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/cli/browser"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ericfisherdev/posixsync/internal/domain/model"
	"github.com/ericfisherdev/posixsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Authorizer = (*LocalServerFlow)(nil)

// callbackResult carries what the loopback redirect delivered.
type callbackResult struct {
	code string
	err  error
}

// LocalServerFlow runs the installed-application authorization-code flow:
// it listens on a loopback port, sends the operator's browser to the consent
// page and exchanges the returned code (with PKCE) for a token.
type LocalServerFlow struct {
	secretsPath string
	listenAddr  string
	openURL     func(url string) error
}

// NewLocalServerFlow creates a flow that reads the client-secret file at
// secretsPath and opens the system browser.
func NewLocalServerFlow(secretsPath string) *LocalServerFlow {
	return NewLocalServerFlowWithOpener(secretsPath, browser.OpenURL)
}

// NewLocalServerFlowWithOpener creates a flow that calls openURL instead of
// launching a browser. This constructor is intended for testing.
func NewLocalServerFlowWithOpener(secretsPath string, openURL func(string) error) *LocalServerFlow {
	return &LocalServerFlow{
		secretsPath: secretsPath,
		listenAddr:  "127.0.0.1:0",
		openURL:     openURL,
	}
}

// Authorize obtains a new token for scopes. It blocks until the browser
// redirect arrives or ctx is canceled.
func (f *LocalServerFlow) Authorize(ctx context.Context, scopes []string) (*model.Token, error) {
	data, err := os.ReadFile(f.secretsPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", driven.ErrMissingCredentialsArtifact, f.secretsPath)
	}
	if err != nil {
		return nil, fmt.Errorf("read client secret %s: %w", f.secretsPath, err)
	}

	cfg, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse client secret %s: %w", f.secretsPath, err)
	}

	ln, err := net.Listen("tcp", f.listenAddr)
	if err != nil {
		return nil, fmt.Errorf("listen for oauth callback: %w", err)
	}
	cfg.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr().String())

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	results := make(chan callbackResult, 1)

	srv := &http.Server{
		Handler:           withMiddleware(slog.Default(), state, callbackHandler(state, results)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("oauth callback server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("oauth callback server shutdown", "error", err)
		}
	}()

	authURL := cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)
	slog.Info("launching browser for authorization", "redirect_url", cfg.RedirectURL)
	if err := f.openURL(authURL); err != nil {
		slog.Warn("could not open browser, visit the URL manually", "url", authURL, "error", err)
	}

	var res callbackResult
	select {
	case res = <-results:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for oauth callback: %w", ctx.Err())
	}
	if res.err != nil {
		return nil, res.err
	}

	tok, err := cfg.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return fromOAuth2(tok, cfg, scopes), nil
}

// callbackHandler serves the loopback redirect. Only the first callback on
// "/" is delivered; later ones are answered but dropped.
func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("consent denied: %s", q.Get("error"))
		case q.Get("state") != state:
			res.err = errors.New("oauth callback state mismatch")
		case q.Get("code") == "":
			res.err = errors.New("oauth callback carried no code")
		default:
			res.code = q.Get("code")
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if res.err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprintf(w, "Authorization failed: %v\n", res.err)
		} else {
			_, _ = fmt.Fprintln(w, "Authorization complete. You may close this window.")
		}

		select {
		case results <- res:
		default:
		}
	})
}
