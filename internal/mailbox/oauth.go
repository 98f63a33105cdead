package mailbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"

	"github.com/krishhsuri/Orbit/internal/common"
)

const (
	defaultCallbackAddr = "localhost:8080"
	authTimeout         = 5 * time.Minute
)

// OAuthConfig holds the Gmail OAuth2 client settings.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	TokenFile    string
	// CallbackAddr is the local listener for the authorization redirect.
	CallbackAddr string
}

func (c OAuthConfig) config() *oauth2.Config {
	addr := c.CallbackAddr
	if addr == "" {
		addr = defaultCallbackAddr
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  "http://" + addr + "/callback",
		Scopes:       []string{gmail.GmailReadonlyScope},
	}
}

func (c OAuthConfig) validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("gmail client id and secret are required: %w", common.ErrMissingConfig)
	}
	return nil
}

// Authenticate runs the interactive consent flow: it prints the consent URL,
// waits for the redirect on the local callback listener and exchanges the code.
func Authenticate(ctx context.Context, cfg OAuthConfig) (*oauth2.Token, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	oauthConfig := cfg.config()

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			select {
			case errCh <- fmt.Errorf("no authorization code received"):
			default:
			}
			_, _ = fmt.Fprint(w, `<html><body><h1>Authentication failed</h1><p>No authorization code received.</p></body></html>`)
			return
		}
		select {
		case codeCh <- code:
		default:
		}
		_, _ = fmt.Fprint(w, `<html><body><h1>Orbit is connected</h1><p>You can close this window.</p></body></html>`)
	})

	addr := cfg.CallbackAddr
	if addr == "" {
		addr = defaultCallbackAddr
	}
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errCh <- fmt.Errorf("failed to start callback server: %w", err):
			default:
			}
		}
	}()
	defer func() {
		if err := server.Shutdown(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("Error shutting down callback server", "error", err)
		}
	}()

	authURL := oauthConfig.AuthCodeURL("orbit", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	slog.Info("Gmail authorization required")
	slog.Info("Visit this URL to grant read-only inbox access", "url", authURL)

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(authTimeout):
		return nil, fmt.Errorf("no authorization received within %s", authTimeout)
	}

	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if cfg.TokenFile != "" {
		if err := SaveToken(cfg.TokenFile, token); err != nil {
			return nil, err
		}
		slog.Info("Token saved", "file", cfg.TokenFile)
	}
	return token, nil
}

// LoadToken reads a token previously written by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("failed to decode token %s: %w", path, err)
	}
	return token, nil
}

// SaveToken writes the token with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

// TokenSource loads the stored token and returns a source that refreshes it
// on demand. A missing token file is reported as ErrNotAuthorized.
func TokenSource(ctx context.Context, cfg OAuthConfig) (oauth2.TokenSource, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	token, err := LoadToken(cfg.TokenFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no token at %s, run `orbit auth`: %w", cfg.TokenFile, common.ErrNotAuthorized)
	}
	if err != nil {
		return nil, err
	}
	return &savingTokenSource{
		base: cfg.config().TokenSource(ctx, token),
		path: cfg.TokenFile,
		last: token.AccessToken,
	}, nil
}

// savingTokenSource persists refreshed tokens so the next run can reuse them.
type savingTokenSource struct {
	base oauth2.TokenSource
	path string
	last string
	mu   sync.Mutex
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, err := s.base.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	if token.AccessToken != s.last {
		s.last = token.AccessToken
		if err := SaveToken(s.path, token); err != nil {
			slog.Warn("Failed to save refreshed token", "error", err)
		}
	}
	return token, nil
}
