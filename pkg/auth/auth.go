// Package auth acquires and caches the OAuth2 credentials used by the Drive backend.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/sgaunet/gdsync/pkg/constants"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/term"
)

// File names inside the application directory.
const (
	TokenFile       = "token.json"
	CredentialsFile = "credentials.json"
)

var (
	// ErrInteractiveLogin is returned when a login is needed but stdin is not a terminal.
	ErrInteractiveLogin = errors.New("interactive login required but stdin is not a terminal")
	// ErrMissingCredentials is returned when credentials.json cannot be read.
	ErrMissingCredentials = errors.New("OAuth2 client credentials not found")
	// ErrEmptyCode is returned when no authorization code was entered.
	ErrEmptyCode = errors.New("empty authorization code")
	// ErrStateMismatch is returned when a redirect does not carry the state of this login.
	ErrStateMismatch = errors.New("OAuth2 state mismatch")
	// ErrAuthorizationDenied is returned when the consent screen reports an error.
	ErrAuthorizationDenied = errors.New("authorization denied")
)

// TokenProvider loads, refreshes, acquires and persists OAuth2 tokens.
type TokenProvider struct {
	dir         string
	in          io.Reader
	out         io.Writer
	isTerminal  func() bool
	openBrowser func(url string) error
}

// Option customizes a TokenProvider.
type Option func(*TokenProvider)

// WithPrompt replaces the terminal used for interactive login.
func WithPrompt(in io.Reader, out io.Writer, isTerminal func() bool) Option {
	return func(p *TokenProvider) {
		p.in = in
		p.out = out
		p.isTerminal = isTerminal
	}
}

// WithBrowser replaces the function opening the consent page.
// An error makes the login print the URL only.
func WithBrowser(open func(url string) error) Option {
	return func(p *TokenProvider) {
		p.openBrowser = open
	}
}

// NewTokenProvider returns a provider storing its files in appDir.
func NewTokenProvider(appDir string, opts ...Option) *TokenProvider {
	p := &TokenProvider{
		dir: appDir,
		in:  os.Stdin,
		out: os.Stderr,
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd())) //nolint:gosec // G115: fd fits in int
		},
		openBrowser: openBrowser,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Client returns an HTTP client authorized for Drive.
//
// A cached token is used when present. An expired token with a refresh token
// is refreshed on first use and the new token is persisted. Otherwise the
// user logs in through the browser, see login.
func (p *TokenProvider) Client(ctx context.Context) (*http.Client, error) {
	cfg, err := p.oauthConfig()
	if err != nil {
		return nil, err
	}

	tok, err := p.loadToken()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if tok == nil || (!tok.Valid() && tok.RefreshToken == "") {
		if tok, err = p.login(ctx, cfg); err != nil {
			return nil, err
		}
		if err := p.saveToken(tok); err != nil {
			return nil, err
		}
	}

	src := &persistingSource{
		base: cfg.TokenSource(ctx, tok),
		last: tok.AccessToken,
		save: p.saveToken,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

func (p *TokenProvider) oauthConfig() (*oauth2.Config, error) {
	path := filepath.Join(p.dir, CredentialsFile)
	//nolint:gosec // G304: path is inside the application directory
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMissingCredentials, path, err)
	}
	cfg, err := google.ConfigFromJSON(data, constants.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

func (p *TokenProvider) loadToken() (*oauth2.Token, error) {
	path := filepath.Join(p.dir, TokenFile)
	//nolint:gosec // G304: path is inside the application directory
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token %s: %w", path, err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("failed to parse token %s: %w", path, err)
	}
	return &tok, nil
}

// saveToken writes the token readable by the owner only.
func (p *TokenProvider) saveToken(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	path := filepath.Join(p.dir, TokenFile)
	if err := os.WriteFile(path, data, constants.PrivateFilePermission); err != nil {
		return fmt.Errorf("failed to save token %s: %w", path, err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, constants.PrivateFilePermission); err != nil {
		return fmt.Errorf("failed to set mode on %s: %w", path, err)
	}
	return nil
}

// persistingSource saves every newly issued access token.
type persistingSource struct {
	mu   sync.Mutex
	base oauth2.TokenSource
	last string
	save func(*oauth2.Token) error
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.base.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	if tok.AccessToken != s.last {
		if err := s.save(tok); err != nil {
			return nil, err
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}
