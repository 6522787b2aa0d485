package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// tokenServer fakes the OAuth2 token endpoint and a protected API endpoint.
type tokenServer struct {
	*httptest.Server
	exchanges    atomic.Int32
	refreshes    atomic.Int32
	lastAuth     atomic.Value
	lastVerifier atomic.Value
}

func newTokenServer(t *testing.T) *tokenServer {
	t.Helper()
	ts := &tokenServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var access string
		switch r.Form.Get("grant_type") {
		case "authorization_code":
			ts.exchanges.Add(1)
			ts.lastVerifier.Store(r.Form.Get("code_verifier"))
			access = "access-from-" + r.Form.Get("code")
		case "refresh_token":
			ts.refreshes.Add(1)
			access = "refreshed-access"
		default:
			http.Error(w, "bad grant", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  access,
			"token_type":    "Bearer",
			"expires_in":    3600,
			"refresh_token": "refresh-1",
		})
	})
	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		ts.lastAuth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	})
	ts.Server = httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func writeCredentials(t *testing.T, dir, tokenURL string) {
	t.Helper()
	creds := fmt.Sprintf(`{"installed":{"client_id":"cid","client_secret":"secret",`+
		`"auth_uri":"https://accounts.example.com/auth","token_uri":%q,`+
		`"redirect_uris":["http://localhost"]}}`, tokenURL)
	require.NoError(t, os.WriteFile(filepath.Join(dir, CredentialsFile), []byte(creds), 0o600))
}

func writeToken(t *testing.T, dir string, tok *oauth2.Token) {
	t.Helper()
	data, err := json.Marshal(tok)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, TokenFile), data, 0o600))
}

func readToken(t *testing.T, dir string) *oauth2.Token {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, TokenFile))
	require.NoError(t, err)
	var tok oauth2.Token
	require.NoError(t, json.Unmarshal(data, &tok))
	return &tok
}

func callAPI(t *testing.T, client *http.Client, url string) {
	t.Helper()
	resp, err := client.Get(url + "/api")
	require.NoError(t, err)
	_ = resp.Body.Close()
}

func notTerminal() bool { return false }
func terminal() bool    { return true }

func noBrowser(string) error { return errors.New("no browser") }

// idlePrompt is a terminal on which nothing is ever typed.
func idlePrompt(t *testing.T) io.Reader {
	t.Helper()
	r, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })
	return r
}

// browserFollowing returns a browser that approves the consent page at once
// and follows the redirect with code.
func browserFollowing(t *testing.T, code string, visited *url.Values) func(string) error {
	t.Helper()
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		require.NoError(t, err)
		*visited = u.Query()

		redirect := visited.Get("redirect_uri") + "?" + url.Values{
			"code":  {code},
			"state": {visited.Get("state")},
		}.Encode()
		resp, err := http.Get(redirect) //nolint:noctx // test helper
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		return nil
	}
}

func TestClient_CachedToken(t *testing.T) {
	srv := newTokenServer(t)
	dir := t.TempDir()
	writeCredentials(t, dir, srv.URL+"/token")
	writeToken(t, dir, &oauth2.Token{
		AccessToken: "cached",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	})

	p := NewTokenProvider(dir, WithPrompt(strings.NewReader(""), &strings.Builder{}, notTerminal))
	client, err := p.Client(context.Background())
	require.NoError(t, err)

	callAPI(t, client, srv.URL)
	assert.Equal(t, "Bearer cached", srv.lastAuth.Load())
	assert.Zero(t, srv.refreshes.Load())
	assert.Zero(t, srv.exchanges.Load())
}

func TestClient_RefreshesExpiredToken(t *testing.T) {
	srv := newTokenServer(t)
	dir := t.TempDir()
	writeCredentials(t, dir, srv.URL+"/token")
	writeToken(t, dir, &oauth2.Token{
		AccessToken:  "stale",
		TokenType:    "Bearer",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(-time.Hour),
	})

	p := NewTokenProvider(dir, WithPrompt(strings.NewReader(""), &strings.Builder{}, notTerminal))
	client, err := p.Client(context.Background())
	require.NoError(t, err)

	callAPI(t, client, srv.URL)
	assert.Equal(t, "Bearer refreshed-access", srv.lastAuth.Load())
	assert.Equal(t, int32(1), srv.refreshes.Load())

	saved := readToken(t, dir)
	assert.Equal(t, "refreshed-access", saved.AccessToken)
	assert.Equal(t, "refresh-1", saved.RefreshToken)

	info, err := os.Stat(filepath.Join(dir, TokenFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestClient_InteractiveLogin(t *testing.T) {
	srv := newTokenServer(t)
	dir := t.TempDir()
	writeCredentials(t, dir, srv.URL+"/token")

	var out strings.Builder
	p := NewTokenProvider(dir, WithPrompt(strings.NewReader("the-code\n"), &out, terminal), WithBrowser(noBrowser))
	client, err := p.Client(context.Background())
	require.NoError(t, err)

	assert.Contains(t, out.String(), "https://accounts.example.com/auth")
	assert.Equal(t, int32(1), srv.exchanges.Load())

	callAPI(t, client, srv.URL)
	assert.Equal(t, "Bearer access-from-the-code", srv.lastAuth.Load())

	saved := readToken(t, dir)
	assert.Equal(t, "access-from-the-code", saved.AccessToken)
	info, err := os.Stat(filepath.Join(dir, TokenFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestClient_ExpiredWithoutRefreshTokenLogsIn(t *testing.T) {
	srv := newTokenServer(t)
	dir := t.TempDir()
	writeCredentials(t, dir, srv.URL+"/token")
	writeToken(t, dir, &oauth2.Token{AccessToken: "stale", Expiry: time.Now().Add(-time.Hour)})

	p := NewTokenProvider(dir, WithPrompt(strings.NewReader(""), &strings.Builder{}, notTerminal))
	_, err := p.Client(context.Background())
	require.ErrorIs(t, err, ErrInteractiveLogin)
}

func TestClient_NoTokenNotTerminal(t *testing.T) {
	srv := newTokenServer(t)
	dir := t.TempDir()
	writeCredentials(t, dir, srv.URL+"/token")

	p := NewTokenProvider(dir, WithPrompt(strings.NewReader("code\n"), &strings.Builder{}, notTerminal))
	_, err := p.Client(context.Background())
	require.ErrorIs(t, err, ErrInteractiveLogin)
	assert.Zero(t, srv.exchanges.Load())
	assert.NoFileExists(t, filepath.Join(dir, TokenFile))
}

func TestClient_EmptyCode(t *testing.T) {
	srv := newTokenServer(t)
	dir := t.TempDir()
	writeCredentials(t, dir, srv.URL+"/token")

	p := NewTokenProvider(dir, WithPrompt(strings.NewReader("\n"), &strings.Builder{}, terminal), WithBrowser(noBrowser))
	_, err := p.Client(context.Background())
	require.ErrorIs(t, err, ErrEmptyCode)
}

func TestClient_BrowserLogin(t *testing.T) {
	srv := newTokenServer(t)
	dir := t.TempDir()
	writeCredentials(t, dir, srv.URL+"/token")

	var visited url.Values
	var out strings.Builder
	p := NewTokenProvider(dir,
		WithPrompt(idlePrompt(t), &out, terminal),
		WithBrowser(browserFollowing(t, "browser-code", &visited)),
	)
	client, err := p.Client(context.Background())
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Opening browser")
	assert.True(t, strings.HasPrefix(visited.Get("redirect_uri"), "http://127.0.0.1:"))
	assert.Equal(t, "S256", visited.Get("code_challenge_method"))
	assert.Equal(t, "offline", visited.Get("access_type"))
	assert.NotEmpty(t, visited.Get("state"))
	assert.NotEmpty(t, srv.lastVerifier.Load())

	callAPI(t, client, srv.URL)
	assert.Equal(t, "Bearer access-from-browser-code", srv.lastAuth.Load())
	assert.Equal(t, "access-from-browser-code", readToken(t, dir).AccessToken)
}

func TestClient_PastedRedirectURL(t *testing.T) {
	srv := newTokenServer(t)
	dir := t.TempDir()
	writeCredentials(t, dir, srv.URL+"/token")

	in, typed := io.Pipe()
	t.Cleanup(func() { _ = typed.Close() })
	// The browser runs elsewhere: the user copies the redirected URL back.
	paste := func(authURL string) error {
		u, err := url.Parse(authURL)
		require.NoError(t, err)
		q := u.Query()
		line := fmt.Sprintf("%s?state=%s&code=pasted-code\n", q.Get("redirect_uri"), url.QueryEscape(q.Get("state")))
		go func() { _, _ = io.WriteString(typed, line) }()
		return errors.New("headless")
	}

	var out strings.Builder
	p := NewTokenProvider(dir, WithPrompt(in, &out, terminal), WithBrowser(paste))
	_, err := p.Client(context.Background())
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Open the following link")
	assert.Equal(t, "access-from-pasted-code", readToken(t, dir).AccessToken)
}

func TestReadCode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "bare code", input: "4/abc\n", want: "4/abc"},
		{name: "redirected URL", input: "http://127.0.0.1:8085/?state=s1&code=4%2Fabc\n", want: "4/abc"},
		{name: "wrong state", input: "http://127.0.0.1:8085/?state=other&code=abc\n", wantErr: ErrStateMismatch},
		{name: "denied", input: "http://127.0.0.1:8085/?state=s1&error=access_denied\n", wantErr: ErrAuthorizationDenied},
		{name: "URL without code", input: "http://127.0.0.1:8085/?state=s1\n", wantErr: ErrEmptyCode},
		{name: "blank", input: "  \n", wantErr: ErrEmptyCode},
		{name: "EOF", input: "", wantErr: ErrEmptyCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readCode(strings.NewReader(tt.input), "s1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCallbackHandler(t *testing.T) {
	t.Run("WrongStateIsIgnored", func(t *testing.T) {
		callbacks := make(chan codeResult, 1)
		rec := httptest.NewRecorder()
		callbackHandler("s1", callbacks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?state=s2&code=c", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, callbacks)
	})

	t.Run("Denied", func(t *testing.T) {
		callbacks := make(chan codeResult, 1)
		rec := httptest.NewRecorder()
		callbackHandler("s1", callbacks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?state=s1&error=access_denied", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		require.Len(t, callbacks, 1)
		assert.ErrorIs(t, (<-callbacks).err, ErrAuthorizationDenied)
	})

	t.Run("Code", func(t *testing.T) {
		callbacks := make(chan codeResult, 1)
		rec := httptest.NewRecorder()
		callbackHandler("s1", callbacks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?state=s1&code=c", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "you may close this window")
		assert.Equal(t, "c", (<-callbacks).code)
	})
}

func TestClient_MissingCredentials(t *testing.T) {
	p := NewTokenProvider(t.TempDir(), WithPrompt(strings.NewReader(""), &strings.Builder{}, terminal))
	_, err := p.Client(context.Background())
	require.ErrorIs(t, err, ErrMissingCredentials)
}

func TestClient_CorruptToken(t *testing.T) {
	srv := newTokenServer(t)
	dir := t.TempDir()
	writeCredentials(t, dir, srv.URL+"/token")
	require.NoError(t, os.WriteFile(filepath.Join(dir, TokenFile), []byte("{not json"), 0o600))

	p := NewTokenProvider(dir, WithPrompt(strings.NewReader(""), &strings.Builder{}, terminal))
	_, err := p.Client(context.Background())
	require.Error(t, err)
}
