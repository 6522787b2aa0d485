package auth

import (
	"bufio"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	loginTimeout      = 5 * time.Minute
	callbackTimeout   = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
	loginSuccessPage  = "gdsync is authorized, you may close this window.\n"
	loopbackAddr      = "127.0.0.1:0"
)

type codeResult struct {
	code string
	err  error
}

// login runs the OAuth2 installed-app flow with a loopback redirect.
//
// A local listener receives the authorization code from the browser.
// The terminal prompt stays available as a fallback and accepts either the
// code itself or the full redirected URL, for a browser on another machine.
// PKCE binds the code to this process.
func (p *TokenProvider) login(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	if !p.isTerminal() {
		return nil, ErrInteractiveLogin
	}
	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", loopbackAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to start login listener: %w", err)
	}
	loopback := *cfg
	loopback.RedirectURL = "http://" + ln.Addr().String() + "/"

	state := rand.Text()
	verifier := oauth2.GenerateVerifier()
	authURL := loopback.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))

	callbacks := make(chan codeResult, 1)
	srv := &http.Server{
		Handler:           callbackHandler(state, callbacks),
		ReadHeaderTimeout: callbackTimeout,
	}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancelShutdown()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if p.openBrowser != nil && p.openBrowser(authURL) == nil {
		_, _ = fmt.Fprintln(p.out, "Opening browser to authorize gdsync...")
		_, _ = fmt.Fprintln(p.out, "If the browser doesn't open, visit this URL:")
	} else {
		_, _ = fmt.Fprintln(p.out, "Open the following link in your browser to authorize gdsync:")
	}
	_, _ = fmt.Fprintf(p.out, "\n  %s\n\nWaiting for the browser, or paste the code or the redirected URL: ", authURL)

	// Never joined when the browser wins: a terminal read cannot be cancelled.
	pasted := make(chan codeResult, 1)
	go func() {
		code, err := readCode(p.in, state)
		pasted <- codeResult{code: code, err: err}
	}()

	var res codeResult
	select {
	case res = <-callbacks:
		_, _ = fmt.Fprintln(p.out)
	case res = <-pasted:
	case <-ctx.Done():
		return nil, fmt.Errorf("login aborted: %w", ctx.Err())
	}
	if res.err != nil {
		return nil, res.err
	}

	tok, err := loopback.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return tok, nil
}

// callbackHandler accepts the first redirect carrying state and reports its outcome.
func callbackHandler(state string, callbacks chan<- codeResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, ErrStateMismatch.Error(), http.StatusBadRequest)
			return
		}

		res := codeResult{code: q.Get("code")}
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("%w: %s", ErrAuthorizationDenied, q.Get("error"))
		case res.code == "":
			res.err = ErrEmptyCode
		}
		select {
		case callbacks <- res:
		default:
		}

		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusForbidden)
			return
		}
		_, _ = io.WriteString(w, loginSuccessPage)
	})
}

// readCode reads one line holding either an authorization code or the
// redirected URL it appears in.
func readCode(in io.Reader, state string) (string, error) {
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read authorization code: %w", err)
		}
		return "", ErrEmptyCode
	}
	input := strings.TrimSpace(scanner.Text())
	if input == "" {
		return "", ErrEmptyCode
	}
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		return input, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("failed to parse redirected URL: %w", err)
	}
	q := u.Query()
	if q.Get("state") != state {
		return "", ErrStateMismatch
	}
	if e := q.Get("error"); e != "" {
		return "", fmt.Errorf("%w: %s", ErrAuthorizationDenied, e)
	}
	if q.Get("code") == "" {
		return "", ErrEmptyCode
	}
	return q.Get("code"), nil
}

var errNoBrowser = errors.New("no browser launcher for this platform")

// openBrowser starts the platform URL handler without waiting for it.
func openBrowser(u string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", u) //nolint:gosec // G204: URL built by oauth2
	case "linux":
		cmd = exec.Command("xdg-open", u) //nolint:gosec // G204: URL built by oauth2
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", u) //nolint:gosec // G204: URL built by oauth2
	default:
		return errNoBrowser
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
