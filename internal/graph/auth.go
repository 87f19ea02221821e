package graph

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"

	"github.com/tonimelisma/gdrive-go/internal/tokenfile"
)

// DefaultScopes grants full Drive access, which path-addressed writes need.
var DefaultScopes = []string{drive.DriveScope}

// ErrNotLoggedIn is returned when no token file exists.
var ErrNotLoggedIn = fmt.Errorf("%w: not logged in", ErrAuth)

// LoadOAuthConfig reads a client-secrets JSON file downloaded from the
// Google Cloud console ("installed" or "web" application).
func LoadOAuthConfig(secretsPath string) (*oauth2.Config, error) {
	data, err := os.ReadFile(secretsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading client secrets: %w", ErrAuth, err)
	}

	cfg, err := google.ConfigFromJSON(data, DefaultScopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing client secrets %s: %w", ErrAuth, secretsPath, err)
	}

	return cfg, nil
}

// TokenSourceFromPath runs the credential lifecycle against a saved token:
//  1. load the token file (ErrNotLoggedIn if absent)
//  2. validate that it can be refreshed
//  3. refresh lazily, on the first Token call after expiry
//  4. persist every new access token back to tokenPath
//
// The returned TokenSource binds ctx to the refresh requests; ctx must
// outlive it.
func TokenSourceFromPath(
	ctx context.Context,
	cfg *oauth2.Config,
	tokenPath string,
	logger *slog.Logger,
) (TokenSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tf, err := tokenfile.Load(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuth, err)
	}

	if tf == nil {
		return nil, ErrNotLoggedIn
	}

	tok := tf.Token
	expired := !tok.Expiry.IsZero() && tok.Expiry.Before(time.Now())

	if tok.RefreshToken == "" && (expired || tok.AccessToken == "") {
		return nil, fmt.Errorf("%w: token at %s is expired and has no refresh token (re-login required)",
			ErrAuth, tokenPath)
	}

	logger.Debug("loaded saved token",
		slog.String("path", tokenPath),
		slog.Time("expiry", tok.Expiry),
		slog.Bool("expired", expired),
	)

	src := &persistingSource{
		src:    cfg.TokenSource(ctx, tok),
		path:   tokenPath,
		last:   tok.AccessToken,
		logger: logger,
	}

	return &tokenBridge{src: src, logger: logger}, nil
}

// persistingSource saves each access token it has not seen before.
// cfg.TokenSource already caches through oauth2.ReuseTokenSource, so a new
// access token only appears after a refresh.
type persistingSource struct {
	src    oauth2.TokenSource
	path   string
	logger *slog.Logger

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if tok.AccessToken == p.last {
		return tok, nil
	}

	p.last = tok.AccessToken

	if err := tokenfile.UpdateToken(p.path, tok); err != nil {
		p.logger.Warn("failed to persist refreshed token",
			slog.String("path", p.path),
			slog.String("error", err.Error()),
		)

		return tok, nil
	}

	p.logger.Debug("persisted refreshed token",
		slog.String("path", p.path),
		slog.Time("expiry", tok.Expiry),
	)

	return tok, nil
}

// tokenBridge adapts oauth2.TokenSource to graph.TokenSource.
type tokenBridge struct {
	src    oauth2.TokenSource
	logger *slog.Logger
}

func (b *tokenBridge) Token() (string, error) {
	t, err := b.src.Token()
	if err != nil {
		b.logger.Debug("token acquisition failed", slog.String("error", err.Error()))
		return "", fmt.Errorf("graph: obtaining token: %w", err)
	}

	return t.AccessToken, nil
}

// Logout removes the saved token file at tokenPath.
// Returns nil if the file does not exist (already logged out).
func Logout(tokenPath string, logger *slog.Logger) error {
	if err := tokenfile.Remove(tokenPath); err != nil {
		return err
	}

	logger.Debug("logout: token file removed", slog.String("path", tokenPath))

	return nil
}

// stateTokenBytes is the number of random bytes for the OAuth2 state parameter.
const stateTokenBytes = 16

// shutdownTimeout is how long to wait for the callback server to drain.
const shutdownTimeout = 5 * time.Second

type callbackResult struct {
	code string
	err  error
}

// Login performs the loopback authorization code + PKCE flow:
//  1. Binds an HTTP server on 127.0.0.1 with a random port
//  2. Calls openURL with Google's authorization URL
//  3. Receives the callback with the authorization code
//  4. Exchanges the code for tokens using the PKCE verifier
//  5. Saves the token to tokenPath
//
// If openURL fails the URL is printed to stderr so the user can open it.
func Login(
	ctx context.Context,
	cfg *oauth2.Config,
	tokenPath string,
	openURL func(string) error,
	logger *slog.Logger,
) (TokenSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	resultCh := make(chan callbackResult, 1)
	mux := http.NewServeMux()

	srv, port, err := startCallbackServer(ctx, mux, resultCh, logger)
	if err != nil {
		return nil, err
	}

	defer shutdownCallbackServer(srv, logger)

	loginCfg := *cfg
	loginCfg.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d/", port)

	verifier := oauth2.GenerateVerifier()

	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("graph: generating state token: %w", err)
	}

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		handleOAuthCallback(w, r, state, resultCh)
	})

	authURL := loginCfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)

	logger.Debug("opening browser for authorization")

	if openErr := openURL(authURL); openErr != nil {
		logger.Debug("failed to open browser, printing URL", slog.String("error", openErr.Error()))
		fmt.Fprintf(os.Stderr, "Open this URL in your browser:\n%s\n", authURL)
	}

	var code string
	select {
	case result := <-resultCh:
		if result.err != nil {
			return nil, result.err
		}

		code = result.code
	case <-ctx.Done():
		return nil, fmt.Errorf("graph: browser auth canceled: %w", ctx.Err())
	}

	tok, err := loginCfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange failed: %w", ErrAuth, err)
	}

	if saveErr := tokenfile.Save(tokenPath, &tokenfile.File{Token: tok, Scopes: loginCfg.Scopes}); saveErr != nil {
		return nil, fmt.Errorf("graph: saving token: %w", saveErr)
	}

	logger.Debug("login successful",
		slog.String("path", tokenPath),
		slog.Time("expiry", tok.Expiry),
	)

	src := &persistingSource{
		src:    loginCfg.TokenSource(ctx, tok),
		path:   tokenPath,
		last:   tok.AccessToken,
		logger: logger,
	}

	return &tokenBridge{src: src, logger: logger}, nil
}

func startCallbackServer(
	ctx context.Context,
	mux *http.ServeMux,
	resultCh chan<- callbackResult,
	logger *slog.Logger,
) (*http.Server, int, error) {
	lc := net.ListenConfig{}

	listener, err := lc.Listen(ctx, "tcp", "127.0.0.1:0")
	if err != nil {
		return nil, 0, fmt.Errorf("graph: binding localhost listener: %w", err)
	}

	tcpAddr, ok := listener.Addr().(*net.TCPAddr)
	if !ok {
		listener.Close()
		return nil, 0, fmt.Errorf("graph: listener address is not TCP")
	}

	logger.Debug("callback server listening", slog.Int("port", tcpAddr.Port))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: shutdownTimeout,
	}

	go func() {
		if serveErr := srv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			select {
			case resultCh <- callbackResult{err: fmt.Errorf("graph: callback server error: %w", serveErr)}:
			default:
			}
		}
	}()

	return srv, tcpAddr.Port, nil
}

// handleOAuthCallback validates the state, extracts the code, and sends the
// result. Only the first callback is delivered.
func handleOAuthCallback(w http.ResponseWriter, r *http.Request, state string, resultCh chan<- callbackResult) {
	var result callbackResult

	q := r.URL.Query()

	switch {
	case q.Get("state") != state:
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		result.err = fmt.Errorf("%w: OAuth2 state mismatch (possible CSRF)", ErrAuth)
	case q.Get("error") != "":
		http.Error(w, "Authorization failed: "+q.Get("error"), http.StatusBadRequest)
		result.err = fmt.Errorf("%w: authorization failed: %s: %s", ErrAuth, q.Get("error"), q.Get("error_description"))
	case q.Get("code") == "":
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		result.err = fmt.Errorf("%w: callback missing authorization code", ErrAuth)
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body><h1>Authentication successful</h1>"+
			"<p>You can close this window and return to the terminal.</p></body></html>")

		result.code = q.Get("code")
	}

	select {
	case resultCh <- result:
	default:
	}
}

func shutdownCallbackServer(srv *http.Server, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("callback server shutdown error", slog.String("error", err.Error()))
	}
}

// generateState produces a random hex string for the OAuth2 state parameter.
func generateState() (string, error) {
	b := make([]byte, stateTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
