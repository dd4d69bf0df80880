package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/avictor/accountd/store"
	"github.com/avictor/accountd/token"
)

// DefaultWindow is the session window: the maximum inactivity since
// the last successful authentication before a session is stale.
const DefaultWindow = 1800 * time.Second

// Config holds guard configuration.
type Config struct {
	// Window overrides DefaultWindow when positive.
	Window time.Duration

	// Scheme overrides DefaultScheme when non-empty.
	Scheme string

	// TokenExtractor extracts the header value from a request.
	// Defaults to reading the x-auth header.
	TokenExtractor TokenExtractor

	// ErrorHandler writes failure responses. Defaults to
	// DefaultErrorHandler.
	ErrorHandler ErrorHandler
}

// Guard resolves bearer tokens to users and enforces session freshness.
type Guard struct {
	codec     *token.Codec
	store     store.Store
	window    time.Duration
	scheme    string
	extractor TokenExtractor
	onError   ErrorHandler
}

// NewGuard creates a Guard over the given codec and store.
func NewGuard(codec *token.Codec, s store.Store, cfg *Config) *Guard {
	if cfg == nil {
		cfg = &Config{}
	}
	g := &Guard{
		codec:     codec,
		store:     s,
		window:    cfg.Window,
		scheme:    cfg.Scheme,
		extractor: cfg.TokenExtractor,
		onError:   cfg.ErrorHandler,
	}
	if g.window <= 0 {
		g.window = DefaultWindow
	}
	if g.scheme == "" {
		g.scheme = DefaultScheme
	}
	if g.extractor == nil {
		g.extractor = ExtractFromHeader(DefaultHeader)
	}
	if g.onError == nil {
		g.onError = DefaultErrorHandler
	}
	return g
}

// Result carries the admitted user and the raw token.
type Result struct {
	User  *store.User
	Token string
}

// Check validates a raw auth header value at the given instant:
// extract, decode, resolve, freshness. It is side-effect free; on
// success the caller receives the resolved user and raw token, on
// failure ErrNotAuthorized or ErrSessionExpired. Each failure is
// terminal for the request; nothing is retried.
func (g *Guard) Check(ctx context.Context, headerValue string, now time.Time) (*Result, error) {
	raw, ok := stripScheme(headerValue, g.scheme)
	if !ok {
		return nil, ErrNotAuthorized
	}

	claims, err := g.codec.Verify(raw)
	if err != nil {
		// Signature and format failures are indistinguishable from
		// the outside.
		return nil, ErrNotAuthorized
	}

	user, err := g.store.FindByTokenClaim(ctx, claims.UserID, raw)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotAuthorized
		}
		return nil, err
	}

	// Millisecond precision: any fractional excess past the window
	// expires the session, while exactly at the window still admits.
	if now.UnixMilli()-user.LastLogin > g.window.Milliseconds() {
		return nil, ErrSessionExpired
	}

	return &Result{User: user, Token: raw}, nil
}

// Authenticate wraps a protected handler. On success the resolved user
// and raw token are attached to the request context; on failure the
// configured error handler terminates the request.
func (g *Guard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := g.Check(r.Context(), g.extractor(r), time.Now())
		if err != nil {
			g.onError(w, r, err)
			return
		}

		ctx := SetUser(r.Context(), res.User)
		ctx = SetToken(ctx, res.Token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// stripScheme removes the required scheme prefix from a header value.
// A missing or bare prefix fails closed.
func stripScheme(value, scheme string) (string, bool) {
	prefix := scheme + " "
	if len(value) <= len(prefix) || !strings.EqualFold(value[:len(prefix)], prefix) {
		return "", false
	}
	raw := strings.TrimSpace(value[len(prefix):])
	if raw == "" {
		return "", false
	}
	return raw, true
}
