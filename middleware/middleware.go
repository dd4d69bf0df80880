// Package middleware provides the session guard that gates protected
// routes: it resolves bearer tokens to users and enforces session
// freshness against the user's last-login timestamp.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avictor/accountd/store"
)

// contextKey is a type for context keys to avoid collisions.
type contextKey string

const (
	userKey  contextKey = "accountd_user"
	tokenKey contextKey = "accountd_token"
)

// DefaultHeader is the request header carrying the auth token.
const DefaultHeader = "x-auth"

// DefaultScheme is the scheme prefix required inside the header value.
const DefaultScheme = "Bearer"

// Guard errors. Every failure cause except an expired session collapses
// into ErrNotAuthorized so callers cannot probe which check failed.
var (
	ErrNotAuthorized  = errors.New("not authorized")
	ErrSessionExpired = errors.New("session expired")
)

// TokenExtractor extracts the raw auth header value from a request.
type TokenExtractor func(r *http.Request) string

// ErrorHandler writes an authentication failure response.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// ExtractFromHeader creates a TokenExtractor that reads a header.
func ExtractFromHeader(header string) TokenExtractor {
	return func(r *http.Request) string {
		return r.Header.Get(header)
	}
}

// DefaultErrorHandler writes a 401 with the message contract of the
// service: "Invalid session" for a stale session, "Not authorized"
// for everything else.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	msg := "Not authorized"
	if errors.Is(err, ErrSessionExpired) {
		msg = "Invalid session"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": msg}) //nolint:errcheck
}

// SetUser stores the admitted user in the request context.
func SetUser(ctx context.Context, u *store.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext retrieves the admitted user from the context.
// Returns nil outside a guarded handler.
func UserFromContext(ctx context.Context) *store.User {
	u, _ := ctx.Value(userKey).(*store.User)
	return u
}

// SetToken stores the raw admitted token in the request context.
func SetToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext retrieves the raw admitted token from the context.
func TokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}
