// Package token signs and verifies the compact auth tokens handed to
// clients. A token binds a user id to the "auth" access class and
// carries no expiry claim: the token is long-lived cryptographically,
// while the session it represents is expired externally against the
// user's last-login timestamp.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessAuth is the only access class issued by this service.
const AccessAuth = "auth"

// Claims is the payload embedded in every issued token.
type Claims struct {
	UserID string `json:"sub"`
	Access string `json:"access"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens with a process-wide HMAC secret.
type Codec struct {
	secret []byte
}

// NewCodec creates a Codec. Fails with ErrNoSecret when the secret is
// empty, so a misconfigured process cannot issue unsigned tokens.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Codec{secret: []byte(secret)}, nil
}

// Issue signs a token embedding the given user id and the "auth"
// access class. The jti claim makes every issued token unique, so a
// rotation always produces a token distinct from its predecessor.
func (c *Codec) Issue(userID string) (string, error) {
	claims := &Claims{
		UserID: userID,
		Access: AccessAuth,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID,
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify checks the signature and payload of a token and returns its
// claims. This is a local, synchronous cryptographic check; no store
// round-trip happens here.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, mapJWTError(err)
	}
	if !tok.Valid {
		return nil, ErrMalformed
	}
	if claims.UserID == "" || claims.Access != AccessAuth {
		return nil, ErrMalformed
	}

	return claims, nil
}

// mapJWTError maps JWT library errors to our error types.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSignature
	default:
		return ErrMalformed
	}
}
