package token

import "errors"

// Token-related errors.
var (
	// ErrNoSecret indicates the codec was constructed without a signing secret.
	ErrNoSecret = errors.New("signing secret is required")

	// ErrMalformed indicates the token payload could not be parsed.
	ErrMalformed = errors.New("token is malformed")

	// ErrInvalidSignature indicates the token signature does not match.
	ErrInvalidSignature = errors.New("token signature is invalid")
)
