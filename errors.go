package accountd

import (
	"errors"
	"fmt"
)

// Error codes for categorizing failures surfaced to the HTTP layer.
// Validation failures are not coded; they travel as
// *store.ValidationError and carry the rejected field instead.
const (
	CodeNotFound       = "NOT_FOUND"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeSessionExpired = "SESSION_EXPIRED"
	CodeConfigInvalid  = "CONFIG_INVALID"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrInvalidCredentials indicates no account matches the login email.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotAuthorized indicates the password did not match.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrStoreRequired indicates no user store was provided.
	ErrStoreRequired = errors.New("store is required")

	// ErrSecretRequired indicates the signing secret is missing.
	ErrSecretRequired = errors.New("signing secret is required")
)

// Error is a structured error type that includes a stable code, the
// message surfaced to clients, and an optional wrapped cause.
type Error struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is() and
// errors.As().
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given code, message, and
// optional wrapped cause.
func NewError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}
