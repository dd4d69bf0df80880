package store

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avictor/accountd/password"
)

// AccessAuth is the access class required of stored session tokens.
const AccessAuth = "auth"

// Field length requirements, matching the persisted schema.
const (
	MinEmailLength    = 5
	MinPasswordLength = 5
)

// ValidationError reports a rejected field on create or update.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Token is one entry in a user's active token list.
type Token struct {
	Access string `json:"access" bson:"access"`
	Token  string `json:"token" bson:"token"`
}

// Phone is an optional phone number attached to a user.
type Phone struct {
	Number string `json:"number" bson:"number"`
	Code   int    `json:"code" bson:"code"`
}

// User is the sole persisted entity.
//
// Password carries plaintext input for the duration of a create or
// update. It is never persisted and never serialized; a non-empty
// Password is hashed into PasswordHash by Prepare before any write.
type User struct {
	ID           string  `json:"id" bson:"_id"`
	Name         string  `json:"name" bson:"name"`
	Email        string  `json:"email" bson:"email"`
	Password     string  `json:"-" bson:"-"`
	PasswordHash string  `json:"-" bson:"password_hash"`
	Tokens       []Token `json:"tokens" bson:"tokens"`
	Phones       []Phone `json:"phones,omitempty" bson:"phones,omitempty"`
	LastLogin    int64   `json:"last_login" bson:"last_login"`
	CreatedAt    int64   `json:"created_at" bson:"created_at"`
	UpdatedAt    int64   `json:"updated_at" bson:"updated_at"`
}

// HasAuthToken reports whether tokenValue appears in the user's current
// token list with the "auth" access class. A token superseded by a
// later login is absent from the list and fails this check even though
// it still verifies cryptographically.
func (u *User) HasAuthToken(tokenValue string) bool {
	for _, t := range u.Tokens {
		if t.Access == AccessAuth && t.Token == tokenValue {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	cp := *u
	if u.Tokens != nil {
		cp.Tokens = append([]Token(nil), u.Tokens...)
	}
	if u.Phones != nil {
		cp.Phones = append([]Phone(nil), u.Phones...)
	}
	return &cp
}

// PublicUser is the sanitized representation exposed to clients. It
// never carries the password hash.
type PublicUser struct {
	ID        string  `json:"id"`
	CreatedAt int64   `json:"created_at"`
	UpdatedAt int64   `json:"updated_at"`
	LastLogin int64   `json:"last_login"`
	Tokens    []Token `json:"tokens"`
}

// Public returns the sanitized representation of the user.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
		LastLogin: u.LastLogin,
		Tokens:    u.Tokens,
	}
}

// validateNew normalizes and checks the fields required at creation
// time. The email is trimmed and lowercased before validation so that
// uniqueness is enforced on the normalized form.
func validateNew(u *User) error {
	u.Name = strings.TrimSpace(u.Name)
	if u.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}

	u.Email = NormalizeEmail(u.Email)
	if len(u.Email) < MinEmailLength {
		return &ValidationError{Field: "email", Message: fmt.Sprintf("email must be at least %d characters", MinEmailLength)}
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return &ValidationError{Field: "email", Message: fmt.Sprintf("%s is not a valid email", u.Email)}
	}

	if u.Password == "" && u.PasswordHash == "" {
		return &ValidationError{Field: "password", Message: "password is required"}
	}
	if u.Password != "" && len(u.Password) < MinPasswordLength {
		return &ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)}
	}

	return nil
}

// NormalizeEmail trims and lowercases an email address. Lookups and
// uniqueness checks operate on this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Prepare runs the pre-persistence step shared by every Store
// implementation: validation and id assignment on first save,
// timestamp stamping, and rehashing whenever the plaintext password
// field was set. Callers that never touch Password get no rehash.
func Prepare(u *User, hasher password.Hasher, create bool) error {
	now := time.Now().UnixMilli()

	if create {
		if err := validateNew(u); err != nil {
			return err
		}
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		u.CreatedAt = now
		u.LastLogin = now
	}
	u.UpdatedAt = now

	if u.Password != "" {
		hash, err := hasher.Hash(u.Password)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
		u.Password = ""
	}

	return nil
}
