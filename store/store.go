// Package store defines the persisted user entity and the storage
// interface implemented by the memory, mongo and sqlite backends.
package store

import (
	"context"
	"errors"
)

// ErrNotFound indicates no user matched the query.
var ErrNotFound = errors.New("user not found")

// Store is the user record store. All methods are safe for concurrent
// use; failures surface immediately to the caller, nothing is retried.
type Store interface {
	// Create validates and persists a new user, hashing the plaintext
	// password and assigning an id. Fails with *ValidationError on
	// malformed input or a duplicate email.
	Create(ctx context.Context, u *User) error

	// FindByID retrieves a user by id.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByEmail retrieves a user by normalized email address.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByTokenClaim retrieves the user whose id matches userID and
	// whose current token list contains tokenValue under the "auth"
	// access class. Both conditions must hold so that tokens superseded
	// by a later login are rejected even though they still verify
	// cryptographically.
	FindByTokenClaim(ctx context.Context, userID, tokenValue string) (*User, error)

	// All returns every user.
	All(ctx context.Context) ([]*User, error)

	// Update persists changes to an existing user, re-running the
	// pre-persistence step (rehash when the plaintext password is set,
	// updated_at restamped).
	Update(ctx context.Context, u *User) error

	// DeleteAll removes every user. Test and maintenance use only.
	DeleteAll(ctx context.Context) error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Migrate creates the schema or indexes the store needs.
	Migrate(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
