// Package memory provides an in-memory store implementation for
// testing and development.
package memory

import (
	"context"
	"sync"

	"github.com/avictor/accountd/password"
	"github.com/avictor/accountd/store"
)

// Store is an in-memory implementation of the store.Store interface.
// It hands out deep copies so callers cannot mutate persisted state
// between saves.
type Store struct {
	mu      sync.RWMutex
	users   map[string]*store.User
	byEmail map[string]string
	hasher  password.Hasher
}

// New creates a new in-memory store.
func New(hasher password.Hasher) *Store {
	return &Store{
		users:   make(map[string]*store.User),
		byEmail: make(map[string]string),
		hasher:  hasher,
	}
}

// Create validates and persists a new user.
func (s *Store) Create(ctx context.Context, u *store.User) error {
	if err := store.Prepare(u, s.hasher, true); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[u.Email]; exists {
		return &store.ValidationError{Field: "email", Message: "email is already taken"}
	}

	s.users[u.ID] = u.Clone()
	s.byEmail[u.Email] = u.ID
	return nil
}

// FindByID retrieves a user by id.
func (s *Store) FindByID(ctx context.Context, id string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, exists := s.users[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return u.Clone(), nil
}

// FindByEmail retrieves a user by normalized email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byEmail[store.NormalizeEmail(email)]
	if !exists {
		return nil, store.ErrNotFound
	}
	return s.users[id].Clone(), nil
}

// FindByTokenClaim retrieves the user matching both the id and an
// "auth" token list entry.
func (s *Store) FindByTokenClaim(ctx context.Context, userID, tokenValue string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, exists := s.users[userID]
	if !exists || !u.HasAuthToken(tokenValue) {
		return nil, store.ErrNotFound
	}
	return u.Clone(), nil
}

// All returns every user.
func (s *Store) All(ctx context.Context) ([]*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*store.User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, u.Clone())
	}
	return result, nil
}

// Update persists changes to an existing user.
func (s *Store) Update(ctx context.Context, u *store.User) error {
	if err := store.Prepare(u, s.hasher, false); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.users[u.ID]
	if !exists {
		return store.ErrNotFound
	}

	if prev.Email != u.Email {
		if _, taken := s.byEmail[u.Email]; taken {
			return &store.ValidationError{Field: "email", Message: "email is already taken"}
		}
		delete(s.byEmail, prev.Email)
		s.byEmail[u.Email] = u.ID
	}

	s.users[u.ID] = u.Clone()
	return nil
}

// DeleteAll removes every user.
func (s *Store) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[string]*store.User)
	s.byEmail = make(map[string]string)
	return nil
}

// Ping is a no-op for the memory store.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(ctx context.Context) error {
	return nil
}

// Close is a no-op for the memory store.
func (s *Store) Close() error {
	return nil
}

// Ensure Store implements store.Store.
var _ store.Store = (*Store)(nil)
