// Package accountd implements a minimal user-account service:
// registration, credential-based login, and bearer-token session
// validation backed by a pluggable user record store.
//
// Basic usage:
//
//	svc, err := accountd.New(userStore,
//	    accountd.WithSecret("your-256-bit-secret"),
//	)
//	user, token, err := svc.Signup(ctx, accountd.SignupRequest{
//	    Name:     "User 1",
//	    Email:    "user1@email.com",
//	    Password: "123456",
//	})
package accountd

import (
	"context"
	"errors"
	"time"

	"github.com/avictor/accountd/middleware"
	"github.com/avictor/accountd/password"
	"github.com/avictor/accountd/store"
	"github.com/avictor/accountd/token"
)

// Service orchestrates signup and login against the user record store.
type Service struct {
	config *Config
	store  store.Store
	hasher password.Hasher
	codec  *token.Codec
	now    func() time.Time
}

// New creates a Service backed by the given store.
func New(s store.Store, opts ...Option) (*Service, error) {
	if s == nil {
		return nil, NewError(CodeConfigInvalid, "a user store must be provided", ErrStoreRequired)
	}

	svc := &Service{
		config: NewConfig(),
		store:  s,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}

	if err := svc.config.Validate(); err != nil {
		return nil, err
	}

	codec, err := token.NewCodec(svc.config.Secret)
	if err != nil {
		return nil, NewError(CodeConfigInvalid, "signing secret must be set", err)
	}
	svc.codec = codec

	if svc.hasher == nil {
		svc.hasher = password.NewBcryptHasher(svc.config.BcryptCost)
	}

	return svc, nil
}

// SignupRequest is the allow-listed signup input. Only these three
// fields ever reach the store; anything else a client submits is
// dropped so server-managed fields cannot be mass-assigned.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup registers a new account and opens its first session. Returns
// the sanitized user and the issued token.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*store.PublicUser, string, error) {
	u := &store.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}

	if err := s.store.Create(ctx, u); err != nil {
		return nil, "", err
	}

	tok, err := s.rotateToken(ctx, u)
	if err != nil {
		return nil, "", err
	}
	return u.Public(), tok, nil
}

// Login authenticates by email and password and opens a new session.
// Every previously issued token for the account stops resolving.
func (s *Service) Login(ctx context.Context, email, pass string) (*store.PublicUser, string, error) {
	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", NewError(CodeNotFound, "Invalid credentials", ErrInvalidCredentials)
		}
		return nil, "", err
	}

	ok, err := s.hasher.Verify(pass, u.PasswordHash)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", NewError(CodeUnauthorized, "Not authorized", ErrNotAuthorized)
	}

	tok, err := s.rotateToken(ctx, u)
	if err != nil {
		return nil, "", err
	}
	return u.Public(), tok, nil
}

// rotateToken issues a fresh auth token, replaces the user's token
// list with exactly that one entry, and stamps the last-login
// timestamp. One active session per account.
func (s *Service) rotateToken(ctx context.Context, u *store.User) (string, error) {
	tok, err := s.codec.Issue(u.ID)
	if err != nil {
		return "", err
	}

	u.Tokens = []store.Token{{Access: store.AccessAuth, Token: tok}}
	u.LastLogin = s.now().UnixMilli()
	if err := s.store.Update(ctx, u); err != nil {
		return "", err
	}
	return tok, nil
}

// List returns the sanitized representation of every account.
func (s *Service) List(ctx context.Context) ([]*store.PublicUser, error) {
	users, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*store.PublicUser, 0, len(users))
	for _, u := range users {
		result = append(result, u.Public())
	}
	return result, nil
}

// Guard returns a session guard bound to this service's codec, store
// and session window.
func (s *Service) Guard() *middleware.Guard {
	return middleware.NewGuard(s.codec, s.store, &middleware.Config{
		Window: s.config.SessionWindow,
	})
}

// Ping verifies the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Store returns the underlying user record store.
func (s *Service) Store() store.Store {
	return s.store
}
