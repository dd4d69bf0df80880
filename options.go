package accountd

import (
	"time"

	"github.com/avictor/accountd/password"
)

// Option is a function that modifies the service during construction.
type Option func(*Service)

// WithSecret sets the token signing secret. Required.
func WithSecret(secret string) Option {
	return func(s *Service) {
		s.config.Secret = secret
	}
}

// WithSessionWindow sets the session freshness window.
func WithSessionWindow(window time.Duration) Option {
	return func(s *Service) {
		s.config.SessionWindow = window
	}
}

// WithBcryptCost sets the cost factor of the default password hasher.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.config.BcryptCost = cost
	}
}

// WithHasher sets the password hashing algorithm. The same hasher
// should be handed to the store so creates and logins agree.
func WithHasher(hasher password.Hasher) Option {
	return func(s *Service) {
		s.hasher = hasher
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}
