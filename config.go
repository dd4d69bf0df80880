package accountd

import (
	"time"
)

// Default configuration values.
const (
	// DefaultSessionWindow is the maximum inactivity since the last
	// successful authentication before a session is treated as stale.
	DefaultSessionWindow = 1800 * time.Second

	// DefaultBcryptCost is the bcrypt cost factor for password hashing.
	DefaultBcryptCost = 10
)

// Config holds all configuration for the account service.
type Config struct {
	// Secret is the process-wide key used to sign tokens. Required.
	Secret string

	// SessionWindow is how long a session stays fresh after the last
	// successful authentication.
	SessionWindow time.Duration

	// BcryptCost is the cost factor for the default password hasher.
	BcryptCost int
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		SessionWindow: DefaultSessionWindow,
		BcryptCost:    DefaultBcryptCost,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Secret == "" {
		return NewError(CodeConfigInvalid, "signing secret must be set", ErrSecretRequired)
	}
	if c.SessionWindow <= 0 {
		return NewError(CodeConfigInvalid, "session window must be positive", nil)
	}
	return nil
}
