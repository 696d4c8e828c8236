package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SessionStoreKind selects the session store backend.
type SessionStoreKind string

const (
	SessionStoreRedis    SessionStoreKind = "redis"
	SessionStorePostgres SessionStoreKind = "postgres"
	SessionStoreMemory   SessionStoreKind = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for SessionStoreKind.
func (k *SessionStoreKind) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch SessionStoreKind(v) {
	case SessionStoreRedis, SessionStorePostgres, SessionStoreMemory:
		*k = SessionStoreKind(v)
		return nil
	default:
		return fmt.Errorf("invalid SessionStore: %q (valid options: redis, postgres, memory)", v)
	}
}

const minSessionSecretLen = 16

// SessionConfig controls server-side sessions and the signed session cookie.
type SessionConfig struct {
	// Secret signs the session cookie.
	Secret string `env:"SECRET"`
	// EncryptionKey optionally encrypts the session cookie (16, 24 or 32 bytes).
	EncryptionKey string `env:"ENCRYPTION_KEY"`

	Store       SessionStoreKind `env:"STORE"        envDefault:"redis"`
	IdleTimeout time.Duration    `env:"IDLE_TIMEOUT" envDefault:"30m"`
	// CookieMaxAge is the session cookie lifetime (1 800 000 ms).
	CookieMaxAge time.Duration `env:"COOKIE_MAX_AGE" envDefault:"30m"`

	// SweepInterval controls expired-record cleanup for the memory and postgres stores.
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`
	RedisPrefix   string        `env:"REDIS_PREFIX"   envDefault:"xui:session:"`
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionConfig) Sanitize() {
	if s.IdleTimeout <= 0 {
		s.IdleTimeout = 30 * time.Minute
	}
	if s.CookieMaxAge <= 0 {
		s.CookieMaxAge = 30 * time.Minute
	}
	if s.SweepInterval < 0 {
		s.SweepInterval = 0
	}
	if s.Store == "" {
		s.Store = SessionStoreRedis
	}
	if s.RedisPrefix == "" {
		s.RedisPrefix = "xui:session:"
	}
}

// Validate checks the cookie keys.
func (s SessionConfig) Validate() error {
	var errs []error
	if len(s.Secret) < minSessionSecretLen {
		errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d bytes", minSessionSecretLen))
	}
	switch len(s.EncryptionKey) {
	case 0, 16, 24, 32:
	default:
		errs = append(errs, errors.New("SESSION_ENCRYPTION_KEY must be 16, 24 or 32 bytes"))
	}
	return errors.Join(errs...)
}
