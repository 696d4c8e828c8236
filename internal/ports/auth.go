// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.
package ports

import (
	"context"
	"time"

	domainauth "github.com/hmcts/xui-gateway/internal/domain/auth"
)

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	// State and Nonce are optional; providers generate them when empty.
	State string
	Nonce string
}

// BeginOutput is what the caller needs to redirect the browser and later verify the callback.
type BeginOutput struct {
	AuthURL string
	State   string
	Nonce   string
}

// AuthProvider initiates and completes an authentication flow against an IdP.
type AuthProvider interface {
	// Begin builds the provider authorization URL for the fixed scope set.
	Begin(ctx context.Context, in BeginInput) (BeginOutput, error)

	// Exchange redeems the authorization code, verifies the ID token and nonce,
	// and returns the identity with roles pulled from user info.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	Nonce string
}

// SessionStore persists and retrieves user sessions.
// Writes for a single id must be atomic: Touch never recreates a deleted record.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	// Get returns domainauth.ErrSessionNotFound for unknown or expired ids.
	Get(ctx context.Context, id string) (domainauth.Session, error)
	// Touch moves the expiry of an existing session; it returns
	// domainauth.ErrSessionNotFound when the session is gone.
	Touch(ctx context.Context, id string, lastSeen, expiresAt time.Time) error
	// Delete is idempotent.
	Delete(ctx context.Context, id string) error
}

// RoleGate decides whether a role set grants access to the application.
type RoleGate interface {
	IsAuthorized(roles []string) bool
}

// CookieCodec signs and verifies cookie values.
type CookieCodec interface {
	Encode(name, value string) (string, error)
	Decode(name, encoded string) (string, error)
}
