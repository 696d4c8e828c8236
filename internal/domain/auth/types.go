// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.
package auth

import (
	"slices"
	"time"
)

// StrategyOIDC is the fixed name the login strategy is registered under.
const StrategyOIDC = "oidc"

// DefaultScopes is the scope set requested from the identity provider.
var DefaultScopes = []string{"profile", "openid", "roles", "manage-user", "create-user"} //nolint:gochecknoglobals // fixed protocol constant

// IssuerDescriptor is the result of OIDC discovery.
// It is produced once at startup and never mutated afterwards.
type IssuerDescriptor struct {
	// Issuer is the issuer identifier tokens are validated against.
	// It may differ from DiscoveredIssuer when an override is configured.
	Issuer           string
	DiscoveredIssuer string

	AuthorizationEndpoint string
	TokenEndpoint         string
	UserinfoEndpoint      string
	JWKSURI               string
	EndSessionEndpoint    string
	SigningAlgorithms     []string
}

// ClientConfig describes this application as an OIDC client.
// Values come from static configuration, never from the incoming request.
type ClientConfig struct {
	ClientID                string
	ClientSecret            string
	RedirectURL             string
	PostLogoutRedirectURL   string
	ResponseTypes           []string
	TokenEndpointAuthMethod string
}

// DefaultClientConfig fills the protocol constants used by the gateway.
func DefaultClientConfig(id, secret, redirectURL, postLogoutURL string) ClientConfig {
	return ClientConfig{
		ClientID:                id,
		ClientSecret:            secret,
		RedirectURL:             redirectURL,
		PostLogoutRedirectURL:   postLogoutURL,
		ResponseTypes:           []string{"code"},
		TokenEndpointAuthMethod: "client_secret_post",
	}
}

// TokenSet is the bundle returned by the token endpoint.
type TokenSet struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type,omitempty"`
	IDToken     string    `json:"id_token,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
}

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string         `json:"user_id"` // uid claim, falling back to sub
	Email     string         `json:"email,omitempty"`
	FirstName string         `json:"first_name,omitempty"`
	LastName  string         `json:"last_name,omitempty"`
	Roles     []string       `json:"roles"`
	Tokens    TokenSet       `json:"tokens"`
	Claims    map[string]any `json:"claims,omitempty"`
}

// HasRoles reports whether the identity carries at least one non-empty role.
func (i Identity) HasRoles() bool {
	return slices.ContainsFunc(i.Roles, func(r string) bool { return r != "" })
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier; it is only ever sent to the browser signed.
type Session struct {
	ID        string    `json:"id"`
	Identity  Identity  `json:"identity"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserID is a shortcut for the identity's user identifier.
func (s Session) UserID() string { return s.Identity.UserID }

// Roles returns a copy of the identity's role list.
func (s Session) Roles() []string { return slices.Clone(s.Identity.Roles) }

// AccessToken returns the access token obtained at login.
func (s Session) AccessToken() string { return s.Identity.Tokens.AccessToken }

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }

// NextExpiry computes the sliding expiry for activity at now.
// The result never extends past the access token expiry when that is known.
func NextExpiry(now time.Time, idle time.Duration, tokenExpiry time.Time) time.Time {
	next := now.Add(idle)
	if !tokenExpiry.IsZero() && tokenExpiry.Before(next) {
		return tokenExpiry
	}
	return next
}
