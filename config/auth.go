package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth uses OAuth/OIDC for authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// IDAMConfig locates the identity provider.
type IDAMConfig struct {
	// APIURL is the IdP base; discovery runs against <APIURL>/o.
	APIURL string `env:"IDAM_API_URL"`
	// Issuer overrides the issuer advertised by discovery.
	Issuer string `env:"IDAM_ISS"`
	// Secret is the legacy name for the OAuth client secret.
	Secret string `env:"IDAM_SECRET"`
}

// OAuthConfig contains OAuth/OIDC client configuration.
type OAuthConfig struct {
	ClientID              string `env:"CLIENT_ID"                envDefault:"xuiwebapp"`
	ClientSecret          string `env:"CLIENT_SECRET"`
	RedirectURL           string `env:"REDIRECT_URL"             envDefault:"http://localhost:3000/oauth2/callback"`
	PostLogoutRedirectURL string `env:"POST_LOGOUT_REDIRECT_URL" envDefault:"http://localhost:3000/auth/login"`
	Scope                 string `env:"SCOPE"                    envDefault:"profile openid roles manage-user create-user"`
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID string   `env:"USER_ID" envDefault:"dev-user"`
	Email  string   `env:"EMAIL"   envDefault:"dev@example.com"`
	Roles  []string `env:"ROLES"   envDefault:"caseworker"      envSeparator:","`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	IDAM IDAMConfig

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// RolesClaim is a JMESPath expression selecting roles from userinfo claims.
	RolesClaim string `env:"AUTH_ROLES_CLAIM" envDefault:"roles"`

	DiscoveryTimeout time.Duration `env:"AUTH_DISCOVERY_TIMEOUT" envDefault:"30s"`
	ExchangeTimeout  time.Duration `env:"AUTH_EXCHANGE_TIMEOUT"  envDefault:"10s"`

	// AllowedRoles are role gate entries; a trailing * admits a role family.
	AllowedRoles []string `env:"ROLE_GATE_ALLOW" envDefault:"caseworker,caseworker-*" envSeparator:","`
}

// Sanitize trims values and fills fallbacks.
func (a *AuthConfig) Sanitize() {
	a.IDAM.APIURL = strings.TrimRight(strings.TrimSpace(a.IDAM.APIURL), "/")
	a.IDAM.Issuer = strings.TrimSpace(a.IDAM.Issuer)
	a.OAuth.ClientID = strings.TrimSpace(a.OAuth.ClientID)
	if strings.TrimSpace(a.OAuth.ClientSecret) == "" {
		a.OAuth.ClientSecret = a.IDAM.Secret
	}
	a.RolesClaim = strings.TrimSpace(a.RolesClaim)
	if a.RolesClaim == "" {
		a.RolesClaim = "roles"
	}
	if a.DiscoveryTimeout <= 0 {
		a.DiscoveryTimeout = 30 * time.Second
	}
	if a.ExchangeTimeout <= 0 {
		a.ExchangeTimeout = 10 * time.Second
	}

	roles := a.AllowedRoles[:0]
	for _, r := range a.AllowedRoles {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	a.AllowedRoles = roles
}

// Scopes splits the configured scope string.
func (a AuthConfig) Scopes() []string { return strings.Fields(a.OAuth.Scope) }

// DiscoveryBaseURL is the issuer base the well-known document hangs off.
func (a AuthConfig) DiscoveryBaseURL() string { return a.IDAM.APIURL + "/o" }

// Validate checks the settings the selected mode needs.
func (a AuthConfig) Validate() error {
	var errs []error
	if len(a.AllowedRoles) == 0 {
		errs = append(errs, errors.New("ROLE_GATE_ALLOW must list at least one role"))
	}
	if a.Mode == AuthModeMock {
		if a.DevAuth.UserID == "" {
			errs = append(errs, errors.New("DEV_AUTH_USER_ID is required in mock mode"))
		}
		return errors.Join(errs...)
	}

	if err := requireAbsoluteURL("IDAM_API_URL", a.IDAM.APIURL); err != nil {
		errs = append(errs, err)
	}
	if a.OAuth.ClientID == "" {
		errs = append(errs, errors.New("OAUTH_CLIENT_ID is required"))
	}
	if a.OAuth.ClientSecret == "" {
		errs = append(errs, errors.New("OAUTH_CLIENT_SECRET or IDAM_SECRET is required"))
	}
	if err := requireAbsoluteURL("OAUTH_REDIRECT_URL", a.OAuth.RedirectURL); err != nil {
		errs = append(errs, err)
	}
	if a.OAuth.PostLogoutRedirectURL != "" {
		if err := requireAbsoluteURL("OAUTH_POST_LOGOUT_REDIRECT_URL", a.OAuth.PostLogoutRedirectURL); err != nil {
			errs = append(errs, err)
		}
	}
	if len(a.Scopes()) == 0 {
		errs = append(errs, errors.New("OAUTH_SCOPE must not be empty"))
	}
	return errors.Join(errs...)
}

func requireAbsoluteURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", name, raw)
	}
	return nil
}
