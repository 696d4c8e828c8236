package config

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// HTTPConfig contains HTTP server and cookie configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":3000"`

	// CookieDomain is the domain for cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// SecureCookies sets the Secure attribute on every cookie.
	SecureCookies bool `env:"FEATURE_SECURE_COOKIE_ENABLED" envDefault:"false"`

	// Cookie names shared with the SPA.
	TokenCookie  string `env:"COOKIE_TOKEN"   envDefault:"__auth__"`
	UserIDCookie string `env:"COOKIE_USER_ID" envDefault:"__userid__"`

	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT"    envDefault:"15s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	h.CookieDomain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(h.CookieDomain)), ".")
	if h.ReadHeaderTimeout <= 0 {
		h.ReadHeaderTimeout = 10 * time.Second
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 15 * time.Second
	}
	if h.TokenCookie == "" {
		h.TokenCookie = "__auth__"
	}
	if h.UserIDCookie == "" {
		h.UserIDCookie = "__userid__"
	}
}

// Validate rejects cookie domains browsers would refuse or share too widely.
func (h HTTPConfig) Validate() error {
	if h.CookieDomain == "" {
		return nil
	}
	suffix, icann := publicsuffix.PublicSuffix(h.CookieDomain)
	// Unlisted single-label hosts such as localhost fall through to the default rule.
	if suffix == h.CookieDomain && (icann || strings.Contains(h.CookieDomain, ".")) {
		return fmt.Errorf("APP_COOKIE_DOMAIN %q is a public suffix", h.CookieDomain)
	}
	return nil
}
