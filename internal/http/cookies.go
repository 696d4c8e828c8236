package httpx

import (
	"fmt"
	"net/http"
	"time"

	domainauth "github.com/hmcts/xui-gateway/internal/domain/auth"
	"github.com/hmcts/xui-gateway/internal/ports"
)

// Cookie names shared with the SPA.
const (
	DefaultSessionCookie = "xui-webapp"
	DefaultTokenCookie   = "__auth__"
	DefaultUserIDCookie  = "__userid__"
	RolesCookie          = "roles"
	PlatformCookie       = "platform"

	stateCookie = "oauth_state"
	nonceCookie = "oauth_nonce"
)

const (
	// DefaultSessionMaxAge matches the 1 800 000 ms session cookie lifetime.
	DefaultSessionMaxAge = 30 * time.Minute
	oauthCookieMaxAge    = 600 // 10 minutes
)

// CookieConfig holds cookie names and attributes. It is built from static
// configuration; nothing here is derived from the incoming request.
type CookieConfig struct {
	Domain        string
	Secure        bool
	SessionName   string
	TokenName     string
	UserIDName    string
	Platform      string
	SessionMaxAge time.Duration
}

func (c CookieConfig) withDefaults() CookieConfig {
	if c.SessionName == "" {
		c.SessionName = DefaultSessionCookie
	}
	if c.TokenName == "" {
		c.TokenName = DefaultTokenCookie
	}
	if c.UserIDName == "" {
		c.UserIDName = DefaultUserIDCookie
	}
	if c.SessionMaxAge <= 0 {
		c.SessionMaxAge = DefaultSessionMaxAge
	}
	return c
}

// Cookies reads and writes every cookie the gateway owns.
type Cookies struct {
	cfg   CookieConfig
	codec ports.CookieCodec
	now   func() time.Time
}

// NewCookies creates a cookie writer that signs the session cookie with codec.
func NewCookies(cfg CookieConfig, codec ports.CookieCodec) *Cookies {
	return &Cookies{cfg: cfg.withDefaults(), codec: codec, now: time.Now}
}

// Config returns the effective configuration.
func (c *Cookies) Config() CookieConfig { return c.cfg }

func (c *Cookies) set(w http.ResponseWriter, name, value string, maxAge int, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.cfg.Domain,
		HttpOnly: httpOnly,
		Secure:   c.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// clear mirrors the attributes used when setting so browsers match the cookie.
func (c *Cookies) clear(w http.ResponseWriter, name string, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   c.cfg.Domain,
		HttpOnly: httpOnly,
		Secure:   c.cfg.Secure,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// SetSession writes the signed session id cookie.
// Its lifetime never exceeds the server-side expiry.
func (c *Cookies) SetSession(w http.ResponseWriter, sess domainauth.Session) error {
	value, err := c.codec.Encode(c.cfg.SessionName, sess.ID)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	maxAge := c.cfg.SessionMaxAge
	if remaining := sess.ExpiresAt.Sub(c.now()); remaining < maxAge {
		maxAge = remaining
	}
	seconds := int(maxAge.Seconds())
	if seconds <= 0 {
		c.clear(w, c.cfg.SessionName, true)
		return nil
	}
	c.set(w, c.cfg.SessionName, value, seconds, true)
	return nil
}

// SessionID returns the verified session id, or an error matching
// domainauth.ErrSessionNotFound when the cookie is absent or has been tampered with.
func (c *Cookies) SessionID(r *http.Request) (string, error) {
	ck, err := r.Cookie(c.cfg.SessionName)
	if err != nil || ck.Value == "" {
		return "", domainauth.ErrSessionNotFound
	}
	id, err := c.codec.Decode(c.cfg.SessionName, ck.Value)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domainauth.ErrSessionNotFound, err)
	}
	if id == "" {
		return "", domainauth.ErrSessionNotFound
	}
	return id, nil
}

// SetIdentity writes the SPA-readable identity cookies.
func (c *Cookies) SetIdentity(w http.ResponseWriter, sess domainauth.Session) {
	c.set(w, c.cfg.UserIDName, sess.UserID(), 0, false)
	c.set(w, c.cfg.TokenName, sess.AccessToken(), 0, false)
	c.set(w, RolesCookie, domainauth.EncodeRoles(sess.Roles()), 0, false)
	c.set(w, PlatformCookie, c.cfg.Platform, 0, false)
}

// ClearIdentity removes the identity cookies and the session cookie.
func (c *Cookies) ClearIdentity(w http.ResponseWriter) {
	c.clear(w, RolesCookie, false)
	c.clear(w, c.cfg.TokenName, false)
	c.clear(w, c.cfg.UserIDName, false)
	c.clear(w, c.cfg.SessionName, true)
}

// SetOAuth stores state and nonce for the callback.
func (c *Cookies) SetOAuth(w http.ResponseWriter, state, nonce string) {
	c.set(w, stateCookie, state, oauthCookieMaxAge, true)
	c.set(w, nonceCookie, nonce, oauthCookieMaxAge, true)
}

// OAuth returns the stored state and nonce. Missing cookies yield empty strings.
func (c *Cookies) OAuth(r *http.Request) (state, nonce string) {
	if ck, err := r.Cookie(stateCookie); err == nil {
		state = ck.Value
	}
	if ck, err := r.Cookie(nonceCookie); err == nil {
		nonce = ck.Value
	}
	return state, nonce
}

// ClearOAuth removes the state and nonce cookies.
func (c *Cookies) ClearOAuth(w http.ResponseWriter) {
	c.clear(w, stateCookie, true)
	c.clear(w, nonceCookie, true)
}
