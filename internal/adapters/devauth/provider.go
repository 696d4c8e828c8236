// Package devauth provides a config-driven AuthProvider for local development.
// It never talks to an identity provider.
package devauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"

	domainauth "github.com/hmcts/xui-gateway/internal/domain/auth"
	"github.com/hmcts/xui-gateway/internal/ports"
)

// Config controls the dev auth provider behavior.
// UserID is required; Roles may be empty to exercise the no-roles rejection.
type Config struct {
	UserID       string
	Email        string
	Roles        []string
	CallbackPath string        // default /oauth2/callback
	TokenTTL     time.Duration // default 8h when zero
}

// Provider implements ports.AuthProvider for local development.
// Begin redirects straight back to our own callback with locally generated
// state and nonce; Exchange ignores the code and returns the configured identity.
type Provider struct {
	cfg Config
	now func() time.Time
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.CallbackPath == "" {
		cfg.CallbackPath = "/oauth2/callback"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 8 * time.Hour
	}
	cfg.Roles = slices.Clone(cfg.Roles)
	return &Provider{cfg: cfg, now: time.Now}, nil
}

// Begin returns a local callback URL carrying the state.
func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (ports.BeginOutput, error) {
	state, nonce := in.State, in.Nonce
	var err error
	if state == "" {
		if state, err = randomString(24); err != nil {
			return ports.BeginOutput{}, fmt.Errorf("generate state: %w", err)
		}
	}
	if nonce == "" {
		if nonce, err = randomString(24); err != nil {
			return ports.BeginOutput{}, fmt.Errorf("generate nonce: %w", err)
		}
	}
	q := url.Values{"code": {"dev"}, "state": {state}}
	return ports.BeginOutput{
		AuthURL: p.cfg.CallbackPath + "?" + q.Encode(),
		State:   state,
		Nonce:   nonce,
	}, nil
}

// Exchange returns the dev identity with a fresh opaque token.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, error) {
	tok, err := randomString(32)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("%w: generate token: %w", domainauth.ErrExchangeFailed, err)
	}
	return domainauth.Identity{
		UserID: p.cfg.UserID,
		Email:  p.cfg.Email,
		Roles:  slices.Clone(p.cfg.Roles),
		Tokens: domainauth.TokenSet{
			AccessToken: "dev-" + tok,
			TokenType:   "Bearer",
			ExpiresAt:   p.now().Add(p.cfg.TokenTTL),
		},
		Claims: map[string]any{"uid": p.cfg.UserID, "roles": slices.Clone(p.cfg.Roles)},
	}, nil
}

func randomString(n int) (string, error) {
	b := make([]byte, (n*3+3)/4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	return s[:min(n, len(s))], nil
}
