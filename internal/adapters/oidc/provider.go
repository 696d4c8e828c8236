// Package oidc provides the OpenID Connect login strategy: discovery,
// authorization redirects, code exchange, ID token and nonce checks, and user info.
package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/hmcts/xui-gateway/internal/domain/auth"
	"github.com/hmcts/xui-gateway/internal/ports"
)

// Provider implements ports.AuthProvider against a single discovered issuer.
type Provider struct {
	config          *oauth2.Config
	issuer          domainauth.IssuerDescriptor
	httpClient      *http.Client
	exchangeTimeout time.Duration
	roles           RolesExtractor

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

// ProviderConfig holds everything needed to register the OIDC client.
type ProviderConfig struct {
	Client          domainauth.ClientConfig
	Issuer          domainauth.IssuerDescriptor
	Scopes          []string
	RolesClaim      string
	ExchangeTimeout time.Duration
	HTTPClient      *http.Client // Optional, defaults to a client with ExchangeTimeout
}

// NewProvider builds the provider from an already resolved issuer descriptor.
// It performs no network calls; keys are fetched lazily on first verification.
func NewProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	if cfg.Client.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if cfg.Client.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if cfg.Client.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if cfg.Issuer.Issuer == "" || cfg.Issuer.TokenEndpoint == "" || cfg.Issuer.AuthorizationEndpoint == "" {
		return nil, errors.New("issuer descriptor is incomplete")
	}

	roles, err := NewRolesExtractor(cfg.RolesClaim)
	if err != nil {
		return nil, err
	}

	timeout := cfg.ExchangeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = domainauth.DefaultScopes
	}

	// The key set keeps this context for background refreshes, so it must outlive ctx.
	keyCtx := gooidc.ClientContext(context.WithoutCancel(ctx), httpClient)
	pc := gooidc.ProviderConfig{
		IssuerURL:   cfg.Issuer.Issuer,
		AuthURL:     cfg.Issuer.AuthorizationEndpoint,
		TokenURL:    cfg.Issuer.TokenEndpoint,
		UserInfoURL: cfg.Issuer.UserinfoEndpoint,
		JWKSURL:     cfg.Issuer.JWKSURI,
		Algorithms:  slices.Clone(cfg.Issuer.SigningAlgorithms),
	}
	op := pc.NewProvider(keyCtx)

	return &Provider{
		config: &oauth2.Config{
			ClientID:     cfg.Client.ClientID,
			ClientSecret: cfg.Client.ClientSecret,
			RedirectURL:  cfg.Client.RedirectURL,
			Scopes:       slices.Clone(scopes),
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.Issuer.AuthorizationEndpoint,
				TokenURL:  cfg.Issuer.TokenEndpoint,
				AuthStyle: oauth2.AuthStyleInParams, // client_secret_post
			},
		},
		issuer:          cfg.Issuer,
		httpClient:      httpClient,
		exchangeTimeout: timeout,
		roles:           roles,
		oidcProvider:    op,
		verifier:        op.Verifier(&gooidc.Config{ClientID: cfg.Client.ClientID}),
	}, nil
}

// Issuer returns the descriptor the provider was built from.
func (p *Provider) Issuer() domainauth.IssuerDescriptor { return p.issuer }

// Begin builds the authorization URL with the configured scopes and a nonce.
func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (ports.BeginOutput, error) {
	state, nonce := in.State, in.Nonce
	var err error
	if state == "" {
		if state, err = generateRandomString(32); err != nil {
			return ports.BeginOutput{}, fmt.Errorf("generate state: %w", err)
		}
	}
	if nonce == "" {
		if nonce, err = generateRandomString(32); err != nil {
			return ports.BeginOutput{}, fmt.Errorf("generate nonce: %w", err)
		}
	}

	// redirect_uri comes from static config and must match the registered client exactly.
	authURL := p.config.AuthCodeURL(state, oauth2.SetAuthURLParam("nonce", nonce))
	return ports.BeginOutput{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// Exchange redeems the code and builds the identity. Every transport or
// protocol failure wraps domainauth.ErrExchangeFailed. An identity with no
// roles is returned as-is; the caller decides whether that is acceptable.
func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if in.Code == "" {
		return domainauth.Identity{}, fmt.Errorf("%w: authorization code is required", domainauth.ErrExchangeFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, p.exchangeTimeout)
	defer cancel()
	ctx = gooidc.ClientContext(ctx, p.httpClient)

	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("%w: exchange code for token: %w", domainauth.ErrExchangeFailed, err)
	}

	claims, rawID, err := p.verifyIDToken(ctx, token, in.Nonce)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("%w: %w", domainauth.ErrExchangeFailed, err)
	}

	info, err := p.userInfo(ctx, token)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("%w: get user info: %w", domainauth.ErrExchangeFailed, err)
	}
	maps.Copy(claims, info)

	roles, err := p.roles.Extract(info)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("%w: %w", domainauth.ErrExchangeFailed, err)
	}

	return domainauth.Identity{
		UserID:    userID(claims),
		Email:     stringClaim(claims, "email"),
		FirstName: stringClaim(claims, "given_name"),
		LastName:  stringClaim(claims, "family_name"),
		Roles:     roles,
		Tokens: domainauth.TokenSet{
			AccessToken: token.AccessToken,
			TokenType:   token.Type(),
			IDToken:     rawID,
			ExpiresAt:   accessTokenExpiry(token),
		},
		Claims: info,
	}, nil
}

func (p *Provider) verifyIDToken(ctx context.Context, tok *oauth2.Token, expectedNonce string) (map[string]any, string, error) {
	rawID, err := getIDTokenFromToken(tok)
	if err != nil {
		return nil, "", err
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return nil, "", fmt.Errorf("verify id_token: %w", err)
	}
	if expectedNonce != "" && idTok.Nonce != expectedNonce {
		return nil, "", errors.New("invalid nonce")
	}
	claims := map[string]any{}
	if err := idTok.Claims(&claims); err != nil {
		return nil, "", fmt.Errorf("parse id_token claims: %w", err)
	}
	return claims, rawID, nil
}

func (p *Provider) userInfo(ctx context.Context, tok *oauth2.Token) (map[string]any, error) {
	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		return nil, err
	}
	claims := map[string]any{}
	if err := ui.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return claims, nil
}

// generateRandomString generates a cryptographically secure URL-safe random string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	b := make([]byte, (length*3+3)/4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	return s[:min(length, len(s))], nil
}

// getIDTokenFromToken extracts the id_token from oauth2.Token.
func getIDTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	s, ok := tok.Extra("id_token").(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
