package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"

	domainauth "github.com/hmcts/xui-gateway/internal/domain/auth"
)

// DiscoveryDocument represents the subset of the OIDC discovery document we consume.
type DiscoveryDocument struct {
	Issuer                           string   `json:"issuer"`
	AuthorizationEndpoint            string   `json:"authorization_endpoint"`
	TokenEndpoint                    string   `json:"token_endpoint"`
	UserinfoEndpoint                 string   `json:"userinfo_endpoint"`
	JwksURI                          string   `json:"jwks_uri"`
	EndSessionEndpoint               string   `json:"end_session_endpoint,omitempty"`
	IDTokenSigningAlgValuesSupported []string `json:"id_token_signing_alg_values_supported,omitempty"`
}

// Resolver performs OIDC discovery once at startup.
type Resolver struct {
	// IssuerOverride replaces the discovered issuer when set. Some deployments
	// publish metadata under an internal hostname while tokens carry a public one.
	IssuerOverride string
	HTTPClient     *http.Client
	Timeout        time.Duration
}

// Resolve discovers the provider at base and returns an immutable descriptor.
// Every failure wraps domainauth.ErrDiscoveryFailed.
func (r Resolver) Resolve(ctx context.Context, base string) (domainauth.IssuerDescriptor, error) {
	doc, err := r.discover(ctx, base)
	if err != nil {
		return domainauth.IssuerDescriptor{}, fmt.Errorf("%w: %w", domainauth.ErrDiscoveryFailed, err)
	}
	if err := validateDocument(doc); err != nil {
		return domainauth.IssuerDescriptor{}, fmt.Errorf("%w: %w", domainauth.ErrDiscoveryFailed, err)
	}

	issuer := doc.Issuer
	if r.IssuerOverride != "" {
		issuer = r.IssuerOverride
	}
	return domainauth.IssuerDescriptor{
		Issuer:                issuer,
		DiscoveredIssuer:      doc.Issuer,
		AuthorizationEndpoint: doc.AuthorizationEndpoint,
		TokenEndpoint:         doc.TokenEndpoint,
		UserinfoEndpoint:      doc.UserinfoEndpoint,
		JWKSURI:               doc.JwksURI,
		EndSessionEndpoint:    doc.EndSessionEndpoint,
		SigningAlgorithms:     slices.Clone(doc.IDTokenSigningAlgValuesSupported),
	}, nil
}

func (r Resolver) discover(ctx context.Context, base string) (*DiscoveryDocument, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid issuer base URL %q", base)
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := r.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	ctx = gooidc.ClientContext(ctx, client)
	if r.IssuerOverride != "" {
		// Tokens are verified against the override, not the advertised issuer.
		ctx = gooidc.InsecureIssuerURLContext(ctx, r.IssuerOverride)
	}

	provider, err := gooidc.NewProvider(ctx, strings.TrimSuffix(u.String(), "/"))
	if err != nil {
		return nil, err
	}

	var doc DiscoveryDocument
	if err := provider.Claims(&doc); err != nil {
		return nil, fmt.Errorf("decode discovery document: %w", err)
	}
	return &doc, nil
}

func validateDocument(doc *DiscoveryDocument) error {
	var errs []error
	required := []struct{ name, val string }{
		{"issuer", doc.Issuer},
		{"authorization_endpoint", doc.AuthorizationEndpoint},
		{"token_endpoint", doc.TokenEndpoint},
		{"userinfo_endpoint", doc.UserinfoEndpoint},
		{"jwks_uri", doc.JwksURI},
	}
	for _, f := range required {
		if f.val == "" {
			errs = append(errs, fmt.Errorf("missing %s", f.name))
			continue
		}
		if f.name == "issuer" {
			continue
		}
		if u, err := url.Parse(f.val); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid %s %q", f.name, f.val))
		}
	}
	return errors.Join(errs...)
}
