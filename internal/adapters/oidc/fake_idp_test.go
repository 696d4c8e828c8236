package oidc

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	domainauth "github.com/hmcts/xui-gateway/internal/domain/auth"
)

const (
	testClientID     = "xuiwebapp"
	testClientSecret = "s3cret"
	testKeyID        = "k1"
)

// fakeIdP is a minimal OIDC provider: discovery, token, userinfo and JWKS.
type fakeIdP struct {
	t      *testing.T
	server *httptest.Server
	key    *rsa.PrivateKey

	mu            sync.Mutex
	issuer        string // iss claim placed in ID tokens
	nonce         string // nonce claim placed in ID tokens
	userInfo      map[string]any
	tokenStatus   int
	expiresIn     int
	lastTokenForm map[string]string
}

func newFakeIdP(t *testing.T) *fakeIdP {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &fakeIdP{
		t:           t,
		key:         key,
		tokenStatus: http.StatusOK,
		expiresIn:   3600,
		userInfo: map[string]any{
			"sub":   "alice@example.com",
			"uid":   "u-123",
			"email": "alice@example.com",
			"roles": []any{"caseworker", "caseworker-divorce"},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /o/.well-known/openid-configuration", f.discovery)
	mux.HandleFunc("POST /o/token", f.token)
	mux.HandleFunc("GET /o/userinfo", f.userinfo)
	mux.HandleFunc("GET /o/jwks", f.jwks)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	f.issuer = f.base()
	return f
}

func (f *fakeIdP) base() string { return f.server.URL + "/o" }

func (f *fakeIdP) set(fn func(f *fakeIdP)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeIdP) descriptor() domainauth.IssuerDescriptor {
	return domainauth.IssuerDescriptor{
		Issuer:                f.base(),
		DiscoveredIssuer:      f.base(),
		AuthorizationEndpoint: f.base() + "/authorize",
		TokenEndpoint:         f.base() + "/token",
		UserinfoEndpoint:      f.base() + "/userinfo",
		JWKSURI:               f.base() + "/jwks",
		SigningAlgorithms:     []string{"RS256"},
	}
}

func (f *fakeIdP) discovery(w http.ResponseWriter, _ *http.Request) {
	d := f.descriptor()
	writeTestJSON(w, http.StatusOK, DiscoveryDocument{
		Issuer:                           d.Issuer,
		AuthorizationEndpoint:            d.AuthorizationEndpoint,
		TokenEndpoint:                    d.TokenEndpoint,
		UserinfoEndpoint:                 d.UserinfoEndpoint,
		JwksURI:                          d.JWKSURI,
		IDTokenSigningAlgValuesSupported: d.SigningAlgorithms,
	})
}

func (f *fakeIdP) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastTokenForm = map[string]string{}
	for k := range r.PostForm {
		f.lastTokenForm[k] = r.PostForm.Get(k)
	}
	if f.tokenStatus != http.StatusOK {
		writeTestJSON(w, f.tokenStatus, map[string]string{"error": "invalid_grant"})
		return
	}

	now := time.Now()
	idToken := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":   f.issuer,
		"sub":   "alice@example.com",
		"aud":   testClientID,
		"exp":   now.Add(time.Hour).Unix(),
		"iat":   now.Unix(),
		"nonce": f.nonce,
	})
	idToken.Header["kid"] = testKeyID
	signed, err := idToken.SignedString(f.key)
	require.NoError(f.t, err)

	body := map[string]any{
		"access_token": "at-" + r.PostForm.Get("code"),
		"token_type":   "Bearer",
		"id_token":     signed,
	}
	if f.expiresIn > 0 {
		body["expires_in"] = f.expiresIn
	}
	writeTestJSON(w, http.StatusOK, body)
}

func (f *fakeIdP) userinfo(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") == "" {
		http.Error(w, "missing bearer", http.StatusUnauthorized)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	writeTestJSON(w, http.StatusOK, f.userInfo)
}

func (f *fakeIdP) jwks(w http.ResponseWriter, _ *http.Request) {
	pub := f.key.PublicKey
	writeTestJSON(w, http.StatusOK, map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": testKeyID,
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	})
}

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
