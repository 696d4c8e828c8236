package bootstrap

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmcts/xui-gateway/config"
	domainauth "github.com/hmcts/xui-gateway/internal/domain/auth"
	"github.com/hmcts/xui-gateway/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newDiscoveryServer serves a discovery document under /o like the IDAM API.
func newDiscoveryServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("GET /o/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		base := srv.URL + "/o"
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                                base,
			"authorization_endpoint":                base + "/authorize",
			"token_endpoint":                        base + "/token",
			"userinfo_endpoint":                     base + "/userinfo",
			"jwks_uri":                              base + "/jwks",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func oauthConfig(apiURL string) config.AuthConfig {
	return config.AuthConfig{
		Mode: config.AuthModeOAuth,
		IDAM: config.IDAMConfig{APIURL: apiURL},
		OAuth: config.OAuthConfig{
			ClientID:     "xuiwebapp",
			ClientSecret: "secret",
			RedirectURL:  "http://localhost:3000/oauth2/callback",
			Scope:        "profile openid roles",
		},
		RolesClaim:       "roles",
		DiscoveryTimeout: 2 * time.Second,
		ExchangeTimeout:  2 * time.Second,
		AllowedRoles:     []string{"caseworker"},
	}
}

func TestRegisterAuthProvider_DevMode(t *testing.T) {
	gate := service.NewGate()
	err := RegisterAuthProvider(context.Background(), AuthConfig{
		Auth: config.AuthConfig{
			Mode:    config.AuthModeMock,
			DevAuth: config.DevAuthConfig{UserID: "dev", Roles: []string{"caseworker"}},
		},
		Gate:   gate,
		Logger: discardLogger(),
	})
	require.NoError(t, err)

	state, cause := gate.State()
	assert.Equal(t, service.GateReady, state)
	assert.NoError(t, cause)
	_, err = gate.Strategy(domainauth.StrategyOIDC)
	assert.NoError(t, err)
}

func TestRegisterAuthProvider_DevModeRequiresUser(t *testing.T) {
	gate := service.NewGate()
	err := RegisterAuthProvider(context.Background(), AuthConfig{
		Auth:   config.AuthConfig{Mode: config.AuthModeMock},
		Gate:   gate,
		Logger: discardLogger(),
	})
	require.Error(t, err)

	state, _ := gate.State()
	assert.Equal(t, service.GateFailed, state)
}

func TestRegisterAuthProvider_OAuthDiscovery(t *testing.T) {
	idp := newDiscoveryServer(t)
	gate := service.NewGate()

	err := RegisterAuthProvider(context.Background(), AuthConfig{
		Auth:   oauthConfig(idp.URL),
		Gate:   gate,
		Logger: discardLogger(),
	})
	require.NoError(t, err)

	prov, err := gate.Strategy(domainauth.StrategyOIDC)
	require.NoError(t, err)
	require.NotNil(t, prov)
	select {
	case <-gate.Settled():
	default:
		t.Fatal("gate should be settled after registration")
	}
}

func TestRegisterAuthProvider_DiscoveryFailureFailsGate(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	gate := service.NewGate()

	err := RegisterAuthProvider(context.Background(), AuthConfig{
		Auth:   oauthConfig(srv.URL),
		Gate:   gate,
		Logger: discardLogger(),
	})
	require.ErrorIs(t, err, domainauth.ErrDiscoveryFailed)

	state, cause := gate.State()
	assert.Equal(t, service.GateFailed, state)
	require.ErrorIs(t, cause, domainauth.ErrDiscoveryFailed)
	_, err = gate.Strategy(domainauth.StrategyOIDC)
	assert.ErrorIs(t, err, domainauth.ErrNotReady)
}

func TestRegisterAuthProvider_UnknownMode(t *testing.T) {
	gate := service.NewGate()
	err := RegisterAuthProvider(context.Background(), AuthConfig{
		Auth:   config.AuthConfig{Mode: "saml"},
		Gate:   gate,
		Logger: discardLogger(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported auth mode")
}
