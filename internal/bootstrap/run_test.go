package bootstrap

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmcts/xui-gateway/config"
	domainauth "github.com/hmcts/xui-gateway/internal/domain/auth"
	"github.com/hmcts/xui-gateway/internal/service"
)

func testAppConfig() *config.AppConfig {
	cfg := &config.AppConfig{
		Platform: "local",
		Auth: config.AuthConfig{
			Mode:         config.AuthModeMock,
			DevAuth:      config.DevAuthConfig{UserID: "dev", Email: "dev@example.com", Roles: []string{"caseworker"}},
			AllowedRoles: []string{"caseworker"},
		},
		Session: config.SessionConfig{
			Secret: "0123456789abcdef-session-secret",
			Store:  config.SessionStoreMemory,
		},
	}
	cfg.Sanitize()
	return cfg
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	gateCh := make(chan *service.Gate, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, RunConfig{
			Config:   testAppConfig(),
			Logger:   discardLogger(),
			Listener: ln,
			Ready:    func(g *service.Gate) { gateCh <- g },
		})
	}()

	var gate *service.Gate
	select {
	case gate = <-gateCh:
	case <-time.After(5 * time.Second):
		t.Fatal("gateway did not start")
	}
	select {
	case <-gate.Settled():
	case <-time.After(5 * time.Second):
		t.Fatal("login strategy was not registered")
	}

	client := &http.Client{
		Timeout:       2 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}

	resp, err := client.Get(base + "/readyz")
	require.NoError(t, err)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", body["status"])

	resp, err = client.Get(base + "/auth/login")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "/oauth2/callback")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("gateway did not shut down")
	}
}

func TestRun_DiscoveryFailureIsFatal(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	dead, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	deadURL := "http://" + dead.Addr().String()
	require.NoError(t, dead.Close())

	cfg := testAppConfig()
	cfg.Auth = oauthConfig(deadURL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = Run(ctx, RunConfig{Config: cfg, Logger: discardLogger(), Listener: ln})
	require.ErrorIs(t, err, domainauth.ErrDiscoveryFailed)
}

func TestRun_RequiresConfig(t *testing.T) {
	assert.Error(t, Run(context.Background(), RunConfig{}))
}
