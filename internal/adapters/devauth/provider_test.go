package devauth

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmcts/xui-gateway/internal/ports"
)

func TestProvider_BeginAndExchange(t *testing.T) {
	prov, err := NewProvider(Config{UserID: "dev-user", Email: "dev@example.com", Roles: []string{"caseworker"}})
	require.NoError(t, err)

	out, err := prov.Begin(context.Background(), ports.BeginInput{})
	require.NoError(t, err)
	assert.NotEmpty(t, out.State)
	assert.NotEmpty(t, out.Nonce)

	u, err := url.Parse(out.AuthURL)
	require.NoError(t, err)
	assert.Equal(t, "/oauth2/callback", u.Path)
	assert.Equal(t, "dev", u.Query().Get("code"))
	assert.Equal(t, out.State, u.Query().Get("state"))

	id, err := prov.Exchange(context.Background(), ports.ExchangeInput{Code: "dev", Nonce: out.Nonce})
	require.NoError(t, err)
	assert.Equal(t, "dev-user", id.UserID)
	assert.Equal(t, "dev@example.com", id.Email)
	assert.Equal(t, []string{"caseworker"}, id.Roles)
	assert.NotEmpty(t, id.Tokens.AccessToken)
	assert.False(t, id.Tokens.ExpiresAt.IsZero())
}

func TestProvider_BeginKeepsCallerState(t *testing.T) {
	prov, err := NewProvider(Config{UserID: "u", CallbackPath: "/cb"})
	require.NoError(t, err)

	out, err := prov.Begin(context.Background(), ports.BeginInput{State: "s1", Nonce: "n1"})
	require.NoError(t, err)
	assert.Equal(t, "/cb?code=dev&state=s1", out.AuthURL)
	assert.Equal(t, "n1", out.Nonce)
}

func TestNewProvider_RequiresUser(t *testing.T) {
	_, err := NewProvider(Config{})
	assert.Error(t, err)
}
