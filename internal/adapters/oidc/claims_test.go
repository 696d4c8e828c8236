package oidc

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestRolesExtractor(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		claims  map[string]any
		want    []string
		wantErr bool
	}{
		{name: "default claim", claims: map[string]any{"roles": []any{"caseworker", "caseworker-sscs"}}, want: []string{"caseworker", "caseworker-sscs"}},
		{name: "missing claim", claims: map[string]any{"sub": "x"}, want: []string{}},
		{name: "nil claims", claims: nil, want: []string{}},
		{name: "single string", claims: map[string]any{"roles": "caseworker"}, want: []string{"caseworker"}},
		{name: "blank entries dropped", claims: map[string]any{"roles": []any{"", " caseworker "}}, want: []string{"caseworker"}},
		{name: "nested expression", expr: "realm_access.roles", claims: map[string]any{"realm_access": map[string]any{"roles": []any{"judge"}}}, want: []string{"judge"}},
		{name: "non-string item", claims: map[string]any{"roles": []any{"caseworker", 7.0}}, wantErr: true},
		{name: "object", claims: map[string]any{"roles": map[string]any{}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, err := NewRolesExtractor(tt.expr)
			require.NoError(t, err)

			got, err := ex.Extract(tt.claims)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRolesExtractor_Invalid(t *testing.T) {
	_, err := NewRolesExtractor("roles[")
	assert.Error(t, err)
}

func TestUserID(t *testing.T) {
	assert.Equal(t, "u1", userID(map[string]any{"uid": "u1", "sub": "s1"}))
	assert.Equal(t, "s1", userID(map[string]any{"sub": "s1"}))
	assert.Equal(t, "s1", userID(map[string]any{"uid": 12, "sub": "s1"}))
	assert.Empty(t, userID(map[string]any{}))
}

func TestAccessTokenExpiry(t *testing.T) {
	exp := time.Now().Add(20 * time.Minute).Truncate(time.Second)

	t.Run("expires_in wins", func(t *testing.T) {
		tok := &oauth2.Token{AccessToken: "opaque", Expiry: exp}
		assert.Equal(t, exp, accessTokenExpiry(tok))
	})

	t.Run("jwt exp fallback", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).
			SignedString([]byte("k"))
		require.NoError(t, err)
		assert.True(t, exp.Equal(accessTokenExpiry(&oauth2.Token{AccessToken: raw})))
	})

	t.Run("opaque token unknown", func(t *testing.T) {
		assert.True(t, accessTokenExpiry(&oauth2.Token{AccessToken: "opaque"}).IsZero())
		assert.True(t, accessTokenExpiry(nil).IsZero())
	})
}
