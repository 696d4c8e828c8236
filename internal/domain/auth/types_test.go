package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity_HasRoles(t *testing.T) {
	if (Identity{}).HasRoles() {
		t.Fatalf("empty identity must not have roles")
	}
	if (Identity{Roles: []string{""}}).HasRoles() {
		t.Fatalf("blank role must not count")
	}
	if !(Identity{Roles: []string{"caseworker"}}).HasRoles() {
		t.Fatalf("expected roles")
	}
}

func TestSession_Expired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := Session{ExpiresAt: now}
	assert.True(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(time.Second)))
	assert.False(t, s.Expired(now.Add(-time.Second)))
}

func TestSession_RolesIsACopy(t *testing.T) {
	s := Session{Identity: Identity{Roles: []string{"caseworker"}}}
	r := s.Roles()
	r[0] = "judge"
	assert.Equal(t, "caseworker", s.Identity.Roles[0])
}

func TestNextExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	idle := 30 * time.Minute

	t.Run("no token expiry", func(t *testing.T) {
		assert.Equal(t, now.Add(idle), NextExpiry(now, idle, time.Time{}))
	})
	t.Run("token outlives idle window", func(t *testing.T) {
		assert.Equal(t, now.Add(idle), NextExpiry(now, idle, now.Add(time.Hour)))
	})
	t.Run("capped by token expiry", func(t *testing.T) {
		exp := now.Add(10 * time.Minute)
		assert.Equal(t, exp, NextExpiry(now, idle, exp))
	})
}

func TestRolesEncoding(t *testing.T) {
	assert.Equal(t, "caseworker-solicitor", EncodeRoles([]string{"caseworker-solicitor"}))
	assert.Equal(t, "caseworker%2Ccaseworker-sscs", EncodeRoles([]string{"caseworker", "caseworker-sscs"}))

	for _, roles := range [][]string{
		{"caseworker"},
		{"caseworker", "caseworker-divorce", "pui-case-manager"},
		{"role with space", "role;semi"},
	} {
		got, err := DecodeRoles(EncodeRoles(roles))
		require.NoError(t, err)
		assert.Equal(t, roles, got)
	}

	got, err := DecodeRoles("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = DecodeRoles("%zz")
	assert.Error(t, err)
}

func TestRejection(t *testing.T) {
	err := fmt.Errorf("callback: %w", Reject(ErrNoRoles, "User does not have any access roles."))
	assert.True(t, errors.Is(err, ErrNoRoles))
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.True(t, IsRejection(err))
	assert.False(t, IsRejection(ErrExchangeFailed))

	var r *Rejection
	require.True(t, errors.As(err, &r))
	assert.Equal(t, "User does not have any access roles.", r.Message)
}

func TestIsMissingSession(t *testing.T) {
	assert.True(t, IsMissingSession(ErrSessionNotFound))
	assert.True(t, IsMissingSession(fmt.Errorf("get: %w", ErrSessionExpired)))
	assert.False(t, IsMissingSession(errors.New("boom")))
}

func TestSessionContext(t *testing.T) {
	ctx := context.Background()
	_, ok := SessionFromContext(ctx)
	assert.False(t, ok)

	assert.Equal(t, ctx, WithSession(ctx, nil))

	s := &Session{ID: "abc"}
	got, ok := SessionFromContext(WithSession(ctx, s))
	require.True(t, ok)
	assert.Equal(t, "abc", got.ID)
}
