// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hmcts/xui-gateway/internal/adapters/memory"
	domainauth "github.com/hmcts/xui-gateway/internal/domain/auth"
	"github.com/hmcts/xui-gateway/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider = (*MockAuthProvider)(nil)
	_ ports.SessionStore = (*MemorySessionStore)(nil)
	_ ports.RoleGate     = StaticRoleGate(false)
)

// MockAuthProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (ports.BeginOutput, error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	AuthURL     string
	StatePrefix string
	NoncePrefix string
	DefaultUser domainauth.Identity

	mu        sync.Mutex
	callCount int
	exchanges []ports.ExchangeInput
}

// NewMockAuthProvider creates a MockAuthProvider with a caseworker identity.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://mock-idp/o/authorize",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultUser: DefaultIdentity(),
	}
}

// DefaultIdentity is the identity returned when no DefaultUser is configured.
func DefaultIdentity() domainauth.Identity {
	return domainauth.Identity{
		UserID:    "mock-user-1",
		FirstName: "Mock",
		LastName:  "User",
		Email:     "mock.user@example.com",
		Roles:     []string{"caseworker", "caseworker-divorce"},
		Tokens:    domainauth.TokenSet{AccessToken: "mock-access-token", TokenType: "Bearer"},
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (ports.BeginOutput, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.mu.Lock()
	m.callCount++
	n := m.callCount
	m.mu.Unlock()

	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/o/authorize"
	}
	state := in.State
	if state == "" {
		state = fmt.Sprintf("%s-%d", orDefault(m.StatePrefix, "state"), n)
	}
	nonce := in.Nonce
	if nonce == "" {
		nonce = fmt.Sprintf("%s-%d", orDefault(m.NoncePrefix, "nonce"), n)
	}
	return ports.BeginOutput{AuthURL: authURL + "?state=" + state, State: state, Nonce: nonce}, nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	m.mu.Lock()
	m.exchanges = append(m.exchanges, in)
	m.mu.Unlock()

	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}

	user := m.DefaultUser
	if user.UserID == "" {
		user = DefaultIdentity()
	}
	user.Roles = slices.Clone(user.Roles)
	user.Tokens.ExpiresAt = time.Now().Add(time.Hour)
	return user, nil
}

// Exchanges returns the inputs Exchange was called with.
func (m *MockAuthProvider) Exchanges() []ports.ExchangeInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.exchanges)
}

// MemorySessionStore is an in-memory session store that counts writes.
type MemorySessionStore struct {
	*memory.SessionStore

	saves   atomic.Int32
	touches atomic.Int32
	deletes atomic.Int32
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{SessionStore: memory.NewSessionStore()}
}

func (m *MemorySessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	m.saves.Add(1)
	return m.SessionStore.Save(ctx, sess)
}

func (m *MemorySessionStore) Touch(ctx context.Context, id string, lastSeen, expiresAt time.Time) error {
	m.touches.Add(1)
	return m.SessionStore.Touch(ctx, id, lastSeen, expiresAt)
}

func (m *MemorySessionStore) Delete(ctx context.Context, id string) error {
	m.deletes.Add(1)
	return m.SessionStore.Delete(ctx, id)
}

// Saves reports how many times Save was called.
func (m *MemorySessionStore) Saves() int { return int(m.saves.Load()) }

// Touches reports how many times Touch was called.
func (m *MemorySessionStore) Touches() int { return int(m.touches.Load()) }

// Deletes reports how many times Delete was called.
func (m *MemorySessionStore) Deletes() int { return int(m.deletes.Load()) }

// StaticRoleGate answers every IsAuthorized call with the same value.
type StaticRoleGate bool

func (g StaticRoleGate) IsAuthorized([]string) bool { return bool(g) }

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
