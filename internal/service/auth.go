package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/hmcts/xui-gateway/internal/domain/auth"
	"github.com/hmcts/xui-gateway/internal/ports"
)

// DefaultIdleTimeout is the sliding session window.
const DefaultIdleTimeout = 30 * time.Minute

// User-facing rejection messages.
const (
	MsgNoRoles      = "User does not have any access roles."
	MsgUnauthorized = "User has no application access, as they do not have a Caseworker role."
)

// StrategySource resolves a login strategy by name.
type StrategySource interface {
	Strategy(name string) (ports.AuthProvider, error)
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Strategies  StrategySource
	Sessions    ports.SessionStore
	Roles       ports.RoleGate
	IdleTimeout time.Duration
	Logger      *slog.Logger
	Now         func() time.Time
}

// AuthService orchestrates login, session lookup and logout. It holds no
// mutable state of its own; the gate and the store own all shared state.
type AuthService struct {
	strategies StrategySource
	sessions   ports.SessionStore
	roles      ports.RoleGate
	idle       time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	idle := opts.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		strategies: opts.Strategies,
		sessions:   opts.Sessions,
		roles:      opts.Roles,
		idle:       idle,
		logger:     logger.With("component", "auth"),
		now:        now,
	}
}

// IdleTimeout is the sliding window applied on each authenticated request.
func (s *AuthService) IdleTimeout() time.Duration { return s.idle }

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin builds the IdP redirect. It returns domainauth.ErrNotReady until
// the oidc strategy is registered.
func (s *AuthService) BeginLogin(ctx context.Context) (*BeginLoginResult, error) {
	provider, err := s.strategies.Strategy(domainauth.StrategyOIDC)
	if err != nil {
		return nil, err
	}
	out, err := provider.Begin(ctx, ports.BeginInput{})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	return &BeginLoginResult{AuthURL: out.AuthURL, State: out.State, Nonce: out.Nonce}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
// State has already been matched against the browser's state cookie.
type CompleteLoginInput struct {
	Code  string
	Nonce string
}

// CompleteLoginResult contains the result of completing a login flow.
type CompleteLoginResult struct {
	Session domainauth.Session
}

// CompleteLogin exchanges the code, applies the role gate and persists a session.
// A rejected identity leaves no trace: nothing is stored.
func (s *AuthService) CompleteLogin(ctx context.Context, in CompleteLoginInput) (*CompleteLoginResult, error) {
	if in.Code == "" {
		return nil, fmt.Errorf("%w: authorization code is required", domainauth.ErrExchangeFailed)
	}
	provider, err := s.strategies.Strategy(domainauth.StrategyOIDC)
	if err != nil {
		return nil, err
	}

	identity, err := provider.Exchange(ctx, ports.ExchangeInput{Code: in.Code, Nonce: in.Nonce})
	if err != nil {
		if !errors.Is(err, domainauth.ErrExchangeFailed) {
			err = fmt.Errorf("%w: %w", domainauth.ErrExchangeFailed, err)
		}
		return nil, err
	}

	if !identity.HasRoles() {
		s.logger.InfoContext(ctx, "login rejected", "user_id", identity.UserID, "reason", "no_roles")
		return nil, domainauth.Reject(domainauth.ErrNoRoles, MsgNoRoles)
	}
	if !s.roles.IsAuthorized(identity.Roles) {
		s.logger.InfoContext(ctx, "login rejected", "user_id", identity.UserID, "reason", "role_gate")
		return nil, domainauth.Reject(domainauth.ErrUnauthorized, MsgUnauthorized)
	}
	if identity.UserID == "" {
		return nil, fmt.Errorf("%w: identity has no user id", domainauth.ErrExchangeFailed)
	}

	now := s.now()
	expires := domainauth.NextExpiry(now, s.idle, identity.Tokens.ExpiresAt)
	if !expires.After(now) {
		return nil, fmt.Errorf("%w: access token already expired", domainauth.ErrExchangeFailed)
	}

	session := domainauth.Session{
		ID:        generateSessionID(),
		Identity:  identity,
		CreatedAt: now,
		LastSeen:  now,
		ExpiresAt: expires,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.logger.InfoContext(ctx, "login succeeded", "user_id", identity.UserID, "roles", len(identity.Roles))
	return &CompleteLoginResult{Session: session}, nil
}

// GetSession loads a session without sliding its expiry.
// Unknown and expired sessions both return an error matching domainauth.IsMissingSession.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, domainauth.ErrSessionNotFound
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if session.Expired(s.now()) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(domainauth.ErrSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, domainauth.ErrSessionExpired
	}
	return &session, nil
}

// Authenticate loads a session and slides its expiry, never past the access token expiry.
func (s *AuthService) Authenticate(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	next := domainauth.NextExpiry(now, s.idle, session.Identity.Tokens.ExpiresAt)
	if err := s.sessions.Touch(ctx, sessionID, now, next); err != nil {
		return nil, fmt.Errorf("touch session: %w", err)
	}
	session.LastSeen = now
	session.ExpiresAt = next
	return session, nil
}

// Logout removes a session. Logging out twice, or without a session, succeeds.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// generateSessionID creates a cryptographically secure random session ID.
func generateSessionID() string {
	return uuid.NewString()
}
