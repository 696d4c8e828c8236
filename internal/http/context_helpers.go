package httpx

import (
	"context"

	domainauth "github.com/hmcts/xui-gateway/internal/domain/auth"
)

// SetSessionInContext returns a child context that carries the given session.
// The key lives in the domain package so the downstream transport can read it too.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	return domainauth.WithSession(ctx, session)
}

// GetUserSessionFromContext returns the user session from context and a boolean indicating presence.
func GetUserSessionFromContext(ctx context.Context) (*domainauth.Session, bool) {
	return domainauth.SessionFromContext(ctx)
}

// GetSessionFromContext retrieves the session from the request context.
// Prefer GetUserSessionFromContext when you need presence info.
func GetSessionFromContext(ctx context.Context) *domainauth.Session {
	if s, ok := GetUserSessionFromContext(ctx); ok {
		return s
	}
	return nil
}
