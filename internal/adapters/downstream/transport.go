// Package downstream forwards authenticated requests to backend services.
// Credentials come from the session attached to each request's context,
// never from process-wide state.
package downstream

import (
	"errors"
	"net/http"

	"golang.org/x/oauth2"

	domainauth "github.com/hmcts/xui-gateway/internal/domain/auth"
)

// HeaderUserRoles carries the comma-joined role list to backends.
const HeaderUserRoles = "user-roles"

// ErrNoSession is returned when a request reaches the transport without a session.
var ErrNoSession = errors.New("downstream: no session in request context")

// SessionTransport authorizes each outbound request with the access token and
// roles of the session found in the request context.
type SessionTransport struct {
	Base http.RoundTripper
}

func (t *SessionTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip implements http.RoundTripper.
func (t *SessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	sess, ok := domainauth.SessionFromContext(req.Context())
	if !ok || sess.AccessToken() == "" {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, ErrNoSession
	}

	// RoundTrippers must not mutate the caller's request.
	out := req.Clone(req.Context())
	out.Header.Set(HeaderUserRoles, domainauth.HeaderRoles(sess.Identity.Roles))

	tokenType := sess.Identity.Tokens.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	ot := &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: sess.AccessToken(), TokenType: tokenType}),
		Base:   t.base(),
	}
	return ot.RoundTrip(out)
}
