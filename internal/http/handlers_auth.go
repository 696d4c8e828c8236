package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	domainauth "github.com/hmcts/xui-gateway/internal/domain/auth"
	"github.com/hmcts/xui-gateway/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	BeginLogin(ctx context.Context) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Authenticate(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// LoggedOutMessage is the body of a non-redirect logout.
const LoggedOutMessage = "You have been logged out!"

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc     AuthServiceInterface
	Cookies *Cookies
	Logger  *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login handles the login initiation endpoint.
// GET /login, GET /auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	result, err := h.Svc.BeginLogin(r.Context())
	if err != nil {
		if errors.Is(err, domainauth.ErrNotReady) {
			WriteError(w, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "not_ready", Err: err})
			return
		}
		h.logger().ErrorContext(r.Context(), "begin login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("unable to start login"),
		})
		return
	}

	h.Cookies.SetOAuth(w, result.State, result.Nonce)
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback handles the OAuth callback endpoint.
// GET /oauth2/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if idpErr := q.Get("error"); idpErr != "" {
		h.Cookies.ClearOAuth(w)
		msg := q.Get("error_description")
		if msg == "" {
			msg = idpErr
		}
		h.logger().WarnContext(r.Context(), "identity provider returned an error", "error", idpErr)
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "idp_error", Err: errors.New(msg)})
		return
	}

	code := q.Get("code")
	state := q.Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	if state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_state",
			Err:     errors.New("state parameter is required"),
		})
		return
	}

	storedState, nonce := h.Cookies.OAuth(r)
	if storedState == "" || storedState != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	if nonce == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}
	h.Cookies.ClearOAuth(w)

	result, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{Code: code, Nonce: nonce})
	if err != nil {
		h.writeLoginError(w, r, err)
		return
	}

	if err := h.Cookies.SetSession(w, result.Session); err != nil {
		h.logger().ErrorContext(r.Context(), "write session cookie failed", "error", err)
		if logoutErr := h.Svc.Logout(r.Context(), result.Session.ID); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "discard session failed", "error", logoutErr)
		}
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_completion_failed",
			Err:     errors.New("unable to establish session"),
		})
		return
	}
	h.Cookies.SetIdentity(w, result.Session)

	http.Redirect(w, r, "/", http.StatusFound)
}

// writeLoginError maps callback failures to responses. Rejections carry
// their user-facing message; other failures are logged and kept generic.
func (h *AuthHandlers) writeLoginError(w http.ResponseWriter, r *http.Request, err error) {
	var rejection *domainauth.Rejection
	switch {
	case errors.Is(err, domainauth.ErrNotReady):
		WriteError(w, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "not_ready", Err: err})
	case errors.As(err, &rejection):
		errCode := "unauthorized"
		if errors.Is(err, domainauth.ErrNoRoles) {
			errCode = "no_roles"
		}
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: errCode, Err: rejection})
	case errors.Is(err, domainauth.ErrExchangeFailed):
		h.logger().WarnContext(r.Context(), "code exchange failed", "error", err)
		WriteError(w, ErrorParams{Code: http.StatusBadGateway, ErrCode: "exchange_failed", Err: domainauth.ErrExchangeFailed})
	default:
		h.logger().ErrorContext(r.Context(), "login completion failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_completion_failed",
			Err:     errors.New("unable to complete login"),
		})
	}
}

// Logout handles GET /logout and GET /api/logout.
// With ?redirect=<path> it redirects; otherwise it answers with a JSON message.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.logout(w, r, logoutParams{Redirect: r.URL.Query().Get("redirect")})
}

// LogoutToLogin handles GET /auth/logout and always sends the browser back to the login page.
func (h *AuthHandlers) LogoutToLogin(w http.ResponseWriter, r *http.Request) {
	h.logout(w, r, logoutParams{Redirect: "/auth/login"})
}

type logoutParams struct {
	Redirect string
	// Unauthorized marks a logout forced by a missing or expired session.
	Unauthorized bool
}

// logout deletes the session record before writing any part of the response.
func (h *AuthHandlers) logout(w http.ResponseWriter, r *http.Request, p logoutParams) {
	var deleteErr error
	if id, err := h.Cookies.SessionID(r); err == nil {
		deleteErr = h.Svc.Logout(r.Context(), id)
	}
	h.Cookies.ClearIdentity(w)

	if deleteErr != nil {
		h.logger().ErrorContext(r.Context(), "logout failed", "error", deleteErr)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "logout_failed",
			Err:     errors.New("unable to end session"),
		})
		return
	}

	switch {
	case p.Unauthorized:
		// Forced logout stays 401 and still carries Location; it is not the 302 branch.
		w.Header().Set("Location", safeRedirectPath(p.Redirect))
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
	case p.Redirect != "":
		http.Redirect(w, r, safeRedirectPath(p.Redirect), http.StatusFound)
	default:
		WriteJSON(w, http.StatusOK, map[string]string{"message": LoggedOutMessage})
	}
}

// Status returns the current authentication status without sliding the session.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	unauthenticated := map[string]any{"authenticated": false}

	id, err := h.Cookies.SessionID(r)
	if err != nil {
		WriteJSON(w, http.StatusOK, unauthenticated)
		return
	}

	session, err := h.Svc.GetSession(r.Context(), id)
	if err != nil {
		if !domainauth.IsMissingSession(err) {
			h.logger().WarnContext(r.Context(), "session lookup failed", "error", err)
		}
		// Read-only: stale cookies stay until the user logs out.
		WriteJSON(w, http.StatusOK, unauthenticated)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"id":         session.UserID(),
			"email":      session.Identity.Email,
			"first_name": session.Identity.FirstName,
			"last_name":  session.Identity.LastName,
			"roles":      session.Roles(),
		},
		"expires_at": session.ExpiresAt,
	})
}

// Keepalive answers with the slid expiry. The interceptor has already touched the session.
// GET /auth/keepalive.
func (h *AuthHandlers) Keepalive(w http.ResponseWriter, r *http.Request) {
	session, ok := GetUserSessionFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"expires_at": session.ExpiresAt})
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	if strings.HasPrefix(candidate, "//") || strings.Contains(candidate, `\`) {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}
