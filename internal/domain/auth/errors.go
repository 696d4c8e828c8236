package auth

import "errors"

var (
	// ErrDiscoveryFailed is fatal: the process must not accept traffic without issuer metadata.
	ErrDiscoveryFailed = errors.New("oidc discovery failed")
	// ErrNotReady means no login strategy has been registered yet.
	ErrNotReady = errors.New("authentication is not ready")
	// ErrExchangeFailed covers transport and protocol errors during the callback.
	ErrExchangeFailed = errors.New("authorization code exchange failed")
	// ErrNoRoles means the identity carried no role claims.
	ErrNoRoles = errors.New("user does not have any access roles")
	// ErrUnauthorized means the roles did not pass the role gate.
	ErrUnauthorized = errors.New("user has no application access")
	// ErrSessionExpired means the sliding expiry elapsed.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionNotFound is returned by session stores for unknown ids.
	ErrSessionNotFound = errors.New("session not found")
)

// Rejection is a terminal login failure with a message meant for the user.
type Rejection struct {
	Reason  error
	Message string
}

func (r *Rejection) Error() string { return r.Message }

func (r *Rejection) Unwrap() error { return r.Reason }

// Reject builds a Rejection for one of the authorization sentinels.
func Reject(reason error, message string) *Rejection {
	return &Rejection{Reason: reason, Message: message}
}

// IsRejection reports whether err is a user-facing login rejection.
func IsRejection(err error) bool {
	var r *Rejection
	return errors.As(err, &r)
}

// IsMissingSession reports whether err means "no usable session".
// Expired and unknown sessions are treated identically by callers.
func IsMissingSession(err error) bool {
	return errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionExpired)
}
