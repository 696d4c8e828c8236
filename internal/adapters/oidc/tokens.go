package oidc

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// accessTokenExpiry returns when the access token stops being usable.
// It prefers expires_in from the token response and falls back to the
// exp claim when the access token is itself a JWT. Zero means unknown.
func accessTokenExpiry(tok *oauth2.Token) time.Time {
	if tok == nil {
		return time.Time{}
	}
	if !tok.Expiry.IsZero() {
		return tok.Expiry
	}
	return jwtExpiry(tok.AccessToken)
}

// jwtExpiry reads exp without verifying the signature. The value is only used
// to cap session lifetime; it is never trusted for authentication.
func jwtExpiry(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
