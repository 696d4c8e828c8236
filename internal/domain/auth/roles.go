package auth

import (
	"net/url"
	"strings"
)

// EncodeRoles renders a role list as a single cookie-safe value.
// Roles are comma-joined and query-escaped so the value never needs quoting.
func EncodeRoles(roles []string) string {
	return url.QueryEscape(strings.Join(roles, ","))
}

// DecodeRoles reverses EncodeRoles.
func DecodeRoles(v string) ([]string, error) {
	raw, err := url.QueryUnescape(v)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return []string{}, nil
	}
	return strings.Split(raw, ","), nil
}

// HeaderRoles renders roles for the user-roles header sent to downstream APIs.
func HeaderRoles(roles []string) string {
	return strings.Join(roles, ",")
}
