package oidc

import (
	"errors"
	"fmt"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// DefaultRolesClaim selects the top-level "roles" array of the user info payload.
const DefaultRolesClaim = "roles"

// RolesExtractor pulls a role list out of a claim set with a JMESPath expression.
type RolesExtractor struct {
	expr string
}

// NewRolesExtractor validates expr once so bad configuration fails at startup.
func NewRolesExtractor(expr string) (RolesExtractor, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		expr = DefaultRolesClaim
	}
	if _, err := jmespath.Compile(expr); err != nil {
		return RolesExtractor{}, fmt.Errorf("compile roles claim %q: %w", expr, err)
	}
	return RolesExtractor{expr: expr}, nil
}

// Extract returns the roles found in claims. A missing claim yields an empty list.
func (e RolesExtractor) Extract(claims map[string]any) ([]string, error) {
	if len(claims) == 0 {
		return []string{}, nil
	}
	expr := e.expr
	if expr == "" {
		expr = DefaultRolesClaim
	}
	res, err := jmespath.Search(expr, claims)
	if err != nil {
		return nil, fmt.Errorf("evaluate roles claim: %w", err)
	}
	return toRoles(res)
}

func toRoles(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return []string{}, nil
	case string:
		if t == "" {
			return []string{}, nil
		}
		return []string{t}, nil
	case []string:
		return compact(t), nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("roles claim contains non-string %T", item)
			}
			out = append(out, s)
		}
		return compact(out), nil
	default:
		return nil, errors.New("roles claim is not a string list")
	}
}

func compact(in []string) []string {
	out := in[:0:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// userID applies the uid then sub precedence.
func userID(claims map[string]any) string {
	return firstNonEmpty(stringClaim(claims, "uid"), stringClaim(claims, "sub"))
}

func stringClaim(claims map[string]any, key string) string {
	if s, ok := claims[key].(string); ok {
		return s
	}
	return ""
}

// firstNonEmpty returns the first non-empty string from vals, or empty string if none.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
