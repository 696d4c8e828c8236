package authroles

import (
	"slices"
	"strings"
)

// DefaultEntries grants access to the caseworker role and its families.
var DefaultEntries = []string{"caseworker", "caseworker-*"} //nolint:gochecknoglobals // default config

// AllowList authorizes a role set when any role matches an entry.
// Entries ending in "*" match any role with that prefix; other entries match exactly.
type AllowList struct {
	exact    map[string]struct{}
	prefixes []string
}

// NewAllowList builds an AllowList from raw entries. Blank entries are ignored.
func NewAllowList(entries []string) *AllowList {
	al := &AllowList{exact: make(map[string]struct{}, len(entries))}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if p, ok := strings.CutSuffix(e, "*"); ok {
			if p != "" && !slices.Contains(al.prefixes, p) {
				al.prefixes = append(al.prefixes, p)
			}
			continue
		}
		al.exact[e] = struct{}{}
	}
	return al
}

// IsAuthorized is total over any input, including nil and empty slices.
func (a *AllowList) IsAuthorized(roles []string) bool {
	if a == nil {
		return false
	}
	for _, r := range roles {
		if r == "" {
			continue
		}
		if _, ok := a.exact[r]; ok {
			return true
		}
		for _, p := range a.prefixes {
			if strings.HasPrefix(r, p) {
				return true
			}
		}
	}
	return false
}

// Entries returns the normalized entries, mostly for logging.
func (a *AllowList) Entries() []string {
	out := make([]string, 0, len(a.exact)+len(a.prefixes))
	for e := range a.exact {
		out = append(out, e)
	}
	for _, p := range a.prefixes {
		out = append(out, p+"*")
	}
	slices.Sort(out)
	return out
}
