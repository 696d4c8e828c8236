package config

import (
	"errors"
	"strings"
	"time"
)

// ServicesConfig points at the downstream APIs the gateway forwards to.
// An empty URL leaves the corresponding route unmounted.
type ServicesConfig struct {
	PostcodeLookupURL string        `env:"POSTCODE_LOOKUP_URL"`
	PrintURL          string        `env:"PRINT_URL"`
	Timeout           time.Duration `env:"TIMEOUT"             envDefault:"30s"`
}

// Sanitize trims URLs and clamps the timeout.
func (s *ServicesConfig) Sanitize() {
	s.PostcodeLookupURL = strings.TrimSpace(s.PostcodeLookupURL)
	s.PrintURL = strings.TrimSpace(s.PrintURL)
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
}

// Validate checks that configured targets are absolute URLs.
func (s ServicesConfig) Validate() error {
	var errs []error
	if s.PostcodeLookupURL != "" {
		errs = append(errs, requireAbsoluteURL("SERVICES_POSTCODE_LOOKUP_URL", s.PostcodeLookupURL))
	}
	if s.PrintURL != "" {
		errs = append(errs, requireAbsoluteURL("SERVICES_PRINT_URL", s.PrintURL))
	}
	return errors.Join(errs...)
}
