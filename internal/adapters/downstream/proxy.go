package downstream

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"
)

// browserHeaders never leave the gateway.
var browserHeaders = []string{"Cookie", "Authorization", HeaderUserRoles} //nolint:gochecknoglobals // fixed list

// ProxyConfig describes one backend.
type ProxyConfig struct {
	Name        string
	Target      string
	StripPrefix string
	Timeout     time.Duration
	Transport   http.RoundTripper // optional base transport
	Logger      *slog.Logger
}

// NewProxy returns a handler forwarding requests to cfg.Target. The handler
// must be mounted behind the session interceptor.
func NewProxy(cfg ProxyConfig) (http.Handler, error) {
	target, err := url.Parse(cfg.Target)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("downstream %s: invalid target %q", cfg.Name, cfg.Target)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("downstream", cfg.Name)

	base := cfg.Transport
	if base == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		base = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: timeout,
			IdleConnTimeout:       90 * time.Second,
			MaxIdleConnsPerHost:   16,
		}
	}

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			for _, h := range browserHeaders {
				pr.Out.Header.Del(h)
			}
			rewriteURL(pr, target, cfg.StripPrefix)
			pr.SetXForwarded()
		},
		Transport: &SessionTransport{Base: base},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			status := http.StatusBadGateway
			if errors.Is(err, ErrNoSession) {
				status = http.StatusUnauthorized
			}
			logger.WarnContext(r.Context(), "downstream request failed", "path", r.URL.Path, "status", status, "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = fmt.Fprintf(w, `{"error":%q,"message":"downstream service unavailable"}`, http.StatusText(status))
		},
	}
	return rp, nil
}

// rewriteURL maps /<prefix>/rest onto <target path>/rest without the trailing
// slash httputil's path joining would add for an empty rest.
func rewriteURL(pr *httputil.ProxyRequest, target *url.URL, stripPrefix string) {
	rest := pr.In.URL.Path
	if stripPrefix != "" {
		rest = strings.TrimPrefix(rest, stripPrefix)
	}
	if rest != "" && !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	p := strings.TrimSuffix(target.Path, "/") + rest
	if p == "" {
		p = "/"
	}

	pr.Out.URL.Scheme = target.Scheme
	pr.Out.URL.Host = target.Host
	pr.Out.URL.Path = p
	pr.Out.URL.RawPath = ""
	pr.Out.Host = ""
	if target.RawQuery != "" {
		if pr.Out.URL.RawQuery == "" {
			pr.Out.URL.RawQuery = target.RawQuery
		} else {
			pr.Out.URL.RawQuery = target.RawQuery + "&" + pr.Out.URL.RawQuery
		}
	}
}
