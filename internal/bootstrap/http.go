package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hmcts/xui-gateway/config"
	"github.com/hmcts/xui-gateway/internal/adapters/downstream"
	httpx "github.com/hmcts/xui-gateway/internal/http"
	"github.com/hmcts/xui-gateway/internal/ports"
)

// HTTPHandlerConfig contains the dependencies for the gateway handler.
type HTTPHandlerConfig struct {
	Config    *config.AppConfig
	Auth      httpx.AuthServiceInterface
	Codec     ports.CookieCodec
	Readiness httpx.ReadinessReporter
	Transport http.RoundTripper // optional, used for downstream calls
	Logger    *slog.Logger
}

// BuildHTTPHandler assembles cookies, downstream proxies and the router.
func BuildHTTPHandler(cfg HTTPHandlerConfig) (http.Handler, error) {
	if cfg.Config == nil {
		return nil, errors.New("http handler requires configuration")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	cookies := httpx.NewCookies(httpx.CookieConfig{
		Domain:        appCfg.HTTP.CookieDomain,
		Secure:        appCfg.HTTP.SecureCookies,
		TokenName:     appCfg.HTTP.TokenCookie,
		UserIDName:    appCfg.HTTP.UserIDCookie,
		Platform:      appCfg.Platform,
		SessionMaxAge: appCfg.Session.CookieMaxAge,
	}, cfg.Codec)

	services := httpx.RouterServices{
		Auth:      cfg.Auth,
		Cookies:   cookies,
		Readiness: cfg.Readiness,
		Logger:    logger,
	}

	var err error
	if u := appCfg.Services.PostcodeLookupURL; u != "" {
		services.Addresses, err = downstream.NewProxy(downstream.ProxyConfig{
			Name:        "postcode-lookup",
			Target:      u,
			StripPrefix: "/api/addresses",
			Timeout:     appCfg.Services.Timeout,
			Transport:   cfg.Transport,
			Logger:      logger,
		})
		if err != nil {
			return nil, err
		}
	}
	if u := appCfg.Services.PrintURL; u != "" {
		services.Print, err = downstream.NewProxy(downstream.ProxyConfig{
			Name:        "print",
			Target:      u,
			StripPrefix: "/print",
			Timeout:     appCfg.Services.Timeout,
			Transport:   cfg.Transport,
			Logger:      logger,
		})
		if err != nil {
			return nil, err
		}
	}

	return httpx.NewRouter(services), nil
}

// ServeConfig controls the HTTP server lifecycle.
type ServeConfig struct {
	Handler           http.Handler
	Listener          net.Listener // optional; Addr is used when nil
	Addr              string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	Logger            *slog.Logger
}

// Serve runs the HTTP server until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, cfg ServeConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ln := cfg.Listener
	if ln == nil {
		addr := cfg.Addr
		// Guard against empty addr to avoid listening on Go default
		if addr == "" {
			addr = ":3000"
		}
		var err error
		ln, err = (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
	}

	server := &http.Server{
		Handler:           cfg.Handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", ln.Addr().String())
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	logger.Info("HTTP server stopped")
	return nil
}
