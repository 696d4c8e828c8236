package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hmcts/xui-gateway/config"
	"github.com/hmcts/xui-gateway/internal/adapters/authroles"
	"github.com/hmcts/xui-gateway/internal/adapters/devauth"
	"github.com/hmcts/xui-gateway/internal/adapters/oidc"
	domainauth "github.com/hmcts/xui-gateway/internal/domain/auth"
	"github.com/hmcts/xui-gateway/internal/ports"
	"github.com/hmcts/xui-gateway/internal/service"
)

// AuthConfig contains configuration for the login strategy.
type AuthConfig struct {
	Auth       config.AuthConfig
	Gate       *service.Gate
	HTTPClient *http.Client // optional, used for IdP calls
	Logger     *slog.Logger
}

// RegisterAuthProvider builds the configured login strategy and installs it on the gate.
// In oauth mode this performs discovery once; any failure marks the gate Failed
// and is returned so the process can exit.
func RegisterAuthProvider(ctx context.Context, cfg AuthConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	provider, err := buildAuthProvider(ctx, cfg, logger)
	if err != nil {
		cfg.Gate.Fail(err)
		return err
	}
	if err := cfg.Gate.Register(domainauth.StrategyOIDC, provider); err != nil {
		return fmt.Errorf("register auth provider: %w", err)
	}
	logger.InfoContext(ctx, "login strategy registered", "mode", cfg.Auth.Mode)
	return nil
}

//nolint:ireturn // the strategy is chosen at runtime.
func buildAuthProvider(ctx context.Context, cfg AuthConfig, logger *slog.Logger) (ports.AuthProvider, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		logger.WarnContext(ctx, "dev auth enabled; the identity provider is bypassed", "user_id", cfg.Auth.DevAuth.UserID)
		prov, err := devauth.NewProvider(devauth.Config{
			UserID: cfg.Auth.DevAuth.UserID,
			Email:  cfg.Auth.DevAuth.Email,
			Roles:  cfg.Auth.DevAuth.Roles,
		})
		if err != nil {
			return nil, fmt.Errorf("create dev auth provider: %w", err)
		}
		return prov, nil

	case config.AuthModeOAuth, "":
		return buildOIDCProvider(ctx, cfg, logger)

	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
}

func buildOIDCProvider(ctx context.Context, cfg AuthConfig, logger *slog.Logger) (*oidc.Provider, error) {
	resolver := oidc.Resolver{
		IssuerOverride: cfg.Auth.IDAM.Issuer,
		HTTPClient:     cfg.HTTPClient,
		Timeout:        cfg.Auth.DiscoveryTimeout,
	}
	issuer, err := resolver.Resolve(ctx, cfg.Auth.DiscoveryBaseURL())
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "oidc discovery completed",
		"issuer", issuer.Issuer,
		"discovered_issuer", issuer.DiscoveredIssuer,
	)

	oauth := cfg.Auth.OAuth
	prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
		Client: domainauth.DefaultClientConfig(
			oauth.ClientID,
			oauth.ClientSecret,
			oauth.RedirectURL,
			oauth.PostLogoutRedirectURL,
		),
		Issuer:          issuer,
		Scopes:          cfg.Auth.Scopes(),
		RolesClaim:      cfg.Auth.RolesClaim,
		ExchangeTimeout: cfg.Auth.ExchangeTimeout,
		HTTPClient:      cfg.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create oidc provider: %w", err)
	}
	return prov, nil
}

// NewAuthService wires the auth service around the gate and session store.
func NewAuthService(cfg config.AppConfig, gate *service.Gate, store ports.SessionStore, logger *slog.Logger) *service.AuthService {
	return service.NewAuthService(service.AuthServiceOptions{
		Strategies:  gate,
		Sessions:    store,
		Roles:       authroles.NewAllowList(cfg.Auth.AllowedRoles),
		IdleTimeout: cfg.Session.IdleTimeout,
		Logger:      logger,
	})
}
