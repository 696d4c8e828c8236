package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/hmcts/xui-gateway/config"
	"github.com/hmcts/xui-gateway/internal/service"
)

// RunConfig contains everything Run needs. Infrastructure clients are
// connected from Config when left nil.
type RunConfig struct {
	Config      *config.AppConfig
	Logger      *slog.Logger
	Listener    net.Listener // optional
	HTTPClient  *http.Client // optional, used for IdP calls
	DB          *sql.DB
	RedisClient redis.UniversalClient
	// Ready, when set, receives the gate once the HTTP handler is built.
	Ready func(*service.Gate)
}

// Run starts the gateway: discovery, the HTTP server and the session sweeper
// run together until ctx is done or one of them fails.
func Run(ctx context.Context, cfg RunConfig) error {
	if cfg.Config == nil {
		return errors.New("run requires configuration")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	logger.InfoContext(ctx, "starting xui gateway",
		"platform", appCfg.Platform,
		"auth_mode", appCfg.Auth.Mode,
		"session_store", appCfg.Session.Store,
		"dev", appCfg.IsDev,
	)

	infra, err := initInfrastructure(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.close(ctx, logger)

	backend, err := BuildSessionStore(SessionStoreConfig{
		Session:     appCfg.Session,
		DB:          infra.db,
		RedisClient: infra.redis,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	codec, err := BuildCookieCodec(appCfg.Session)
	if err != nil {
		return err
	}

	gate := service.NewGate()
	authSvc := NewAuthService(*appCfg, gate, backend.Store, logger)

	handler, err := BuildHTTPHandler(HTTPHandlerConfig{
		Config:    appCfg,
		Auth:      authSvc,
		Codec:     codec,
		Readiness: gate,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	if cfg.Ready != nil {
		cfg.Ready(gate)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return RegisterAuthProvider(gctx, AuthConfig{
			Auth:       appCfg.Auth,
			Gate:       gate,
			HTTPClient: cfg.HTTPClient,
			Logger:     logger,
		})
	})
	g.Go(func() error {
		return Serve(gctx, ServeConfig{
			Handler:           handler,
			Listener:          cfg.Listener,
			Addr:              appCfg.HTTP.Addr,
			ReadHeaderTimeout: appCfg.HTTP.ReadHeaderTimeout,
			ShutdownTimeout:   appCfg.HTTP.ShutdownTimeout,
			Logger:            logger,
		})
	})
	if backend.Sweep != nil {
		g.Go(func() error {
			backend.Sweep(gctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.InfoContext(ctx, "xui gateway stopped")
	return nil
}

type infrastructure struct {
	db       *sql.DB
	redis    redis.UniversalClient
	ownDB    bool
	ownRedis bool
}

func (i infrastructure) close(ctx context.Context, logger *slog.Logger) {
	if i.ownRedis && i.redis != nil {
		if err := i.redis.Close(); err != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", err)
		}
	}
	if i.ownDB && i.db != nil {
		if err := i.db.Close(); err != nil {
			logger.ErrorContext(ctx, "close database failed", "error", err)
		}
	}
}

// initInfrastructure connects only what the selected session store needs.
func initInfrastructure(ctx context.Context, cfg RunConfig, logger *slog.Logger) (infrastructure, error) {
	appCfg := cfg.Config
	infra := infrastructure{db: cfg.DB, redis: cfg.RedisClient}
	dbCfg := DatabaseConfig{DBConfig: appCfg.Postgres, RedisConfig: appCfg.Redis, Logger: logger}

	switch appCfg.Session.Store {
	case config.SessionStoreRedis, "":
		if infra.redis != nil {
			return infra, nil
		}
		client, err := ConnectRedis(ctx, dbCfg)
		if err != nil {
			return infra, fmt.Errorf("connect redis: %w", err)
		}
		infra.redis, infra.ownRedis = client, true

	case config.SessionStorePostgres:
		if infra.db == nil {
			db, err := ConnectDB(ctx, dbCfg)
			if err != nil {
				return infra, fmt.Errorf("connect db: %w", err)
			}
			infra.db, infra.ownDB = db, true
		}
		if !appCfg.Postgres.RunMigrationsOnStart {
			logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
			return infra, nil
		}
		if err := RunMigrations(ctx, infra.db, logger); err != nil {
			infra.close(ctx, logger)
			return infrastructure{}, err
		}

	case config.SessionStoreMemory:
	}
	return infra, nil
}
