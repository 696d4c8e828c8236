package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hmcts/xui-gateway/config"
	"github.com/hmcts/xui-gateway/internal/adapters/memory"
	"github.com/hmcts/xui-gateway/internal/adapters/postgres"
	redisadapter "github.com/hmcts/xui-gateway/internal/adapters/redis"
	"github.com/hmcts/xui-gateway/internal/ports"
)

// SessionStoreConfig contains the dependencies for the selected session store.
type SessionStoreConfig struct {
	Session     config.SessionConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// SessionBackend is a session store plus its optional cleanup loop.
type SessionBackend struct {
	Store ports.SessionStore
	// Sweep runs until ctx is done. It is nil when the backend expires records itself.
	Sweep func(ctx context.Context)
}

// BuildSessionStore selects the session store named by SESSION_STORE.
func BuildSessionStore(cfg SessionStoreConfig) (SessionBackend, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Session.Store {
	case config.SessionStoreRedis, "":
		if cfg.RedisClient == nil {
			return SessionBackend{}, errors.New("redis session store requires a redis client")
		}
		return SessionBackend{Store: redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, cfg.Session.RedisPrefix)}, nil

	case config.SessionStorePostgres:
		if cfg.DB == nil {
			return SessionBackend{}, errors.New("postgres session store requires a database")
		}
		store := postgres.NewSessionStore(cfg.DB)
		return SessionBackend{
			Store: store,
			Sweep: sweepLoop(cfg.Session.SweepInterval, logger, func(ctx context.Context) (int64, error) {
				return store.PurgeExpired(ctx)
			}),
		}, nil

	case config.SessionStoreMemory:
		store := memory.NewSessionStore()
		logger.Warn("using in-memory session store; sessions are lost on restart and not shared between instances")
		return SessionBackend{
			Store: store,
			Sweep: sweepLoop(cfg.Session.SweepInterval, logger, func(context.Context) (int64, error) {
				return int64(store.Sweep()), nil
			}),
		}, nil

	default:
		return SessionBackend{}, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}

func sweepLoop(interval time.Duration, logger *slog.Logger, sweep func(context.Context) (int64, error)) func(context.Context) {
	if interval <= 0 {
		return nil
	}
	return func(ctx context.Context) {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				n, err := sweep(ctx)
				if err != nil {
					logger.WarnContext(ctx, "session sweep failed", "error", err)
					continue
				}
				if n > 0 {
					logger.DebugContext(ctx, "expired sessions removed", "count", n)
				}
			}
		}
	}
}
