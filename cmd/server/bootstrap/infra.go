package bootstrap

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-reservation/internal/cache"
	"github.com/iliyamo/restaurant-reservation/internal/config"
	"github.com/iliyamo/restaurant-reservation/internal/database"
	"github.com/iliyamo/restaurant-reservation/internal/telemetry"
)

var TelemetryModule = fx.Module("telemetry",
	fx.Provide(NewTelemetry, NewMetrics),
)

var DBModule = fx.Module("db",
	fx.Provide(NewDB),
)

var CacheModule = fx.Module("cache",
	fx.Provide(NewRedis, NewCacheStore),
)

// NewTelemetry installs the OTLP providers and flushes them on stop.
func NewTelemetry(lc fx.Lifecycle, cfg config.Config) (telemetry.ShutdownFunc, error) {
	shutdown, err := telemetry.Setup(context.Background(), cfg.Telemetry)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { return shutdown(ctx) }})
	return shutdown, nil
}

// NewMetrics takes the shutdown func only so the meter provider is
// installed before the instruments are created.
func NewMetrics(_ telemetry.ShutdownFunc) (*telemetry.Metrics, error) {
	return telemetry.NewMetrics()
}

// NewDB opens MySQL and applies pending migrations when configured to.
func NewDB(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*sql.DB, error) {
	db, err := database.Open(cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.App.MigrateOnStart {
		if err := database.Migrate(context.Background(), db); err != nil {
			_ = db.Close()
			return nil, err
		}
		if v, err := database.Version(context.Background(), db); err == nil {
			log.Info("schema migrated", zap.Int64("version", v))
		}
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return db.Close() }})
	return db, nil
}

// NewRedis returns nil when Redis is unreachable; rate limiting is then
// disabled and the response cache stays in process.
func NewRedis(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting disabled and cache kept in memory",
			zap.String("addr", cfg.Redis.Address()))
		return nil
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return rdb.Close() }})
	return rdb
}

func NewCacheStore(lc fx.Lifecycle, cfg config.Config, rdb *redis.Client) (cache.Store, error) {
	if rdb != nil {
		return cache.NewRedis(rdb, cfg.Cache.Prefix), nil
	}
	local, err := cache.NewLocal(cfg.Cache.LocalMaxBytes)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		local.Close()
		return nil
	}})
	return local, nil
}
