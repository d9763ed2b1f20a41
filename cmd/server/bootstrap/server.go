package bootstrap

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-reservation/internal/cache"
	"github.com/iliyamo/restaurant-reservation/internal/config"
	"github.com/iliyamo/restaurant-reservation/internal/handler"
	"github.com/iliyamo/restaurant-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/router"
	"github.com/iliyamo/restaurant-reservation/internal/telemetry"
	"github.com/iliyamo/restaurant-reservation/internal/validation"
)

var ServerModule = fx.Module("server",
	fx.Provide(NewEcho, NewGuards),
	fx.Invoke(RegisterRoutes, StartServer),
)

// NewEcho builds the Echo instance with the global middleware chain.
func NewEcho(cfg config.Config, v *validation.Validator, log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = v

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.App.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType},
		AllowCredentials: true,
	}))
	e.Use(telemetry.HTTPMiddleware(cfg.Telemetry.ServiceName))
	e.Use(middleware.RequestLogger(log))
	return e
}

func NewGuards(cfg config.Config, rdb *redis.Client, store cache.Store, log *zap.Logger) router.Guards {
	g := router.Guards{
		JWTSecret: cfg.JWT.Secret,
		Limit:     middleware.RateLimit(cfg.RateLimit, rdb, log),
	}
	if cfg.Cache.Enabled {
		g.Cache = middleware.ResponseCache(cfg.Cache, store, log)
		g.Invalidate = middleware.InvalidateCache(store, log)
	}
	return g
}

type routeParams struct {
	fx.In

	Echo         *echo.Echo
	Guards       router.Guards
	Stats        *repository.StatsRepo
	Auth         *handler.AuthHandler
	Restaurants  *handler.RestaurantHandler
	Reservations *handler.ReservationHandler
	Admin        *handler.AdminHandler
}

func RegisterRoutes(p routeParams) {
	router.RegisterRoutes(p.Echo, p.Stats)
	router.RegisterAuth(p.Echo, p.Auth, p.Guards)
	router.RegisterPublic(p.Echo, p.Restaurants, p.Guards)
	router.RegisterOwner(p.Echo, p.Restaurants, p.Reservations, p.Guards)
	router.RegisterCustomer(p.Echo, p.Reservations, p.Guards)
	router.RegisterAdmin(p.Echo, p.Admin, p.Guards)
}

// StartServer listens on start and drains connections on stop. A listener
// failure shuts the application down.
func StartServer(lc fx.Lifecycle, sd fx.Shutdowner, e *echo.Echo, cfg config.Config, log *zap.Logger) {
	addr := ":" + cfg.App.Port
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.App.Env))
			go func() {
				if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", zap.Error(err))
					_ = sd.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down")
			return e.Shutdown(ctx)
		},
	})
}
