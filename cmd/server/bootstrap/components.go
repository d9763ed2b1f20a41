package bootstrap

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-reservation/internal/config"
	"github.com/iliyamo/restaurant-reservation/internal/handler"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/service"
	"github.com/iliyamo/restaurant-reservation/internal/telemetry"
	"github.com/iliyamo/restaurant-reservation/internal/validation"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		repository.NewRestaurantRepo,
		repository.NewReservationRepo,
		repository.NewAdmissionStore,
		repository.NewUserRepo,
		repository.NewTokenRepo,
		repository.NewActivityRepo,
		repository.NewStatsRepo,
	),
)

var ServiceModule = fx.Module("service",
	fx.Provide(
		NewReservationService,
		NewAvailabilityService,
	),
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		NewReservationHandler,
		NewRestaurantHandler,
		NewAuthHandler,
		NewAdminHandler,
	),
)

func NewReservationService(
	store *repository.AdmissionStore,
	reservations *repository.ReservationRepo,
	restaurants *repository.RestaurantRepo,
	v *validation.Validator,
	audit *service.Auditor,
	metrics *telemetry.Metrics,
	log *zap.Logger,
) *service.ReservationService {
	return service.NewReservationService(store, reservations, restaurants, v, audit, metrics, log)
}

func NewAvailabilityService(restaurants *repository.RestaurantRepo, reservations *repository.ReservationRepo, v *validation.Validator) *service.AvailabilityService {
	return service.NewAvailabilityService(restaurants, reservations, v)
}

func NewReservationHandler(svc *service.ReservationService, log *zap.Logger) *handler.ReservationHandler {
	return handler.NewReservationHandler(svc, log)
}

func NewRestaurantHandler(
	store *repository.RestaurantRepo,
	avail *service.AvailabilityService,
	audit *service.Auditor,
	v *validation.Validator,
	log *zap.Logger,
) *handler.RestaurantHandler {
	return handler.NewRestaurantHandler(store, avail, audit, v, log)
}

func NewAuthHandler(
	cfg config.Config,
	users *repository.UserRepo,
	tokens *repository.TokenRepo,
	audit *service.Auditor,
	v *validation.Validator,
	log *zap.Logger,
) *handler.AuthHandler {
	return handler.NewAuthHandler(cfg.JWT, users, tokens, audit, v, log)
}

func NewAdminHandler(stats *repository.StatsRepo, logs *repository.ActivityRepo, log *zap.Logger) *handler.AdminHandler {
	return handler.NewAdminHandler(stats, logs, log)
}
