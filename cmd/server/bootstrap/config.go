package bootstrap

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-reservation/internal/config"
	"github.com/iliyamo/restaurant-reservation/internal/logging"
	"github.com/iliyamo/restaurant-reservation/internal/validation"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.Load,
		NewLogger,
		validation.New,
	),
)

func NewLogger(cfg config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Log)
}

// FxLogger routes fx's own lifecycle events through zap.
func FxLogger(log *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: log.Named("fx")}
}
