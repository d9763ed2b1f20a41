// Package logging builds the process-wide zap logger.
package logging

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-reservation/internal/config"
)

// New returns a JSON logger for production-style formats and a console
// logger otherwise. It also replaces zap's globals so library callbacks
// without an injected logger still write through it.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", cfg.Level)
	}

	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level

	log, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	zap.ReplaceGlobals(log)
	return log, nil
}
