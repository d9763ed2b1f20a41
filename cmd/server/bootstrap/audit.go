package bootstrap

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/restaurant-reservation/internal/config"
	"github.com/iliyamo/restaurant-reservation/internal/queue"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/service"
)

var AuditModule = fx.Module("audit",
	fx.Provide(NewAuditSink, NewAuditor),
)

// NewAuditSink selects where activity records go. Broker sinks also start
// the consumer that writes the records into activity_logs.
func NewAuditSink(lc fx.Lifecycle, cfg config.Config, logs *repository.ActivityRepo, log *zap.Logger) (service.Sink, error) {
	switch strings.ToLower(cfg.Audit.Sink) {
	case "", "db":
		return logs, nil
	case "amqp":
		consumer := queue.NewAMQPConsumer(cfg.Audit.AMQPURL, logs, log)
		runInBackground(lc, log, "amqp consumer", consumer.Run)
		return queue.NewAMQPPublisher(cfg.Audit.AMQPURL, log), nil
	case "nats":
		return newJetStreamSink(lc, cfg, logs, log)
	default:
		return nil, errors.Newf("unknown AUDIT_SINK %q", cfg.Audit.Sink)
	}
}

func newJetStreamSink(lc fx.Lifecycle, cfg config.Config, logs *repository.ActivityRepo, log *zap.Logger) (service.Sink, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Audit.Timeout)
	defer cancel()
	js, err := queue.ConnectJetStream(ctx, cfg.Audit.NATSURL, log)
	if err != nil {
		return nil, err
	}
	var stop func()
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			stop, err = js.Consume(context.Background(), logs)
			return err
		},
		OnStop: func(context.Context) error {
			if stop != nil {
				stop()
			}
			return js.Close()
		},
	})
	return js, nil
}

// runInBackground starts fn on start and cancels it on stop, waiting for
// it to return.
func runInBackground(lc fx.Lifecycle, log *zap.Logger, name string, fn func(ctx context.Context) error) {
	var (
		cancel context.CancelFunc
		g      *errgroup.Group
	)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())
			g, ctx = errgroup.WithContext(ctx)
			g.Go(func() error {
				err := fn(ctx)
				if err != nil && !errors.Is(err, context.Canceled) {
					log.Error(name+" stopped", zap.Error(err))
					return err
				}
				return nil
			})
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return g.Wait()
		},
	})
}

// NewAuditor drains pending records before the sink's resources close.
func NewAuditor(lc fx.Lifecycle, cfg config.Config, sink service.Sink, log *zap.Logger) *service.Auditor {
	a := service.NewAuditor(sink, log, cfg.Audit.Timeout)
	lc.Append(fx.Hook{OnStop: a.Drain})
	return a
}
