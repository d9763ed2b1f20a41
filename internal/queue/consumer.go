package queue

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// reconnectBackOff paces redials: 1s doubling up to 30s, with jitter.
func reconnectBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.Multiplier = 2
	b.MaxInterval = 30 * time.Second
	return b
}

// AMQPConsumer drains the activity queue into a Recorder.
type AMQPConsumer struct {
	url   string
	store Recorder
	log   *zap.Logger
}

func NewAMQPConsumer(url string, store Recorder, log *zap.Logger) *AMQPConsumer {
	return &AMQPConsumer{url: url, store: store, log: log.Named("amqp-consumer")}
}

// Run consumes until ctx is cancelled, reconnecting with exponential
// backoff whenever the dial fails or the broker connection drops. The
// backoff restarts from its initial interval after every successful dial.
func (c *AMQPConsumer) Run(ctx context.Context) error {
	b := reconnectBackOff()
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		conn, err := dial(ctx, c.url)
		if err != nil {
			return struct{}{}, errors.Wrap(err, "amqp dial")
		}
		defer func() { _ = conn.Close() }()
		b.Reset()
		return struct{}{}, c.consume(ctx, conn)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.log.Warn("consumer disconnected", zap.Error(err), zap.Duration("retry_in", next))
		}),
	)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (c *AMQPConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "channel open")
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("set qos failed", zap.Error(err))
	}
	if err := declareActivityQueue(ch); err != nil {
		return err
	}
	msgs, err := ch.Consume(ActivityQueueName, "", false, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "queue consume")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(ctx, d.Body); err != nil {
				c.log.Error("handle message failed", zap.Error(err))
				// Rejected without requeue; a poison message would otherwise loop.
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *AMQPConsumer) handle(ctx context.Context, body []byte) error {
	return persist(ctx, c.store, body)
}
