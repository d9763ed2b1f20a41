package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// AMQPPublisher sends audit records to RabbitMQ. Each call opens its own
// connection, so a broker outage only fails the records sent during it.
type AMQPPublisher struct {
	url string
	log *zap.Logger
}

func NewAMQPPublisher(url string, log *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, log: log.Named("amqp-publisher")}
}

// Record publishes entry as a persistent message on the activity queue.
// The dial and handshake are bounded by ctx's deadline.
func (p *AMQPPublisher) Record(ctx context.Context, entry model.ActivityLog) error {
	conn, err := dial(ctx, p.url)
	if err != nil {
		p.log.Warn("dial failed", zap.Error(err))
		return errors.Wrap(err, "amqp dial")
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "amqp channel")
	}
	defer func() { _ = ch.Close() }()

	if err := declareActivityQueue(ch); err != nil {
		return err
	}

	body, err := json.Marshal(NewActivityEvent(entry))
	if err != nil {
		return errors.Wrap(err, "marshal activity event")
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", ActivityQueueName, false, false, pub); err != nil {
		p.log.Warn("publish failed", zap.Error(err))
		return errors.Wrap(err, "amqp publish")
	}
	return nil
}

const defaultDialTimeout = 5 * time.Second

// dial connects to the broker. The TCP connect and the AMQP handshake share
// one timeout taken from ctx, or defaultDialTimeout when ctx has no deadline.
func dial(ctx context.Context, url string) (*amqp.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := defaultDialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
}

// declareActivityQueue makes sure the durable queue exists.
func declareActivityQueue(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(ActivityQueueName, true, false, false, false, nil)
	return errors.Wrap(err, "amqp queue declare")
}
