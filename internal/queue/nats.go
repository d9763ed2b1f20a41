package queue

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

const (
	activityStream   = "ACTIVITY"
	activityConsumer = "activity-writer"
)

// JetStream publishes audit records to a NATS JetStream stream and can run
// the durable consumer that persists them.
type JetStream struct {
	nc  *nats.Conn
	js  jetstream.JetStream
	log *zap.Logger
}

// ConnectJetStream connects to NATS and ensures the activity stream exists.
func ConnectJetStream(ctx context.Context, url string, log *zap.Logger) (*JetStream, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, errors.Wrap(err, "nats connect")
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, errors.Wrap(err, "jetstream init")
	}
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     activityStream,
		Subjects: []string{ActivityQueueName},
	})
	if err != nil {
		nc.Close()
		return nil, errors.Wrap(err, "jetstream stream create")
	}
	log = log.Named("jetstream")
	log.Info("nats connected", zap.String("url", url), zap.String("stream", activityStream))
	return &JetStream{nc: nc, js: js, log: log}, nil
}

// Record publishes entry. The event id doubles as the JetStream message id.
func (j *JetStream) Record(ctx context.Context, entry model.ActivityLog) error {
	ev := NewActivityEvent(entry)
	body, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal activity event")
	}
	if _, err := j.js.Publish(ctx, ActivityQueueName, body, jetstream.WithMsgID(ev.ID)); err != nil {
		return errors.Wrapf(err, "nats publish %s", ActivityQueueName)
	}
	return nil
}

// Consume starts the durable consumer writing into store. The returned func
// stops it.
func (j *JetStream) Consume(ctx context.Context, store Recorder) (func(), error) {
	consumer, err := j.js.CreateOrUpdateConsumer(ctx, activityStream, jetstream.ConsumerConfig{
		Durable:       activityConsumer,
		FilterSubject: ActivityQueueName,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, errors.Wrap(err, "nats consumer create")
	}
	cons, err := consumer.Consume(func(msg jetstream.Msg) {
		if err := persist(context.Background(), store, msg.Data()); err != nil {
			j.log.Error("activity message failed", zap.Error(err))
			_ = msg.Term()
			return
		}
		if err := msg.Ack(); err != nil {
			j.log.Warn("nats ack failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "nats consume")
	}
	return cons.Stop, nil
}

func (j *JetStream) Close() error {
	j.nc.Close()
	return nil
}
