// Package queue moves audit records through a message broker. Publishers
// implement the audit sink; consumers persist what they receive.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// ActivityQueueName is the AMQP queue and the NATS subject audit records
// travel on.
const ActivityQueueName = "activity.log"

// ActivityEvent is the wire form of an audit record. ID is unique per event
// so brokers with deduplication can drop redeliveries.
type ActivityEvent struct {
	ID         string          `json:"id"`
	Action     string          `json:"action"`
	Entity     string          `json:"entity"`
	EntityID   *uint64         `json:"entity_id,omitempty"`
	UserID     *uint64         `json:"user_id,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func NewActivityEvent(a model.ActivityLog) ActivityEvent {
	return ActivityEvent{
		ID:         uuid.NewString(),
		Action:     a.Action,
		Entity:     a.Entity,
		EntityID:   a.EntityID,
		UserID:     a.UserID,
		Metadata:   a.Metadata,
		OccurredAt: time.Now().UTC(),
	}
}

// ActivityLog converts the event back into a record ready to store.
func (e ActivityEvent) ActivityLog() model.ActivityLog {
	return model.ActivityLog{
		Action:   e.Action,
		Entity:   e.Entity,
		EntityID: e.EntityID,
		UserID:   e.UserID,
		Metadata: e.Metadata,
	}
}

// Recorder stores an audit record. The activity repository satisfies it.
type Recorder interface {
	Record(ctx context.Context, a model.ActivityLog) error
}

func decodeEvent(body []byte) (ActivityEvent, error) {
	var ev ActivityEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, errors.Wrap(err, "unmarshal activity event")
	}
	if ev.Action == "" || ev.Entity == "" {
		return ev, errors.New("activity event without action or entity")
	}
	return ev, nil
}

// persist decodes body and hands the record to store.
func persist(ctx context.Context, store Recorder, body []byte) error {
	ev, err := decodeEvent(body)
	if err != nil {
		return err
	}
	return store.Record(ctx, ev.ActivityLog())
}
