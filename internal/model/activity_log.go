package model

import (
	"encoding/json"
	"time"
)

// ActivityLog is one audit record. Metadata is free-form JSON.
type ActivityLog struct {
	ID        uint64          `json:"id"`
	Action    string          `json:"action"`
	Entity    string          `json:"entity"`
	EntityID  *uint64         `json:"entityId"`
	UserID    *uint64         `json:"userId"`
	Metadata  json.RawMessage `json:"metadata"`
	CreatedAt time.Time       `json:"createdAt"`

	User *UserSummary `json:"user,omitempty"`
}

// NewActivity builds an audit record. Zero ids are stored as NULL.
func NewActivity(action, entity string, entityID, userID uint64, metadata any) ActivityLog {
	a := ActivityLog{Action: action, Entity: entity, EntityID: optionalID(entityID), UserID: optionalID(userID)}
	if metadata != nil {
		if raw, err := json.Marshal(metadata); err == nil {
			a.Metadata = raw
		}
	}
	return a
}

func optionalID(id uint64) *uint64 {
	if id == 0 {
		return nil
	}
	return &id
}
