package models

import (
	"gorm.io/datatypes"
)

const (
	CallEventScheduled = "calls.scheduled"
	CallEventUpdated   = "calls.updated"
	CallEventCancelled = "calls.cancelled"
	CallEventStarted   = "calls.started"
	CallEventEnded     = "calls.ended"
	CallEventInstant   = "calls.instant"
)

// CallEvent is the append-only history of lifecycle transitions.
type CallEvent struct {
	BaseModel

	Type    string            `json:"type"`
	Body    datatypes.JSONMap `json:"body"`
	CallID  uint              `json:"call_id"`
	ActorID uint              `json:"actor_id"`

	Call Call `json:"call,omitempty"`
}
