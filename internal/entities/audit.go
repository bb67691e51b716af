package entities

import (
	"encoding/json"
	"time"
)

type AuditEntry struct {
	ID        int64           `json:"id"`
	ActorID   int64           `json:"actor_id"`
	Action    string          `json:"action"`
	Entity    string          `json:"entity"`
	EntityID  int64           `json:"entity_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
