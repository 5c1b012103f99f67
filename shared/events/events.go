package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope is the broker message emitted for every committed domain event.
// Messages are keyed by aggregate id so the broker preserves per-aggregate
// order.
type Envelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

const (
	TopicOrderEvents     = "order-events"
	TopicInventoryEvents = "inventory-events"
)
