package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Aggregate type tags carried on every event and broker message.
const (
	AggregateTypeOrder     = "OrderAggregate"
	AggregateTypeInventory = "InventoryAggregate"
)

// Event type tags. The set is closed per aggregate: orders raise the first
// three, inventory items the last three.
const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusUpdated = "OrderStatusUpdated"
	EventOrderCancelled     = "OrderCancelled"
	EventInventoryUpdated   = "InventoryUpdated"
	EventInventoryAllocated = "InventoryAllocated"
	EventInventoryReturned  = "InventoryReturned"
)

// Payload is the event-type-specific body of a domain event.
type Payload interface {
	EventType() string
}

// Event is an immutable record of something that happened to one aggregate
// instance. Version is the one-based sequence number of the event within its
// aggregate's stream: the first event of a stream has Version 1.
type Event struct {
	ID            uuid.UUID
	Type          string
	AggregateID   string
	AggregateType string
	OccurredAt    time.Time
	Version       uint64
	Payload       Payload
}

func newEvent(eventType string, aggregateID string, aggregateType string, version uint64, payload Payload) Event {
	return Event{
		ID:            uuid.New(),
		Type:          eventType,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		OccurredAt:    time.Now().UTC(),
		Version:       version,
		Payload:       payload,
	}
}

// OrderCreatedPayload captures the full initial state of an order.
type OrderCreatedPayload struct {
	CustomerID      string      `json:"customer_id"`
	Quantity        int         `json:"quantity"`
	Items           []OrderItem `json:"items"`
	Status          OrderStatus `json:"status"`
	ShippingAddress Address     `json:"shipping_address"`
	BillingAddress  Address     `json:"billing_address"`
	TotalCost       Money       `json:"total_cost"`
}

func (OrderCreatedPayload) EventType() string { return EventOrderCreated }

type OrderStatusUpdatedPayload struct {
	OrderID string      `json:"order_id"`
	Status  OrderStatus `json:"status"`
}

func (OrderStatusUpdatedPayload) EventType() string { return EventOrderStatusUpdated }

type OrderCancelledPayload struct {
	OrderID string `json:"order_id"`
}

func (OrderCancelledPayload) EventType() string { return EventOrderCancelled }

// InventoryUpdatedPayload sets the available quantity outright; it is also the
// creation event for an inventory stream.
type InventoryUpdatedPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (InventoryUpdatedPayload) EventType() string { return EventInventoryUpdated }

type InventoryAllocatedPayload struct {
	ProductID string `json:"product_id"`
	OrderID   string `json:"order_id"`
	Quantity  int    `json:"quantity"`
}

func (InventoryAllocatedPayload) EventType() string { return EventInventoryAllocated }

type InventoryReturnedPayload struct {
	ProductID string `json:"product_id"`
	OrderID   string `json:"order_id"`
	Quantity  int    `json:"quantity"`
}

func (InventoryReturnedPayload) EventType() string { return EventInventoryReturned }

// DecodePayload turns a serialized payload read from durable storage back into
// its typed form. Event types outside the closed set yield an
// UnhandledEventTypeError.
func DecodePayload(eventType string, data []byte) (Payload, error) {
	decode := func(dst any) error {
		if err := json.Unmarshal(data, dst); err != nil {
			return fmt.Errorf("decode %s payload: %w", eventType, err)
		}
		return nil
	}
	switch eventType {
	case EventOrderCreated:
		var p OrderCreatedPayload
		return p, decode(&p)
	case EventOrderStatusUpdated:
		var p OrderStatusUpdatedPayload
		return p, decode(&p)
	case EventOrderCancelled:
		var p OrderCancelledPayload
		return p, decode(&p)
	case EventInventoryUpdated:
		var p InventoryUpdatedPayload
		return p, decode(&p)
	case EventInventoryAllocated:
		var p InventoryAllocatedPayload
		return p, decode(&p)
	case EventInventoryReturned:
		var p InventoryReturnedPayload
		return p, decode(&p)
	default:
		return nil, UnhandledEventTypeError{EventType: eventType}
	}
}
