package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// OrderState is the order's domain state as a plain value. It is only ever
// replaced wholesale with the result of reduceOrder, never mutated in place.
type OrderState struct {
	CustomerID      string
	Items           []OrderItem
	Status          OrderStatus
	ShippingAddress Address
	BillingAddress  Address
	TotalCost       Money
}

// Order is the event-sourced order aggregate. Its items are immutable after
// creation; once cancelled no further status change is permitted.
type Order struct {
	Root
	OrderState
}

func (o *Order) AggregateType() string { return AggregateTypeOrder }

// NewOrder registers a new order with a generated id and stages its
// OrderCreated event at version 1. An order without items is rejected.
func NewOrder(customerID string, items []OrderItem, shipping Address, billing Address, totalCost Money) (*Order, error) {
	if customerID == "" {
		return nil, fmt.Errorf("%w: customer id is required", ErrInvalidArgument)
	}
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	order := &Order{}
	orderID := uuid.NewString()

	payload := OrderCreatedPayload{
		CustomerID:      customerID,
		Quantity:        len(items),
		Items:           items,
		Status:          StatusRegistered,
		ShippingAddress: shipping,
		BillingAddress:  billing,
		TotalCost:       totalCost,
	}
	event := newEvent(EventOrderCreated, orderID, AggregateTypeOrder, 1, payload)
	if err := raise(order, event); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateStatus moves the order along the status table and stages an
// OrderStatusUpdated event. A cancelled order rejects every change.
func (o *Order) UpdateStatus(next OrderStatus) error {
	if o.Status == StatusCancelled {
		return CancelledOrderError{OrderID: o.AggregateID()}
	}
	if !CanTransition(o.Status, next) {
		return InvalidTransitionError{From: o.Status, To: next}
	}

	payload := OrderStatusUpdatedPayload{OrderID: o.AggregateID(), Status: next}
	event := newEvent(EventOrderStatusUpdated, o.AggregateID(), AggregateTypeOrder, o.Version()+1, payload)
	return raise(o, event)
}

// Cancel stages an OrderCancelled event. Orders that have shipped, even
// partially, can no longer be cancelled.
func (o *Order) Cancel() error {
	switch o.Status {
	case StatusShipped, StatusDelivered, StatusPartiallyShipped, StatusPartiallyDelivered:
		return NotCancellableError{OrderID: o.AggregateID(), Status: o.Status}
	}

	payload := OrderCancelledPayload{OrderID: o.AggregateID()}
	event := newEvent(EventOrderCancelled, o.AggregateID(), AggregateTypeOrder, o.Version()+1, payload)
	return raise(o, event)
}

func (o *Order) ApplyEvent(e Event) error {
	next, err := reduceOrder(o.OrderState, e)
	if err != nil {
		return err
	}
	o.setID(e.AggregateID)
	o.OrderState = next
	return nil
}

// reduceOrder is the pure state reducer: it returns the state after one event
// and never touches the input value it was given.
func reduceOrder(s OrderState, e Event) (OrderState, error) {
	switch payload := e.Payload.(type) {
	case OrderCreatedPayload:
		return OrderState{
			CustomerID:      payload.CustomerID,
			Items:           payload.Items,
			Status:          payload.Status,
			ShippingAddress: payload.ShippingAddress,
			BillingAddress:  payload.BillingAddress,
			TotalCost:       payload.TotalCost,
		}, nil
	case OrderStatusUpdatedPayload:
		s.Status = payload.Status
		return s, nil
	case OrderCancelledPayload:
		s.Status = StatusCancelled
		return s, nil
	default:
		return s, UnhandledEventTypeError{EventType: e.Type}
	}
}
