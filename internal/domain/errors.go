package domain

import (
	"errors"
	"fmt"
)

// Caller-caused violations. These are never retried automatically and are
// surfaced synchronously to the command's caller.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrEmptyOrder      = errors.New("order must contain at least one item")
)

// UnhandledEventTypeError signals a programming or schema error: an event type
// outside the aggregate's closed payload set reached event application.
type UnhandledEventTypeError struct {
	EventType string
}

func (e UnhandledEventTypeError) Error() string {
	return fmt.Sprintf("no handler for event type %q", e.EventType)
}

// InvalidTransitionError rejects an order status change not allowed by the
// transition table.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition from %s to %s", e.From, e.To)
}

// CancelledOrderError rejects any modification of an order that is already
// cancelled.
type CancelledOrderError struct {
	OrderID string
}

func (e CancelledOrderError) Error() string {
	return fmt.Sprintf("order %s is cancelled and can no longer be modified", e.OrderID)
}

// NotCancellableError rejects cancellation of an order that already left the
// cancellable part of its lifecycle.
type NotCancellableError struct {
	OrderID string
	Status  OrderStatus
}

func (e NotCancellableError) Error() string {
	return fmt.Sprintf("order %s cannot be cancelled in status %s", e.OrderID, e.Status)
}

// InsufficientInventoryError rejects an allocation exceeding available stock.
type InsufficientInventoryError struct {
	ProductID string
	Requested int
	Available int
}

func (e InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// OverReturnError rejects a return exceeding the allocated quantity.
type OverReturnError struct {
	ProductID string
	Requested int
	Allocated int
}

func (e OverReturnError) Error() string {
	return fmt.Sprintf("cannot return %d units of product %s: only %d allocated",
		e.Requested, e.ProductID, e.Allocated)
}

// BelowAllocatedError rejects a stock update that would drop available stock
// below what is already allocated.
type BelowAllocatedError struct {
	ProductID string
	Requested int
	Allocated int
}

func (e BelowAllocatedError) Error() string {
	return fmt.Sprintf("cannot reduce product %s quantity to %d below allocated amount %d",
		e.ProductID, e.Requested, e.Allocated)
}
