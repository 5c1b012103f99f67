package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// InventoryState is the inventory item's domain state as a plain value,
// replaced wholesale with the result of reduceInventory on each event.
type InventoryState struct {
	ProductID         string
	AvailableQuantity int
	AllocatedQuantity int
}

// InventoryItem tracks stock for one product. Available and allocated
// quantities are never negative at a committed state, and allocate/return
// pairs for the same aggregate conserve their sum.
type InventoryItem struct {
	Root
	InventoryState
}

func (i *InventoryItem) AggregateType() string { return AggregateTypeInventory }

// NewInventoryItem starts a stream for a product with its initial available
// quantity, staged as an InventoryUpdated event at version 1.
func NewInventoryItem(productID string, quantity int) (*InventoryItem, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, fmt.Errorf("%w: product id is required", ErrInvalidArgument)
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", ErrInvalidArgument)
	}

	item := &InventoryItem{}
	inventoryID := uuid.NewString()

	payload := InventoryUpdatedPayload{ProductID: productID, Quantity: quantity}
	event := newEvent(EventInventoryUpdated, inventoryID, AggregateTypeInventory, 1, payload)
	if err := raise(item, event); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateQuantity sets the available quantity outright, refusing reductions
// that would drop stock below the allocated amount.
func (i *InventoryItem) UpdateQuantity(newQuantity int) error {
	if newQuantity < 0 {
		return fmt.Errorf("%w: quantity cannot be negative", ErrInvalidArgument)
	}
	if newQuantity < i.AllocatedQuantity {
		return BelowAllocatedError{ProductID: i.ProductID, Requested: newQuantity, Allocated: i.AllocatedQuantity}
	}

	payload := InventoryUpdatedPayload{ProductID: i.ProductID, Quantity: newQuantity}
	event := newEvent(EventInventoryUpdated, i.AggregateID(), AggregateTypeInventory, i.Version()+1, payload)
	return raise(i, event)
}

// Allocate moves quantity from available to allocated for an order.
func (i *InventoryItem) Allocate(orderID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: allocation quantity must be positive", ErrInvalidArgument)
	}
	if quantity > i.AvailableQuantity {
		return InsufficientInventoryError{ProductID: i.ProductID, Requested: quantity, Available: i.AvailableQuantity}
	}

	payload := InventoryAllocatedPayload{ProductID: i.ProductID, OrderID: orderID, Quantity: quantity}
	event := newEvent(EventInventoryAllocated, i.AggregateID(), AggregateTypeInventory, i.Version()+1, payload)
	return raise(i, event)
}

// ReturnInventory moves previously allocated quantity back to available, e.g.
// when the order is cancelled.
func (i *InventoryItem) ReturnInventory(orderID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: return quantity must be positive", ErrInvalidArgument)
	}
	if quantity > i.AllocatedQuantity {
		return OverReturnError{ProductID: i.ProductID, Requested: quantity, Allocated: i.AllocatedQuantity}
	}

	payload := InventoryReturnedPayload{ProductID: i.ProductID, OrderID: orderID, Quantity: quantity}
	event := newEvent(EventInventoryReturned, i.AggregateID(), AggregateTypeInventory, i.Version()+1, payload)
	return raise(i, event)
}

// HasSufficientInventory reports whether quantity could be allocated right now.
func (i *InventoryItem) HasSufficientInventory(quantity int) bool {
	return quantity <= i.AvailableQuantity
}

// TotalQuantity is available plus allocated stock.
func (i *InventoryItem) TotalQuantity() int {
	return i.AvailableQuantity + i.AllocatedQuantity
}

func (i *InventoryItem) ApplyEvent(e Event) error {
	next, err := reduceInventory(i.InventoryState, e)
	if err != nil {
		return err
	}
	i.setID(e.AggregateID)
	i.InventoryState = next
	return nil
}

// reduceInventory is the pure state reducer for inventory events.
func reduceInventory(s InventoryState, e Event) (InventoryState, error) {
	switch payload := e.Payload.(type) {
	case InventoryUpdatedPayload:
		s.ProductID = payload.ProductID
		s.AvailableQuantity = payload.Quantity
		return s, nil
	case InventoryAllocatedPayload:
		s.AvailableQuantity -= payload.Quantity
		s.AllocatedQuantity += payload.Quantity
		return s, nil
	case InventoryReturnedPayload:
		s.AvailableQuantity += payload.Quantity
		s.AllocatedQuantity -= payload.Quantity
		return s, nil
	default:
		return s, UnhandledEventTypeError{EventType: e.Type}
	}
}
