// Package commands defines the write-side command records. Commands carry
// already-validated input; handlers translate them into aggregate operations.
package commands

import (
	"time"

	"order-fulfillment-command/internal/domain"
)

type CreateOrder struct {
	CustomerID      string
	Items           []domain.OrderItem
	ShippingAddress domain.Address
	BillingAddress  domain.Address
	TotalCost       domain.Money
	IssuedAt        time.Time
}

type UpdateOrderStatus struct {
	OrderID string
	Status  domain.OrderStatus
}

type CancelOrder struct {
	OrderID string
}

type UpdateInventory struct {
	ProductID string
	Quantity  int
}

type AllocateInventory struct {
	ProductID string
	OrderID   string
	Quantity  int
}

type ReturnInventory struct {
	ProductID string
	OrderID   string
	Quantity  int
}
