package domain

import (
	"fmt"
	"strings"
)

// Money is an amount in euro cents. Only integer multiplication is used in the
// write side, so integer minor units avoid any rounding concern.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func NewMoney(cents int64) Money {
	return Money{Amount: cents, Currency: "EUR"}
}

// Multiply returns a new Money scaled by quantity.
func (m Money) Multiply(quantity int) Money {
	return Money{Amount: m.Amount * int64(quantity), Currency: m.Currency}
}

func (m Money) String() string {
	return fmt.Sprintf("%d.%02d %s", m.Amount/100, m.Amount%100, m.Currency)
}

// OrderItem is a single order line, owned exclusively by its order.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice Money  `json:"unit_price"`
}

// NewOrderItem validates the line invariants at construction; a blank product
// id or non-positive quantity never reaches event application.
func NewOrderItem(productID string, quantity int, unitPrice Money) (OrderItem, error) {
	if strings.TrimSpace(productID) == "" {
		return OrderItem{}, fmt.Errorf("%w: product id is required", ErrInvalidArgument)
	}
	if quantity <= 0 {
		return OrderItem{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}
	return OrderItem{ProductID: productID, Quantity: quantity, UnitPrice: unitPrice}, nil
}

// Total is the line price: unit price times quantity.
func (i OrderItem) Total() Money {
	return i.UnitPrice.Multiply(i.Quantity)
}

// Address is a plain postal address value.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zipcode string `json:"zipcode"`
	Country string `json:"country"`
}
