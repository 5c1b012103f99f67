package api

import (
	"strconv"
	"strings"
	"time"

	"order-fulfillment-command/internal/domain"
)

type addressPayload struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zipcode string `json:"zipcode"`
	Country string `json:"country"`
}

func (a addressPayload) toDomain() domain.Address {
	return domain.Address{Street: a.Street, City: a.City, State: a.State, Zipcode: a.Zipcode, Country: a.Country}
}

type orderItemPayload struct {
	ProductID      string `json:"product_id"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type createOrderRequest struct {
	CustomerID      string             `json:"customer_id"`
	Items           []orderItemPayload `json:"items"`
	ShippingAddress addressPayload     `json:"shipping_address"`
	BillingAddress  addressPayload     `json:"billing_address"`
	TotalCostCents  int64              `json:"total_cost_cents"`
	IssuedAt        time.Time          `json:"issued_at"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// validate returns the order lines plus per-field problems. It reports every
// problem at once rather than stopping at the first.
func (r createOrderRequest) validate() ([]domain.OrderItem, []fieldError) {
	var problems []fieldError
	if strings.TrimSpace(r.CustomerID) == "" {
		problems = append(problems, fieldError{Field: "customer_id", Message: "customer_id is required"})
	}
	if len(r.Items) == 0 {
		problems = append(problems, fieldError{Field: "items", Message: "at least one item is required"})
	}

	items := make([]domain.OrderItem, 0, len(r.Items))
	for idx, raw := range r.Items {
		if raw.UnitPriceCents < 0 {
			problems = append(problems, fieldError{
				Field:   itemField(idx, "unit_price_cents"),
				Message: "unit_price_cents cannot be negative",
			})
			continue
		}
		item, err := domain.NewOrderItem(raw.ProductID, raw.Quantity, domain.NewMoney(raw.UnitPriceCents))
		if err != nil {
			problems = append(problems, fieldError{Field: itemField(idx, ""), Message: err.Error()})
			continue
		}
		items = append(items, item)
	}
	if len(problems) > 0 {
		return nil, problems
	}
	return items, nil
}

func itemField(idx int, sub string) string {
	field := "items[" + strconv.Itoa(idx) + "]"
	if sub != "" {
		field += "." + sub
	}
	return field
}

// totalCost uses the submitted total when present, otherwise the sum of the
// line totals.
func (r createOrderRequest) totalCost(items []domain.OrderItem) domain.Money {
	if r.TotalCostCents > 0 {
		return domain.NewMoney(r.TotalCostCents)
	}
	var sum int64
	for _, item := range items {
		sum += item.Total().Amount
	}
	return domain.NewMoney(sum)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type updateInventoryRequest struct {
	Quantity int `json:"quantity"`
}

type allocationRequest struct {
	OrderID  string `json:"order_id"`
	Quantity int    `json:"quantity"`
}

func (r allocationRequest) validate() []fieldError {
	var problems []fieldError
	if strings.TrimSpace(r.OrderID) == "" {
		problems = append(problems, fieldError{Field: "order_id", Message: "order_id is required"})
	}
	if r.Quantity <= 0 {
		problems = append(problems, fieldError{Field: "quantity", Message: "quantity must be positive"})
	}
	return problems
}

type createOrderResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type inventoryResponse struct {
	Success           bool   `json:"success"`
	ProductID         string `json:"product_id"`
	AvailableQuantity int    `json:"available_quantity"`
	AllocatedQuantity int    `json:"allocated_quantity"`
}
