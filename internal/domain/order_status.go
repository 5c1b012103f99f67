package domain

import (
	"fmt"
	"strings"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusRegistered         OrderStatus = "REGISTERED"
	StatusShipped            OrderStatus = "SHIPPED"
	StatusPartiallyShipped   OrderStatus = "PARTIALLY_SHIPPED"
	StatusDelivered          OrderStatus = "DELIVERED"
	StatusPartiallyDelivered OrderStatus = "PARTIALLY_DELIVERED"
	StatusCancelled          OrderStatus = "CANCELLED"
)

// orderTransitions lists the allowed next statuses per current status.
// DELIVERED and CANCELLED are terminal. Cancellation is not a transition here;
// it goes through Order.Cancel.
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusRegistered:         {StatusShipped, StatusPartiallyShipped},
	StatusPartiallyShipped:   {StatusShipped, StatusPartiallyDelivered, StatusDelivered},
	StatusShipped:            {StatusDelivered},
	StatusPartiallyDelivered: {StatusDelivered},
}

// CanTransition reports whether the status table allows current -> next.
func CanTransition(current OrderStatus, next OrderStatus) bool {
	for _, allowed := range orderTransitions[current] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseOrderStatus maps a raw string onto a known status.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case StatusRegistered, StatusShipped, StatusPartiallyShipped,
		StatusDelivered, StatusPartiallyDelivered, StatusCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("%w: unknown order status %q", ErrInvalidArgument, raw)
	}
}

// AllOrderStatuses returns every status the service understands.
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		StatusRegistered,
		StatusShipped,
		StatusPartiallyShipped,
		StatusDelivered,
		StatusPartiallyDelivered,
		StatusCancelled,
	}
}
