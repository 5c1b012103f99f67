package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func orderInStatus(t *testing.T, status OrderStatus) *Order {
	t.Helper()
	order := newTestOrder(t)
	order.Status = status
	return order
}

func TestOrderStatusTransitionTable(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{StatusRegistered, StatusShipped, true},
		{StatusRegistered, StatusPartiallyShipped, true},
		{StatusRegistered, StatusDelivered, false},
		{StatusRegistered, StatusPartiallyDelivered, false},
		{StatusRegistered, StatusRegistered, false},
		{StatusPartiallyShipped, StatusShipped, true},
		{StatusPartiallyShipped, StatusPartiallyDelivered, true},
		{StatusPartiallyShipped, StatusDelivered, true},
		{StatusPartiallyShipped, StatusRegistered, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusPartiallyShipped, false},
		{StatusShipped, StatusShipped, false},
		{StatusPartiallyDelivered, StatusDelivered, true},
		{StatusPartiallyDelivered, StatusShipped, false},
		{StatusDelivered, StatusShipped, false},
		{StatusDelivered, StatusRegistered, false},
		{StatusCancelled, StatusShipped, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			require.Equal(t, tc.allowed, CanTransition(tc.from, tc.to))
		})
	}
}

func TestUpdateStatusStagesEvent(t *testing.T) {
	order := newTestOrder(t)
	order.MarkCommitted()

	require.NoError(t, order.UpdateStatus(StatusShipped))

	require.Equal(t, StatusShipped, order.Status)
	staged := order.UncommittedEvents()
	require.Len(t, staged, 1)
	require.Equal(t, EventOrderStatusUpdated, staged[0].Type)
	require.Equal(t, uint64(2), staged[0].Version)
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	order := newTestOrder(t)

	err := order.UpdateStatus(StatusDelivered)
	var invalid InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, StatusRegistered, invalid.From)
	require.Equal(t, StatusDelivered, invalid.To)
	require.Equal(t, StatusRegistered, order.Status)
}

func TestUpdateStatusRejectsCancelledOrder(t *testing.T) {
	order := newTestOrder(t)
	require.NoError(t, order.Cancel())

	err := order.UpdateStatus(StatusShipped)
	var cancelled CancelledOrderError
	require.ErrorAs(t, err, &cancelled)
	require.Equal(t, order.AggregateID(), cancelled.OrderID)
}

func TestCancelMatrix(t *testing.T) {
	cancellable := map[OrderStatus]bool{
		StatusRegistered:         true,
		StatusCancelled:          true,
		StatusShipped:            false,
		StatusPartiallyShipped:   false,
		StatusDelivered:          false,
		StatusPartiallyDelivered: false,
	}

	for status, ok := range cancellable {
		t.Run(string(status), func(t *testing.T) {
			order := orderInStatus(t, status)
			err := order.Cancel()
			if ok {
				require.NoError(t, err)
				require.Equal(t, StatusCancelled, order.Status)
			} else {
				var notCancellable NotCancellableError
				require.ErrorAs(t, err, &notCancellable)
				require.Equal(t, status, notCancellable.Status)
			}
		})
	}
}

func TestNewOrderRejectsEmptyItems(t *testing.T) {
	_, err := NewOrder("cust-1", nil, Address{}, Address{}, NewMoney(0))
	require.ErrorIs(t, err, ErrEmptyOrder)
}

func TestNewOrderRejectsBlankCustomer(t *testing.T) {
	item, err := NewOrderItem("prod-1", 1, NewMoney(100))
	require.NoError(t, err)

	_, err = NewOrder("", []OrderItem{item}, Address{}, Address{}, NewMoney(100))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestOrderItemInvariants(t *testing.T) {
	_, err := NewOrderItem("", 1, NewMoney(100))
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewOrderItem("prod-1", 0, NewMoney(100))
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewOrderItem("prod-1", -3, NewMoney(100))
	require.ErrorIs(t, err, ErrInvalidArgument)

	item, err := NewOrderItem("prod-1", 3, NewMoney(199))
	require.NoError(t, err)
	require.Equal(t, NewMoney(597), item.Total())
}

func TestMoneyMultiply(t *testing.T) {
	m := NewMoney(1250)
	require.Equal(t, Money{Amount: 5000, Currency: "EUR"}, m.Multiply(4))
	require.Equal(t, "12.50 EUR", m.String())
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("partially_shipped")
	require.NoError(t, err)
	require.Equal(t, StatusPartiallyShipped, status)

	_, err = ParseOrderStatus("TELEPORTED")
	require.ErrorIs(t, err, ErrInvalidArgument)
}
