package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	item, err := NewOrderItem("prod-1", 2, NewMoney(1250))
	require.NoError(t, err)
	order, err := NewOrder("cust-1", []OrderItem{item}, Address{City: "Berlin"}, Address{City: "Berlin"}, NewMoney(2500))
	require.NoError(t, err)
	return order
}

func TestNewOrderStagesSingleEventAtVersionOne(t *testing.T) {
	order := newTestOrder(t)

	require.Equal(t, uint64(1), order.Version())
	staged := order.UncommittedEvents()
	require.Len(t, staged, 1)
	require.Equal(t, EventOrderCreated, staged[0].Type)
	require.Equal(t, uint64(1), staged[0].Version)
	require.Equal(t, order.AggregateID(), staged[0].AggregateID)
	require.Equal(t, AggregateTypeOrder, staged[0].AggregateType)
}

func TestReplayMatchesLiveState(t *testing.T) {
	order := newTestOrder(t)
	require.NoError(t, order.UpdateStatus(StatusPartiallyShipped))
	require.NoError(t, order.UpdateStatus(StatusDelivered))

	history := order.UncommittedEvents()
	require.Len(t, history, 3)

	replayed := &Order{}
	require.NoError(t, Replay(replayed, history))

	require.Equal(t, order.AggregateID(), replayed.AggregateID())
	require.Equal(t, order.Version(), replayed.Version())
	require.Equal(t, order.CustomerID, replayed.CustomerID)
	require.Equal(t, order.Items, replayed.Items)
	require.Equal(t, order.Status, replayed.Status)
	require.Equal(t, order.TotalCost, replayed.TotalCost)
	require.Empty(t, replayed.UncommittedEvents(), "replay must not stage events")
}

func TestReplayIdempotence(t *testing.T) {
	order := newTestOrder(t)
	require.NoError(t, order.UpdateStatus(StatusShipped))
	history := order.UncommittedEvents()

	first := &Order{}
	second := &Order{}
	require.NoError(t, Replay(first, history))
	require.NoError(t, Replay(second, history))

	require.Equal(t, first.Status, second.Status)
	require.Equal(t, first.Version(), second.Version())
	require.Equal(t, first.Items, second.Items)
}

func TestMarkCommittedClearsStagedOnly(t *testing.T) {
	order := newTestOrder(t)
	order.MarkCommitted()

	require.Empty(t, order.UncommittedEvents())
	require.Equal(t, uint64(1), order.Version())

	require.NoError(t, order.UpdateStatus(StatusShipped))
	require.Len(t, order.UncommittedEvents(), 1)
	require.Equal(t, uint64(2), order.Version())
	require.Equal(t, uint64(2), order.UncommittedEvents()[0].Version)
}

func TestReplayUnknownEventType(t *testing.T) {
	order := newTestOrder(t)
	history := order.UncommittedEvents()

	bogus := history[0]
	bogus.Type = "OrderExploded"
	bogus.Payload = InventoryUpdatedPayload{ProductID: "p", Quantity: 1}

	err := Replay(&Order{}, []Event{bogus})
	var unhandled UnhandledEventTypeError
	require.ErrorAs(t, err, &unhandled)
}

func TestDecodePayloadRoundTrip(t *testing.T) {
	raw := []byte(`{"product_id":"prod-9","order_id":"ord-4","quantity":3}`)

	payload, err := DecodePayload(EventInventoryAllocated, raw)
	require.NoError(t, err)
	require.Equal(t, InventoryAllocatedPayload{ProductID: "prod-9", OrderID: "ord-4", Quantity: 3}, payload)

	_, err = DecodePayload("Unknown", raw)
	var unhandled UnhandledEventTypeError
	require.ErrorAs(t, err, &unhandled)
	require.Equal(t, "Unknown", unhandled.EventType)
}
