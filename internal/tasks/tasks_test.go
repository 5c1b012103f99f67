package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"order-fulfillment-command/internal/commands"
	"order-fulfillment-command/internal/domain"
	"order-fulfillment-command/internal/eventstore"
	"order-fulfillment-command/internal/handlers"
	"order-fulfillment-command/shared/events"
	"order-fulfillment-command/shared/logx"
)

func newInventoryFixture(t *testing.T) (*handlers.InventoryHandler, *eventstore.InventoryStore) {
	t.Helper()
	store := eventstore.NewInventoryStore(
		eventstore.NewMemoryStream(),
		eventstore.NopPublisher{},
		events.TopicInventoryEvents,
		eventstore.NewMemoryProductIndex(),
		logx.Discard(),
	)
	return handlers.NewInventoryHandler(store, logx.Discard()), store
}

func returnTask(t *testing.T, payload ReturnPayload) *asynq.Task {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(TypeInventoryReturn, raw)
}

func TestHandleReturnAppliesQueuedReturn(t *testing.T) {
	ctx := context.Background()
	inventory, store := newInventoryFixture(t)
	handler := NewReturnHandler(inventory, logx.Discard())

	_, err := inventory.UpdateInventory(ctx, commands.UpdateInventory{ProductID: "sku-1", Quantity: 10})
	require.NoError(t, err)
	require.NoError(t, inventory.AllocateInventory(ctx, commands.AllocateInventory{ProductID: "sku-1", OrderID: "order-1", Quantity: 4}))

	err = handler.HandleReturn(ctx, returnTask(t, ReturnPayload{ProductID: "sku-1", OrderID: "order-1", Quantity: 4}))
	require.NoError(t, err)

	item, err := store.FindByProductID(ctx, "sku-1")
	require.NoError(t, err)
	require.Equal(t, 10, item.AvailableQuantity)
	require.Equal(t, 0, item.AllocatedQuantity)
}

func TestHandleReturnDropsPermanentFailures(t *testing.T) {
	ctx := context.Background()
	inventory, _ := newInventoryFixture(t)
	handler := NewReturnHandler(inventory, logx.Discard())

	// Unknown product: retrying cannot help.
	err := handler.HandleReturn(ctx, returnTask(t, ReturnPayload{ProductID: "missing", OrderID: "order-1", Quantity: 1}))
	require.ErrorIs(t, err, asynq.SkipRetry)

	// Over-return: caller-caused, dropped too.
	_, err = inventory.UpdateInventory(ctx, commands.UpdateInventory{ProductID: "sku-1", Quantity: 10})
	require.NoError(t, err)
	err = handler.HandleReturn(ctx, returnTask(t, ReturnPayload{ProductID: "sku-1", OrderID: "order-1", Quantity: 5}))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleReturnMalformedPayload(t *testing.T) {
	inventory, _ := newInventoryFixture(t)
	handler := NewReturnHandler(inventory, logx.Discard())

	err := handler.HandleReturn(context.Background(), asynq.NewTask(TypeInventoryReturn, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestIsPermanent(t *testing.T) {
	require.True(t, isPermanent(domain.OverReturnError{}))
	require.True(t, isPermanent(eventstore.NotFoundError{}))
	require.True(t, isPermanent(domain.ErrInvalidArgument))
	require.False(t, isPermanent(eventstore.ConcurrencyError{}))
	require.False(t, isPermanent(errors.New("redis down")))
}
