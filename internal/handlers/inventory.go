package handlers

import (
	"context"
	"errors"

	"order-fulfillment-command/internal/commands"
	"order-fulfillment-command/internal/domain"
	"order-fulfillment-command/internal/eventstore"
	"order-fulfillment-command/shared/logx"
)

// InventoryHandler orchestrates inventory commands: load or create the
// aggregate, invoke the domain operation, save.
type InventoryHandler struct {
	store *eventstore.InventoryStore
	log   logx.Logger
}

func NewInventoryHandler(store *eventstore.InventoryStore, log logx.Logger) *InventoryHandler {
	return &InventoryHandler{store: store, log: log}
}

// UpdateInventory sets a product's available quantity, creating the inventory
// aggregate when the product has no stream yet.
func (h *InventoryHandler) UpdateInventory(ctx context.Context, cmd commands.UpdateInventory) (*domain.InventoryItem, error) {
	item, err := h.store.FindByProductID(ctx, cmd.ProductID)
	if err != nil {
		var notFound eventstore.NotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		item, err = domain.NewInventoryItem(cmd.ProductID, cmd.Quantity)
		if err != nil {
			return nil, err
		}
	} else {
		if err := item.UpdateQuantity(cmd.Quantity); err != nil {
			return nil, err
		}
	}

	if err := h.store.Save(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (h *InventoryHandler) AllocateInventory(ctx context.Context, cmd commands.AllocateInventory) error {
	item, err := h.store.FindByProductID(ctx, cmd.ProductID)
	if err != nil {
		return err
	}
	if err := item.Allocate(cmd.OrderID, cmd.Quantity); err != nil {
		return err
	}
	return h.store.Save(ctx, item)
}

func (h *InventoryHandler) ReturnInventory(ctx context.Context, cmd commands.ReturnInventory) error {
	item, err := h.store.FindByProductID(ctx, cmd.ProductID)
	if err != nil {
		return err
	}
	if err := item.ReturnInventory(cmd.OrderID, cmd.Quantity); err != nil {
		return err
	}
	return h.store.Save(ctx, item)
}
