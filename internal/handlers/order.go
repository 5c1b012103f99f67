package handlers

import (
	"context"
	"errors"
	"log/slog"

	"order-fulfillment-command/internal/commands"
	"order-fulfillment-command/internal/domain"
	"order-fulfillment-command/internal/eventstore"
	"order-fulfillment-command/shared/logx"
	"order-fulfillment-command/shared/metricsx"
)

// ReturnRetryEnqueuer schedules a failed inventory return for asynchronous
// retry. A nil enqueuer disables retries; failures are then only logged.
type ReturnRetryEnqueuer interface {
	EnqueueReturn(ctx context.Context, productID string, orderID string, quantity int) error
}

// OrderHandler orchestrates order commands and their inventory side effects.
// Allocation on creation and returns on cancellation are best-effort: the
// order operation commits first and stays committed even when an inventory
// step fails.
type OrderHandler struct {
	orders    *eventstore.OrderStore
	inventory *InventoryHandler
	retry     ReturnRetryEnqueuer
	log       logx.Logger
}

func NewOrderHandler(orders *eventstore.OrderStore, inventory *InventoryHandler, retry ReturnRetryEnqueuer, log logx.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, inventory: inventory, retry: retry, log: log}
}

// CreateOrder registers the order and then allocates inventory per line. A
// line that cannot be allocated does not roll back the order or the other
// lines; the failure is logged and counted for operators.
func (h *OrderHandler) CreateOrder(ctx context.Context, cmd commands.CreateOrder) (*domain.Order, error) {
	order, err := domain.NewOrder(cmd.CustomerID, cmd.Items, cmd.ShippingAddress, cmd.BillingAddress, cmd.TotalCost)
	if err != nil {
		return nil, err
	}
	if err := h.orders.Save(ctx, order); err != nil {
		return nil, err
	}

	for _, item := range order.Items {
		allocErr := h.inventory.AllocateInventory(ctx, commands.AllocateInventory{
			ProductID: item.ProductID,
			OrderID:   order.AggregateID(),
			Quantity:  item.Quantity,
		})
		if allocErr != nil {
			metricsx.IncAllocationFailure(allocationFailureReason(allocErr))
			h.log.Error(ctx, "inventory_allocation_failed", "order line could not be allocated",
				slog.String("order_id", order.AggregateID()),
				slog.String("product_id", item.ProductID),
				slog.Int("quantity", item.Quantity),
				slog.Any("error", allocErr),
			)
		}
	}
	return order, nil
}

func (h *OrderHandler) UpdateOrderStatus(ctx context.Context, cmd commands.UpdateOrderStatus) error {
	order, err := h.orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if err := order.UpdateStatus(cmd.Status); err != nil {
		return err
	}
	return h.orders.Save(ctx, order)
}

// CancelOrder commits the cancellation and then returns each line's allocated
// inventory. A failed return never blocks the other lines or the cancellation
// itself; it is logged, counted and, when a retry queue is configured,
// enqueued for asynchronous retry.
func (h *OrderHandler) CancelOrder(ctx context.Context, cmd commands.CancelOrder) error {
	order, err := h.orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if err := order.Cancel(); err != nil {
		return err
	}
	if err := h.orders.Save(ctx, order); err != nil {
		return err
	}

	for _, item := range order.Items {
		returnErr := h.inventory.ReturnInventory(ctx, commands.ReturnInventory{
			ProductID: item.ProductID,
			OrderID:   order.AggregateID(),
			Quantity:  item.Quantity,
		})
		if returnErr == nil {
			continue
		}
		metricsx.IncCompensationFailure()
		h.log.Error(ctx, "inventory_return_failed", "compensating return failed",
			slog.String("order_id", order.AggregateID()),
			slog.String("product_id", item.ProductID),
			slog.Int("quantity", item.Quantity),
			slog.Any("error", returnErr),
		)
		if h.retry != nil {
			if enqErr := h.retry.EnqueueReturn(ctx, item.ProductID, order.AggregateID(), item.Quantity); enqErr != nil {
				h.log.Error(ctx, "return_retry_enqueue_failed", "could not enqueue return retry",
					slog.String("order_id", order.AggregateID()),
					slog.String("product_id", item.ProductID),
					slog.Any("error", enqErr),
				)
			}
		}
	}
	return nil
}

func allocationFailureReason(err error) string {
	switch {
	case isType[domain.InsufficientInventoryError](err):
		return "insufficient_inventory"
	case isType[eventstore.NotFoundError](err):
		return "product_not_found"
	case isType[eventstore.ConcurrencyError](err):
		return "concurrency_conflict"
	default:
		return "other"
	}
}

func isType[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}
