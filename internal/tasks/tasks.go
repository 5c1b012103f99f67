// Package tasks carries the asynq task definitions for the compensation-retry
// queue. Failed inventory returns during order cancellation are enqueued here
// and drained by the worker binary.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"order-fulfillment-command/internal/commands"
	"order-fulfillment-command/internal/domain"
	"order-fulfillment-command/internal/eventstore"
	"order-fulfillment-command/internal/handlers"
	"order-fulfillment-command/shared/logx"
)

const TypeInventoryReturn = "inventory.return"

type ReturnPayload struct {
	ProductID string `json:"product_id"`
	OrderID   string `json:"order_id"`
	Quantity  int    `json:"quantity"`
}

// Client enqueues compensation retries. It satisfies
// handlers.ReturnRetryEnqueuer.
type Client struct {
	client   *asynq.Client
	queue    string
	retryMax int
}

func NewClient(redisOpt asynq.RedisClientOpt, queue string, retryMax int) *Client {
	return &Client{client: asynq.NewClient(redisOpt), queue: queue, retryMax: retryMax}
}

func (c *Client) EnqueueReturn(_ context.Context, productID string, orderID string, quantity int) error {
	payload, err := json.Marshal(ReturnPayload{ProductID: productID, OrderID: orderID, Quantity: quantity})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeInventoryReturn, payload)
	_, err = c.client.Enqueue(task, asynq.Queue(c.queue), asynq.MaxRetry(c.retryMax))
	return err
}

func (c *Client) Close() error {
	return c.client.Close()
}

// ReturnHandler retries a previously failed inventory return.
type ReturnHandler struct {
	inventory *handlers.InventoryHandler
	log       logx.Logger
}

func NewReturnHandler(inventory *handlers.InventoryHandler, log logx.Logger) *ReturnHandler {
	return &ReturnHandler{inventory: inventory, log: log}
}

// HandleReturn processes one queued return. Caller-caused rejections will
// never succeed on retry and are dropped with SkipRetry; everything else is
// retried by asynq with its default backoff.
func (h *ReturnHandler) HandleReturn(ctx context.Context, t *asynq.Task) error {
	ctx, span := otel.Tracer("tasks").Start(ctx, "inventory.return")
	defer span.End()

	var payload ReturnPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode return payload: %v: %w", err, asynq.SkipRetry)
	}
	span.SetAttributes(
		attribute.String("product_id", payload.ProductID),
		attribute.String("order_id", payload.OrderID),
	)

	err := h.inventory.ReturnInventory(ctx, commands.ReturnInventory{
		ProductID: payload.ProductID,
		OrderID:   payload.OrderID,
		Quantity:  payload.Quantity,
	})
	if err == nil {
		h.log.Info(ctx, "return_retry_succeeded", "queued inventory return applied",
			slog.String("product_id", payload.ProductID),
			slog.String("order_id", payload.OrderID),
			slog.Int("quantity", payload.Quantity),
		)
		return nil
	}

	if isPermanent(err) {
		h.log.Warn(ctx, "return_retry_dropped", "queued inventory return can never succeed",
			slog.String("product_id", payload.ProductID),
			slog.String("order_id", payload.OrderID),
			slog.Any("error", err),
		)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	return err
}

// isPermanent reports whether a return failure is caller-caused and therefore
// pointless to retry. Concurrency conflicts and infrastructure failures are
// transient.
func isPermanent(err error) bool {
	var (
		over     domain.OverReturnError
		notFound eventstore.NotFoundError
	)
	return errors.As(err, &over) ||
		errors.As(err, &notFound) ||
		errors.Is(err, domain.ErrInvalidArgument)
}
