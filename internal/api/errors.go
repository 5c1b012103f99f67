package api

import (
	"errors"
	"net/http"

	"order-fulfillment-command/internal/domain"
	"order-fulfillment-command/internal/eventstore"
	"order-fulfillment-command/shared/httpx"
)

// writeDomainError maps the error taxonomy onto HTTP statuses in the shared
// error-envelope format. Caller-caused rejections are 4xx; concurrency
// conflicts are 409 with both versions so the caller can retry; publish
// failures are 502.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalidTransition domain.InvalidTransitionError
		cancelled         domain.CancelledOrderError
		notCancellable    domain.NotCancellableError
		insufficient      domain.InsufficientInventoryError
		overReturn        domain.OverReturnError
		belowAllocated    domain.BelowAllocatedError
		notFound          eventstore.NotFoundError
		conflict          eventstore.ConcurrencyError
		publish           eventstore.PublishError
	)

	switch {
	case errors.Is(err, domain.ErrEmptyOrder), errors.Is(err, domain.ErrInvalidArgument):
		httpx.WriteError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error(), nil)
	case errors.As(err, &invalidTransition):
		httpx.WriteError(w, r, http.StatusConflict, "INVALID_TRANSITION", err.Error(), map[string]any{
			"from": invalidTransition.From,
			"to":   invalidTransition.To,
		})
	case errors.As(err, &cancelled):
		httpx.WriteError(w, r, http.StatusConflict, "ORDER_CANCELLED", err.Error(), nil)
	case errors.As(err, &notCancellable):
		httpx.WriteError(w, r, http.StatusConflict, "NOT_CANCELLABLE", err.Error(), map[string]any{
			"status": notCancellable.Status,
		})
	case errors.As(err, &insufficient):
		httpx.WriteError(w, r, http.StatusConflict, "INSUFFICIENT_INVENTORY", err.Error(), map[string]any{
			"requested": insufficient.Requested,
			"available": insufficient.Available,
		})
	case errors.As(err, &overReturn):
		httpx.WriteError(w, r, http.StatusConflict, "OVER_RETURN", err.Error(), map[string]any{
			"requested": overReturn.Requested,
			"allocated": overReturn.Allocated,
		})
	case errors.As(err, &belowAllocated):
		httpx.WriteError(w, r, http.StatusConflict, "BELOW_ALLOCATED", err.Error(), map[string]any{
			"requested": belowAllocated.Requested,
			"allocated": belowAllocated.Allocated,
		})
	case errors.As(err, &notFound):
		httpx.WriteError(w, r, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.As(err, &conflict):
		httpx.WriteError(w, r, http.StatusConflict, "CONCURRENCY_CONFLICT", err.Error(), map[string]any{
			"expected": conflict.Expected,
			"actual":   conflict.Actual,
		})
	case errors.As(err, &publish):
		httpx.WriteError(w, r, http.StatusBadGateway, "PUBLISH_FAILED", err.Error(), nil)
	default:
		httpx.WriteError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
	}
}
