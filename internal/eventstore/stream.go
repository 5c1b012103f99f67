package eventstore

import (
	"context"

	"order-fulfillment-command/internal/domain"
)

// Stream is the durable per-aggregate event log. One stream id holds the
// ordered history of exactly one aggregate instance.
type Stream interface {
	// Read returns the full history of the stream in ascending version order.
	// A stream with no events yields an empty slice, not an error.
	Read(ctx context.Context, streamID string) ([]domain.Event, error)

	// Append atomically appends one event if and only if the stream currently
	// holds exactly expected events. A longer stream yields an error matching
	// ErrVersionConflict.
	Append(ctx context.Context, streamID string, expected uint64, e domain.Event) error

	// Length returns the number of events currently in the stream.
	Length(ctx context.Context, streamID string) (uint64, error)
}

// ProductIndex maps a product id to the id of the inventory aggregate that
// owns it, so commands addressed by product can find their stream.
type ProductIndex interface {
	// Get returns the aggregate id for a product, or "" when the product has
	// no inventory stream yet.
	Get(ctx context.Context, productID string) (string, error)

	Set(ctx context.Context, productID string, aggregateID string) error
}
