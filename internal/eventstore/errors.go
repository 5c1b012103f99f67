package eventstore

import (
	"errors"
	"fmt"
)

// ErrVersionConflict is returned by streams when a conditional append finds
// the stream longer than expected. The store wraps it with aggregate context
// as a ConcurrencyError.
var ErrVersionConflict = errors.New("stream version conflict")

// NotFoundError reports a read of an aggregate with no event history.
type NotFoundError struct {
	AggregateID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("aggregate %s not found", e.AggregateID)
}

// ConcurrencyError reports an optimistic concurrency failure: the aggregate
// was loaded at version Actual but the stream has advanced to Expected events.
// The command should be retried against freshly loaded state.
type ConcurrencyError struct {
	AggregateID string
	Expected    uint64
	Actual      uint64
}

func (e ConcurrencyError) Error() string {
	return fmt.Sprintf("concurrency conflict on aggregate %s: stream at version %d, writer at version %d",
		e.AggregateID, e.Expected, e.Actual)
}

func (e ConcurrencyError) Is(target error) bool {
	return target == ErrVersionConflict
}

// PublishError reports a failure to serialize or publish one staged event.
// Events staged after the failing one are never appended, so the stream keeps
// no gaps.
type PublishError struct {
	AggregateID string
	EventType   string
	Err         error
}

func (e PublishError) Error() string {
	return fmt.Sprintf("failed to publish %s event for aggregate %s: %v", e.EventType, e.AggregateID, e.Err)
}

func (e PublishError) Unwrap() error { return e.Err }
