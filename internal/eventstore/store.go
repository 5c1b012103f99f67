package eventstore

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"order-fulfillment-command/internal/domain"
	"order-fulfillment-command/shared/events"
	"order-fulfillment-command/shared/logx"
	"order-fulfillment-command/shared/metricsx"
)

// Store loads and saves one aggregate type against a Stream, publishing every
// committed event to the broker. Saves for the same aggregate id are mutually
// exclusive within the process; cross-process races are caught by the
// stream's conditional append.
type Store[T domain.Aggregate] struct {
	stream Stream
	pub    Publisher
	topic  string
	newFn  func() T
	log    logx.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore[T domain.Aggregate](stream Stream, pub Publisher, topic string, newFn func() T, log logx.Logger) *Store[T] {
	return &Store[T]{
		stream: stream,
		pub:    pub,
		topic:  topic,
		newFn:  newFn,
		log:    log,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *Store[T]) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// FindByID rebuilds an aggregate from its full history. An aggregate with no
// events yields a NotFoundError.
func (s *Store[T]) FindByID(ctx context.Context, aggregateID string) (T, error) {
	agg := s.newFn()
	history, err := s.stream.Read(ctx, aggregateID)
	if err != nil {
		return agg, err
	}
	if len(history) == 0 {
		return agg, NotFoundError{AggregateID: aggregateID}
	}
	if err := domain.Replay(agg, history); err != nil {
		return agg, err
	}
	return agg, nil
}

// Save commits the aggregate's staged events: after the optimistic concurrency
// check, each event is published to the broker keyed by aggregate id and then
// appended to the stream, in staging order. A publish failure aborts before
// appending that event, so the stream never holds an unpublished gap; events
// already processed stay committed. On full success the staged list is
// cleared.
func (s *Store[T]) Save(ctx context.Context, agg T) error {
	staged := agg.UncommittedEvents()
	if len(staged) == 0 {
		return nil
	}

	aggregateID := agg.AggregateID()
	lock := s.lockFor(aggregateID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()

	historyLen, err := s.stream.Length(ctx, aggregateID)
	if err != nil {
		return err
	}
	loadedAt := agg.Version() - uint64(len(staged))
	if historyLen > 0 && loadedAt != historyLen {
		metricsx.IncConcurrencyConflict(agg.AggregateType())
		s.log.Warn(ctx, "concurrency_conflict", "aggregate modified concurrently",
			slog.String("aggregate_id", aggregateID),
			slog.String("aggregate_type", agg.AggregateType()),
			slog.Uint64("stream_version", historyLen),
			slog.Uint64("writer_version", loadedAt),
		)
		return ConcurrencyError{AggregateID: aggregateID, Expected: historyLen, Actual: loadedAt}
	}

	expected := historyLen
	for _, e := range staged {
		value, err := marshalEnvelope(e)
		if err != nil {
			metricsx.IncEventPublishFailure(s.topic)
			return PublishError{AggregateID: aggregateID, EventType: e.Type, Err: err}
		}
		headers := map[string]string{"event_type": e.Type}
		if err := s.pub.Publish(ctx, s.topic, []byte(aggregateID), value, headers); err != nil {
			metricsx.IncEventPublishFailure(s.topic)
			s.log.Error(ctx, "event_publish_failed", "event publish failed, aborting save",
				slog.String("aggregate_id", aggregateID),
				slog.String("event_type", e.Type),
				slog.String("topic", s.topic),
				slog.Any("error", err),
			)
			return PublishError{AggregateID: aggregateID, EventType: e.Type, Err: err}
		}
		if err := s.stream.Append(ctx, aggregateID, expected, e); err != nil {
			return err
		}
		expected++
		metricsx.IncEventsAppended(agg.AggregateType(), e.Type)
	}

	agg.MarkCommitted()
	metricsx.ObserveSaveLatency(agg.AggregateType(), time.Since(start))
	s.log.Info(ctx, "aggregate_saved", "aggregate saved",
		slog.String("aggregate_id", aggregateID),
		slog.String("aggregate_type", agg.AggregateType()),
		slog.Int("events", len(staged)),
		slog.Uint64("version", agg.Version()),
	)
	return nil
}

func marshalEnvelope(e domain.Event) ([]byte, error) {
	raw, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(events.Envelope{
		EventID:       e.ID,
		EventType:     e.Type,
		AggregateID:   e.AggregateID,
		AggregateType: e.AggregateType,
		OccurredAt:    e.OccurredAt,
		Payload:       raw,
	})
}
