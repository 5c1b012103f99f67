package eventstore

import (
	"context"
	"fmt"
	"sync"

	"order-fulfillment-command/internal/domain"
)

// MemoryStream is an in-process Stream keeping complete histories in a map.
// It backs tests and single-node development setups.
type MemoryStream struct {
	mu      sync.RWMutex
	streams map[string][]domain.Event
}

func NewMemoryStream() *MemoryStream {
	return &MemoryStream{streams: make(map[string][]domain.Event)}
}

func (s *MemoryStream) Read(_ context.Context, streamID string) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.streams[streamID]
	out := make([]domain.Event, len(history))
	copy(out, history)
	return out, nil
}

func (s *MemoryStream) Append(_ context.Context, streamID string, expected uint64, e domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := uint64(len(s.streams[streamID]))
	if current != expected {
		return fmt.Errorf("append to %s at %d, stream has %d: %w", streamID, expected, current, ErrVersionConflict)
	}
	s.streams[streamID] = append(s.streams[streamID], e)
	return nil
}

func (s *MemoryStream) Length(_ context.Context, streamID string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.streams[streamID])), nil
}

// MemoryProductIndex is the in-process ProductIndex counterpart of
// MemoryStream.
type MemoryProductIndex struct {
	mu    sync.RWMutex
	byKey map[string]string
}

func NewMemoryProductIndex() *MemoryProductIndex {
	return &MemoryProductIndex{byKey: make(map[string]string)}
}

func (i *MemoryProductIndex) Get(_ context.Context, productID string) (string, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.byKey[productID], nil
}

func (i *MemoryProductIndex) Set(_ context.Context, productID string, aggregateID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.byKey[productID] = aggregateID
	return nil
}
