package eventstore

import (
	"context"

	"order-fulfillment-command/internal/domain"
	"order-fulfillment-command/shared/logx"
)

// InventoryStore is the inventory aggregate's repository. Inventory commands
// address aggregates by product id, so the store maintains a ProductIndex
// entry per saved aggregate.
type InventoryStore struct {
	store *Store[*domain.InventoryItem]
	index ProductIndex
}

func NewInventoryStore(stream Stream, pub Publisher, topic string, index ProductIndex, log logx.Logger) *InventoryStore {
	return &InventoryStore{
		store: NewStore(stream, pub, topic, func() *domain.InventoryItem { return &domain.InventoryItem{} }, log),
		index: index,
	}
}

func (s *InventoryStore) FindByID(ctx context.Context, aggregateID string) (*domain.InventoryItem, error) {
	item, err := s.store.FindByID(ctx, aggregateID)
	if err != nil {
		return nil, err
	}
	// Back-fill the index so aggregates loaded by id stay reachable by
	// product even if the index entry was lost.
	if err := s.index.Set(ctx, item.ProductID, item.AggregateID()); err != nil {
		return nil, err
	}
	return item, nil
}

// FindByProductID resolves the product through the index and rebuilds its
// inventory aggregate. An unindexed product yields a NotFoundError keyed by
// the product id.
func (s *InventoryStore) FindByProductID(ctx context.Context, productID string) (*domain.InventoryItem, error) {
	aggregateID, err := s.index.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if aggregateID == "" {
		return nil, NotFoundError{AggregateID: productID}
	}
	return s.store.FindByID(ctx, aggregateID)
}

func (s *InventoryStore) ExistsByProductID(ctx context.Context, productID string) (bool, error) {
	aggregateID, err := s.index.Get(ctx, productID)
	if err != nil {
		return false, err
	}
	return aggregateID != "", nil
}

// Save commits the aggregate's staged events and refreshes the product index.
func (s *InventoryStore) Save(ctx context.Context, item *domain.InventoryItem) error {
	if err := s.store.Save(ctx, item); err != nil {
		return err
	}
	return s.index.Set(ctx, item.ProductID, item.AggregateID())
}
