package eventstore

import (
	"context"

	"order-fulfillment-command/internal/domain"
	"order-fulfillment-command/shared/logx"
)

// OrderStore is the order aggregate's repository.
type OrderStore struct {
	store *Store[*domain.Order]
}

func NewOrderStore(stream Stream, pub Publisher, topic string, log logx.Logger) *OrderStore {
	return &OrderStore{
		store: NewStore(stream, pub, topic, func() *domain.Order { return &domain.Order{} }, log),
	}
}

func (s *OrderStore) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.store.FindByID(ctx, orderID)
}

func (s *OrderStore) Save(ctx context.Context, order *domain.Order) error {
	return s.store.Save(ctx, order)
}
