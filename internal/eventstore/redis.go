package eventstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const productIndexPrefix = "inventory:product:"

// RedisProductIndex keeps the product-to-stream mapping in Redis, shared
// across service instances. Entries never expire; an inventory stream is
// permanent once created.
type RedisProductIndex struct {
	client *redis.Client
}

func NewRedisProductIndex(client *redis.Client) *RedisProductIndex {
	return &RedisProductIndex{client: client}
}

func (i *RedisProductIndex) Get(ctx context.Context, productID string) (string, error) {
	streamID, err := i.client.Get(ctx, productIndexPrefix+productID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return streamID, nil
}

func (i *RedisProductIndex) Set(ctx context.Context, productID string, aggregateID string) error {
	return i.client.Set(ctx, productIndexPrefix+productID, aggregateID, 0).Err()
}
