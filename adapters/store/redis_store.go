package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chaintalk/chaintalk/core"
	"github.com/chaintalk/chaintalk/ports"
)

// RedisStore is a Redis implementation of the Store interface.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(client *redis.Client) ports.Store {
	return &RedisStore{client: client}
}

// Set stores a key with a value and expiration time.
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", core.ErrDatabase, key, err)
	}
	return nil
}

// Take atomically removes the key and reports whether it was present.
func (s *RedisStore) Take(ctx context.Context, key string) (bool, error) {
	if err := s.client.GetDel(ctx, key).Err(); err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("%w: getdel %s: %v", core.ErrDatabase, key, err)
	}
	return true, nil
}
