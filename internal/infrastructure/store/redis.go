package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bimakw/dex-gateway/internal/domain/entities"
)

// RedisStore implements TxStore using Redis
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis-backed transaction store
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Load reads the persisted record set. A missing key is an empty set.
func (s *RedisStore) Load(ctx context.Context) ([]entities.TxRecord, error) {
	data, err := s.client.Get(ctx, StoreName).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var records []entities.TxRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}

	return records, nil
}

// Save replaces the persisted record set. No TTL: eviction is the
// tracker's policy, not the store's.
func (s *RedisStore) Save(ctx context.Context, records []entities.TxRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, StoreName, data, 0).Err()
}
