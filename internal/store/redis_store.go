package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps records as plain strings and lists as redis lists.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("redis get "+key, err)
	}
	return data, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return unavailable("redis set "+key, err)
	}
	return nil
}

func (s *RedisStore) ListAppend(ctx context.Context, key string, item []byte) error {
	if err := s.client.RPush(ctx, key, item).Err(); err != nil {
		return unavailable("redis rpush "+key, err)
	}
	return nil
}

func (s *RedisStore) ListRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	items, err := s.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, unavailable("redis lrange "+key, err)
	}
	out := make([][]byte, len(items))
	for i, item := range items {
		out[i] = []byte(item)
	}
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return unavailable("redis del "+key, err)
	}
	return nil
}

// ListRemove drops every occurrence of item from the list in one LREM.
func (s *RedisStore) ListRemove(ctx context.Context, key string, item []byte) (int64, error) {
	n, err := s.client.LRem(ctx, key, 0, item).Result()
	if err != nil {
		return 0, unavailable("redis lrem "+key, err)
	}
	return n, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
