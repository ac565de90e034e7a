package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "sess:"
)

// RedisBackend はセッションを Redis に JSON で保存します。失効は Redis のキー TTL に任せます。
type RedisBackend struct {
	rdb *redis.Client
}

// NewRedisBackend は RedisBackend を作成します。
func NewRedisBackend(rdb *redis.Client) *RedisBackend {
	return &RedisBackend{rdb: rdb}
}

func (b *RedisBackend) Get(ctx context.Context, id string) (map[string]any, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	data, err := b.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return values, nil
}

func (b *RedisBackend) Set(ctx context.Context, id string, values map[string]any, ttl time.Duration) error {
	if id == "" {
		return fmt.Errorf("session id is required")
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", id, err)
	}
	if err := b.rdb.Set(ctx, sessionKey(id), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (b *RedisBackend) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := b.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}
