package cart

import (
	"context"
	"time"

	"github.com/moritea/storefront/pkg/redis"
)

type redisStore interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CartKey(slot, sessionID string) string
}

// RedisBackend stores payloads under mori:cart:<slot>:<session> with a TTL
// refreshed on every write.
type RedisBackend struct {
	client redisStore
	ttl    time.Duration
}

func NewRedisBackend(client redisStore, ttl time.Duration) *RedisBackend {
	return &RedisBackend{client: client, ttl: ttl}
}

func (b *RedisBackend) Name() string { return "redis" }

func (b *RedisBackend) Get(ctx context.Context, key SlotKey) ([]byte, error) {
	raw, err := b.client.GetBytes(ctx, b.client.CartKey(key.Slot, key.SessionID))
	if redis.IsNil(err) {
		return nil, ErrSlotEmpty
	}
	return raw, err
}

func (b *RedisBackend) Put(ctx context.Context, key SlotKey, payload []byte) error {
	return b.client.Set(ctx, b.client.CartKey(key.Slot, key.SessionID), payload, b.ttl)
}
