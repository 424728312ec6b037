package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ OutboundCache = (*RedisCache)(nil)

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) StoreSent(ctx context.Context, tenantID, residentID, providerMessageID string, sentAt time.Time) error {
	val := sentValue{
		ProviderMessageID: providerMessageID,
		SentAt:            sentAt.UTC(),
	}

	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, key(tenantID, residentID), b, c.ttl).Err()
}

func (c *RedisCache) LastSent(ctx context.Context, tenantID, residentID string) (time.Time, bool, error) {
	raw, err := c.rdb.Get(ctx, key(tenantID, residentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	var val sentValue
	if err := json.Unmarshal(raw, &val); err != nil {
		return time.Time{}, false, err
	}
	return val.SentAt, true, nil
}
