package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is the in-process fallback used when no Redis address is set.
type MemoryCache struct {
	c *gocache.Cache
}

var _ OutboundCache = (*MemoryCache)(nil)

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{c: gocache.New(ttl, 2*ttl)}
}

func (m *MemoryCache) StoreSent(_ context.Context, tenantID, residentID, providerMessageID string, sentAt time.Time) error {
	m.c.SetDefault(key(tenantID, residentID), sentValue{
		ProviderMessageID: providerMessageID,
		SentAt:            sentAt.UTC(),
	})
	return nil
}

func (m *MemoryCache) LastSent(_ context.Context, tenantID, residentID string) (time.Time, bool, error) {
	v, ok := m.c.Get(key(tenantID, residentID))
	if !ok {
		return time.Time{}, false, nil
	}
	val, ok := v.(sentValue)
	if !ok {
		return time.Time{}, false, nil
	}
	return val.SentAt, true, nil
}
