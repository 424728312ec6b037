package cache

import (
	"context"
	"time"
)

// OutboundCache remembers the last successful outbound send per
// tenant/resident pair so the auto-reply window check can skip the store.
type OutboundCache interface {
	StoreSent(ctx context.Context, tenantID, residentID, providerMessageID string, sentAt time.Time) error
	LastSent(ctx context.Context, tenantID, residentID string) (time.Time, bool, error)
}

func key(tenantID, residentID string) string {
	return "outbound:" + tenantID + ":" + residentID
}

type sentValue struct {
	ProviderMessageID string    `json:"providerMessageId"`
	SentAt            time.Time `json:"sentAt"`
}
