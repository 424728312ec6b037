package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCache_StoreAndLastSent(t *testing.T) {
	t.Parallel()

	c := NewMemoryCache(time.Minute)
	ctx := context.Background()
	sentAt := time.Date(2026, 2, 2, 18, 0, 0, 0, time.FixedZone("BRT", -3*3600))

	if _, ok, _ := c.LastSent(ctx, "t1", "r1"); ok {
		t.Fatalf("expected miss before any send")
	}

	if err := c.StoreSent(ctx, "t1", "r1", "abc", sentAt); err != nil {
		t.Fatalf("StoreSent() error: %v", err)
	}

	got, ok, err := c.LastSent(ctx, "t1", "r1")
	if err != nil {
		t.Fatalf("LastSent() error: %v", err)
	}
	if !ok || !got.Equal(sentAt) {
		t.Fatalf("expected %v, got %v (ok=%v)", sentAt, got, ok)
	}
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", got.Location())
	}

	if _, ok, _ := c.LastSent(ctx, "t2", "r1"); ok {
		t.Fatalf("expected tenants to be isolated")
	}
}
