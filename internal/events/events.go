package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	MessageCreated     = "message.created"
	IntegrationUpdated = "integration.updated"

	DefaultExchange = "condo.messaging"
)

// Publisher fans row changes out to listeners. Callers treat failures as
// best effort and only log them.
type Publisher interface {
	Publish(ctx context.Context, routingKey, tenantID string, payload any) error
	Close() error
}

type Event struct {
	Type      string `json:"type"`
	TenantID  string `json:"tenantId"`
	Payload   any    `json:"payload"`
	Timestamp int64  `json:"timestamp"`
}

func encode(routingKey, tenantID string, payload any, at time.Time) ([]byte, error) {
	b, err := json.Marshal(Event{
		Type:      routingKey,
		TenantID:  tenantID,
		Payload:   payload,
		Timestamp: at.UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal event %s: %w", routingKey, err)
	}
	return b, nil
}

type Noop struct{}

func (Noop) Publish(context.Context, string, string, any) error { return nil }
func (Noop) Close() error                                       { return nil }
