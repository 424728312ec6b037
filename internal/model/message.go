package model

import "time"

type Direction string

const (
	Inbound  Direction = "inbound"
	Outbound Direction = "outbound"
)

type Status string

const (
	Received Status = "received"
	Sending  Status = "sending"
	Sent     Status = "sent"
	Failed   Status = "failed"
)

// Message is one row of a tenant/resident WhatsApp thread. Raw keeps the
// provider payload or response as opaque provenance data.
type Message struct {
	ID                string         `json:"id"`
	TenantID          string         `json:"tenantId"`
	ResidentID        string         `json:"residentId"`
	Direction         Direction      `json:"direction"`
	Type              string         `json:"type"`
	Body              string         `json:"body"`
	Timestamp         time.Time      `json:"timestamp"`
	Status            Status         `json:"status"`
	ProviderMessageID *string        `json:"providerMessageId,omitempty"`
	Raw               map[string]any `json:"raw,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
}
