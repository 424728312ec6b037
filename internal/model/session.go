package model

import "time"

type SessionState string

// SessionOpen is the only state written today; sessions are a recency marker.
const SessionOpen SessionState = "open"

type Session struct {
	ID            string         `json:"id"`
	TenantID      string         `json:"tenantId"`
	ResidentID    string         `json:"residentId"`
	LastMessageAt time.Time      `json:"lastMessageAt"`
	State         SessionState   `json:"state"`
	Context       map[string]any `json:"context"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}
