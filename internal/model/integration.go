package model

import "time"

type Provider string

const (
	ProviderMeta Provider = "meta"
	ProviderZAPI Provider = "zapi"
)

type IntegrationStatus string

const (
	StatusActive       IntegrationStatus = "ativo"
	StatusQR           IntegrationStatus = "qr"
	StatusDisconnected IntegrationStatus = "desconectado"
	StatusError        IntegrationStatus = "erro"
)

// Integration is the per-tenant messaging provider configuration.
type Integration struct {
	ID             string            `json:"id"`
	TenantID       string            `json:"tenantId"`
	Provider       Provider          `json:"provider"`
	ZAPIInstanceID string            `json:"zapiInstanceId,omitempty"`
	PhoneNumberID  string            `json:"phoneNumberId,omitempty"`
	DisplayName    string            `json:"displayName,omitempty"`
	Status         IntegrationStatus `json:"status"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Resident is read-only here. Phone holds the local-form number.
type Resident struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}
