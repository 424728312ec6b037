package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/LeventeLantos/condo-messaging/internal/events"
	"github.com/LeventeLantos/condo-messaging/internal/model"
	"github.com/LeventeLantos/condo-messaging/internal/repo"
)

type SaveIntegrationRequest struct {
	TenantID       string `json:"tenantId" validate:"notblank"`
	Provider       string `json:"provider" validate:"required,oneof=zapi meta"`
	ZAPIInstanceID string `json:"zapiInstanceId"`
	PhoneNumberID  string `json:"phoneNumberId"`
	DisplayName    string `json:"displayName"`
}

// Inbox is the operator-facing read and settings side: integration
// settings, resident threads and the conversation list.
type Inbox struct {
	d Deps
}

func NewInbox(d Deps) *Inbox {
	return &Inbox{d: d.withDefaults()}
}

// SaveIntegration stores the tenant's provider settings. Saving marks the
// integration ativo, as the settings screen always did.
func (s *Inbox) SaveIntegration(ctx context.Context, req SaveIntegrationRequest) (model.Integration, error) {
	if err := Validate(req); err != nil {
		return model.Integration{}, invalidPayload(err)
	}
	provider := model.Provider(req.Provider)
	instanceID := strings.TrimSpace(req.ZAPIInstanceID)
	if provider == model.ProviderZAPI && instanceID == "" {
		return model.Integration{}, validationError("zapiInstanceId is required for zapi", nil)
	}

	in := &model.Integration{
		ID:             uuid.NewString(),
		TenantID:       strings.TrimSpace(req.TenantID),
		Provider:       provider,
		ZAPIInstanceID: instanceID,
		PhoneNumberID:  strings.TrimSpace(req.PhoneNumberID),
		DisplayName:    strings.TrimSpace(req.DisplayName),
		Status:         model.StatusActive,
		UpdatedAt:      s.d.Now().UTC(),
	}
	if err := s.d.Store.SaveIntegration(ctx, in); err != nil {
		return model.Integration{}, storeError("save integration", err)
	}

	if err := s.d.Events.Publish(ctx, events.IntegrationUpdated, in.TenantID, in); err != nil {
		log.Warn().Err(err).Str("tenantId", in.TenantID).Msg("publish integration.updated failed")
	}
	return *in, nil
}

func (s *Inbox) Integration(ctx context.Context, tenantID string) (model.Integration, error) {
	in, err := s.d.Store.GetIntegration(ctx, tenantID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Integration{}, notFoundError("integration not found", err)
	}
	if err != nil {
		return model.Integration{}, storeError("load integration", err)
	}
	return in, nil
}

func (s *Inbox) Thread(ctx context.Context, tenantID, residentID string, limit, offset int) ([]model.Message, error) {
	msgs, err := s.d.Store.ListThread(ctx, tenantID, residentID, clampLimit(limit), offset)
	if err != nil {
		return nil, storeError("list thread", err)
	}
	return msgs, nil
}

func (s *Inbox) Conversations(ctx context.Context, tenantID string, limit int) ([]model.Message, error) {
	msgs, err := s.d.Store.ListConversations(ctx, tenantID, clampLimit(limit))
	if err != nil {
		return nil, storeError("list conversations", err)
	}
	return msgs, nil
}

// storeError reports malformed ids as a validation failure and anything
// else as internal.
func storeError(msg string, err error) error {
	if errors.Is(err, repo.ErrInvalidID) {
		return validationError("invalid id", err)
	}
	return internalError(msg, err)
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 50
	case limit > 500:
		return 500
	default:
		return limit
	}
}
