package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/LeventeLantos/condo-messaging/internal/events"
	"github.com/LeventeLantos/condo-messaging/internal/model"
	"github.com/LeventeLantos/condo-messaging/internal/repo"
)

type DisconnectRequest struct {
	TenantID string `json:"tenantId" validate:"notblank"`
}

type Disconnector struct {
	d Deps
}

func NewDisconnector(d Deps) *Disconnector {
	return &Disconnector{d: d.withDefaults()}
}

// Disconnect logs the tenant's Z-API instance out and marks the
// integration desconectado.
func (s *Disconnector) Disconnect(ctx context.Context, req DisconnectRequest) error {
	if s.d.ProviderToken == "" {
		log.Error().Str("key", "ZAPI_TOKEN").Msg("provider token not configured")
		return configError("ZAPI not configured")
	}
	if err := Validate(req); err != nil {
		return invalidPayload(err)
	}
	tenantID := strings.TrimSpace(req.TenantID)

	integ, err := s.d.Store.GetIntegration(ctx, tenantID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		log.Error().Err(err).Str("tenantId", tenantID).Msg("integration lookup failed")
		return validationError("integration not found", err)
	}
	if err != nil || integ.Provider != model.ProviderZAPI || integ.ZAPIInstanceID == "" {
		return validationError("Z-API integration not found for this tenant", nil)
	}

	resp, err := s.d.Provider.Logout(ctx, integ.ZAPIInstanceID)
	if err != nil {
		log.Error().Err(err).Str("tenantId", tenantID).Msg("provider logout could not be attempted")
		return internalError("provider unreachable", err)
	}
	if !resp.OK() {
		log.Error().
			Str("tenantId", tenantID).
			Int("providerStatus", resp.StatusCode).
			Interface("response", resp.Body).
			Msg("provider logout failed")
		return upstreamError("provider logout failed", resp.Body)
	}

	now := s.d.Now().UTC()
	if err := s.d.Store.SetIntegrationStatus(ctx, tenantID, model.StatusDisconnected, now); err != nil {
		log.Error().Err(err).Str("tenantId", tenantID).Msg("update integration status failed")
		return nil
	}

	integ.Status = model.StatusDisconnected
	integ.UpdatedAt = now
	if err := s.d.Events.Publish(ctx, events.IntegrationUpdated, tenantID, integ); err != nil {
		log.Warn().Err(err).Str("tenantId", tenantID).Msg("publish integration.updated failed")
	}

	log.Info().Str("tenantId", tenantID).Str("instanceId", integ.ZAPIInstanceID).Msg("integration disconnected")
	return nil
}
