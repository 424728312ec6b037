package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/LeventeLantos/condo-messaging/internal/events"
	"github.com/LeventeLantos/condo-messaging/internal/inbound"
	"github.com/LeventeLantos/condo-messaging/internal/model"
)

// StatusPoller asks the provider for the connection state of every Z-API
// integration and stores changes. Webhook status events cover the same
// ground when the provider delivers them.
type StatusPoller struct {
	d Deps
}

func NewStatusPoller(d Deps) *StatusPoller {
	return &StatusPoller{d: d.withDefaults()}
}

// Poll returns how many integrations changed status. Per-integration
// failures are logged and skipped.
func (p *StatusPoller) Poll(ctx context.Context) int {
	if p.d.ProviderToken == "" {
		log.Debug().Msg("status poll skipped, ZAPI_TOKEN not configured")
		return 0
	}

	integs, err := p.d.Store.ListIntegrations(ctx, model.ProviderZAPI)
	if err != nil {
		log.Error().Err(err).Msg("list integrations failed")
		return 0
	}

	changed := 0
	for _, integ := range integs {
		if ctx.Err() != nil {
			break
		}
		if integ.ZAPIInstanceID == "" {
			continue
		}
		if p.pollOne(ctx, integ) {
			changed++
		}
	}
	return changed
}

func (p *StatusPoller) pollOne(ctx context.Context, integ model.Integration) bool {
	logger := log.With().
		Str("tenantId", integ.TenantID).
		Str("instanceId", integ.ZAPIInstanceID).
		Logger()

	resp, err := p.d.Provider.Status(ctx, integ.ZAPIInstanceID)
	if err != nil {
		logger.Warn().Err(err).Msg("provider status request failed")
		return false
	}
	if !resp.OK() {
		logger.Warn().Int("providerStatus", resp.StatusCode).Msg("provider status rejected")
		return false
	}

	if e, _ := resp.Body["error"].(string); e != "" {
		logger.Debug().Str("providerError", e).Msg("provider reports instance problem")
	}

	status, ok := inbound.MapStatus(statusEvent(resp.Body))
	if !ok || status == integ.Status {
		return false
	}

	now := p.d.Now().UTC()
	if err := p.d.Store.SetIntegrationStatus(ctx, integ.TenantID, status, now); err != nil {
		logger.Error().Err(err).Msg("update integration status failed")
		return false
	}

	integ.Status = status
	integ.UpdatedAt = now
	if err := p.d.Events.Publish(ctx, events.IntegrationUpdated, integ.TenantID, integ); err != nil {
		logger.Warn().Err(err).Msg("publish integration.updated failed")
	}

	logger.Info().Str("status", string(status)).Msg("integration status changed")
	return true
}

// statusEvent turns a status response into an event word MapStatus knows.
// The provider's error text ("You are not connected.") is not mapped
// because it contains CONNECT.
func statusEvent(body map[string]any) string {
	if connected, _ := body["connected"].(bool); connected {
		return "CONNECTED"
	}
	return "DISCONNECTED"
}
