package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/LeventeLantos/condo-messaging/internal/events"
	"github.com/LeventeLantos/condo-messaging/internal/inbound"
	"github.com/LeventeLantos/condo-messaging/internal/model"
	"github.com/LeventeLantos/condo-messaging/internal/repo"
)

type IngestResult struct {
	Inserted           int  `json:"inserted"`
	UpdatedIntegration bool `json:"updatedIntegration"`
}

// Ingestor turns one provider webhook payload into stored inbound rows.
// Records it cannot attribute or read are skipped, never failed.
type Ingestor struct {
	d        Deps
	sessions *SessionTracker
	replier  *AutoReplier
}

// NewIngestor wires the pipeline; replier may be nil to disable auto-replies.
func NewIngestor(d Deps, replier *AutoReplier) *Ingestor {
	d = d.withDefaults()
	return &Ingestor{
		d:        d,
		sessions: NewSessionTracker(d.Store, d.Now),
		replier:  replier,
	}
}

func (in *Ingestor) Ingest(ctx context.Context, payload map[string]any) (IngestResult, error) {
	var res IngestResult
	if payload == nil {
		return res, nil
	}

	res.UpdatedIntegration = in.applyStatus(ctx, payload)

	records := inbound.FilterSelf(inbound.Normalize(payload))
	meta := inbound.Meta(payload)

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if in.ingestOne(ctx, payload, meta, rec) {
			res.Inserted++
		}
	}

	return res, nil
}

// applyStatus maps a status event to the integration with the payload's
// instance id. It reports true whenever the update ran without error, even
// if no integration carries that instance id.
func (in *Ingestor) applyStatus(ctx context.Context, payload map[string]any) bool {
	instanceID := inbound.InstanceID(payload)
	raw := inbound.StatusEvent(payload)
	if instanceID == "" || raw == "" {
		return false
	}

	status, ok := inbound.MapStatus(raw)
	if !ok {
		log.Debug().Str("instanceId", instanceID).Str("event", raw).Msg("status event left unmapped")
		return false
	}

	n, err := in.d.Store.SetInstanceStatus(ctx, instanceID, status, in.d.Now().UTC())
	if err != nil {
		log.Error().Err(err).
			Str("instanceId", instanceID).
			Str("status", string(status)).
			Str("event", raw).
			Msg("update integration status failed")
		return false
	}
	if n == 0 {
		log.Warn().Str("instanceId", instanceID).Msg("status event for unknown instance")
		return true
	}

	if err := in.d.Events.Publish(ctx, events.IntegrationUpdated, "", map[string]any{
		"zapiInstanceId": instanceID,
		"status":         status,
	}); err != nil {
		log.Warn().Err(err).Str("instanceId", instanceID).Msg("publish integration.updated failed")
	}
	return true
}

func (in *Ingestor) ingestOne(ctx context.Context, payload, meta map[string]any, rec inbound.Record) bool {
	text, ok := inbound.ExtractText(rec, payload)
	if !ok {
		return false
	}
	sender := inbound.Sender(rec, payload)
	if sender == "" {
		return false
	}

	local := in.d.Phone.Local(sender)
	if local == "" {
		log.Warn().Str("from", sender).Msg("sender empty after local normalization")
		return false
	}

	resident, err := in.d.Store.FindResidentByPhone(ctx, local)
	if errors.Is(err, repo.ErrNotFound) {
		log.Warn().Str("phone", local).Msg("resident not found for phone")
		return false
	}
	if err != nil {
		log.Error().Err(err).Str("phone", local).Msg("resident lookup failed")
		return false
	}

	rawTS := inbound.RawTimestamp(rec, payload)
	ts, fellBack := inbound.NormalizeTimestamp(rawTS, in.d.Now)
	if fellBack && rawTS != nil {
		log.Warn().
			Interface("raw", rawTS).
			Str("using", inbound.FormatTimestamp(ts)).
			Str("residentId", resident.ID).
			Msg("unusable message timestamp, using current time")
	}

	msg := &model.Message{
		ID:         uuid.NewString(),
		TenantID:   resident.TenantID,
		ResidentID: resident.ID,
		Direction:  model.Inbound,
		Type:       "text",
		Body:       text,
		Timestamp:  ts,
		Status:     model.Received,
		Raw: map[string]any{
			"meta":    meta,
			"message": map[string]any(rec),
		},
	}
	if id := inbound.ProviderMessageID(rec, payload); id != "" {
		msg.ProviderMessageID = &id
	}

	logger := log.With().
		Str("tenantId", resident.TenantID).
		Str("residentId", resident.ID).
		Logger()

	if err := in.d.Store.InsertMessage(ctx, msg); err != nil {
		logger.Error().Err(err).Msg("insert inbound message failed")
		return false
	}

	if err := in.sessions.Touch(ctx, resident.TenantID, resident.ID, ts); err != nil {
		logger.Error().Err(err).Msg("session touch failed")
	}
	if err := in.d.Events.Publish(ctx, events.MessageCreated, resident.TenantID, msg); err != nil {
		logger.Warn().Err(err).Msg("publish message.created failed")
	}

	if in.replier != nil {
		if _, err := in.replier.MaybeReply(ctx, resident.TenantID, resident.ID, text); err != nil {
			logger.Error().Err(err).Msg("auto-reply failed")
		}
	}
	return true
}
