package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/LeventeLantos/condo-messaging/internal/cache"
	"github.com/LeventeLantos/condo-messaging/internal/client"
	"github.com/LeventeLantos/condo-messaging/internal/events"
	"github.com/LeventeLantos/condo-messaging/internal/model"
	"github.com/LeventeLantos/condo-messaging/internal/phone"
	"github.com/LeventeLantos/condo-messaging/internal/repo"
)

// ProviderClient is the subset of the Z-API gateway the services use.
type ProviderClient interface {
	SendText(ctx context.Context, instanceID, phone, message string) (client.Response, error)
	Logout(ctx context.Context, instanceID string) (client.Response, error)
	Status(ctx context.Context, instanceID string) (client.Response, error)
}

// Deps wires the collaborators shared by the services. Cache and Events
// are optional; the zero Phone normalizer uses the default country code.
type Deps struct {
	Store         repo.Store
	Provider      ProviderClient
	Cache         cache.OutboundCache
	Events        events.Publisher
	Phone         phone.Normalizer
	ProviderToken string
	Now           func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Events == nil {
		d.Events = events.Noop{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

type SendRequest struct {
	TenantID   string `json:"tenantId" validate:"required"`
	ResidentID string `json:"residentId" validate:"required"`
	Text       string `json:"text" validate:"notblank"`
}

type SendResult struct {
	OK                bool    `json:"ok"`
	ProviderMessageID *string `json:"providerMessageId"`
}

type Sender struct {
	d        Deps
	sessions *SessionTracker
}

func NewSender(d Deps) *Sender {
	d = d.withDefaults()
	return &Sender{
		d:        d,
		sessions: NewSessionTracker(d.Store, d.Now),
	}
}

// Send delivers one text message to a resident through the tenant's Z-API
// instance. Once the provider has answered, an outbound row is recorded
// whether the provider accepted the message or not.
func (s *Sender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if s.d.ProviderToken == "" {
		log.Error().Str("key", "ZAPI_TOKEN").Msg("provider token not configured")
		return SendResult{}, configError("ZAPI not configured")
	}
	if err := Validate(req); err != nil {
		return SendResult{}, invalidPayload(err)
	}

	resident, integ, err := s.lookup(ctx, req.TenantID, req.ResidentID)
	if err != nil {
		return SendResult{}, err
	}

	dial := s.d.Phone.Dial(resident.Phone)
	if dial == "" {
		return SendResult{}, validationError("resident phone invalid", nil)
	}

	resp, err := s.d.Provider.SendText(ctx, integ.ZAPIInstanceID, dial, req.Text)
	if err != nil {
		log.Error().Err(err).
			Str("tenantId", req.TenantID).
			Str("residentId", req.ResidentID).
			Msg("provider send could not be attempted")
		return SendResult{}, internalError("provider unreachable", err)
	}

	now := s.d.Now().UTC()
	msg := &model.Message{
		ID:         uuid.NewString(),
		TenantID:   req.TenantID,
		ResidentID: req.ResidentID,
		Direction:  model.Outbound,
		Type:       "text",
		Body:       req.Text,
		Timestamp:  now,
		Status:     model.Failed,
		Raw:        resp.Body,
	}
	if resp.OK() {
		msg.Status = model.Sent
	}
	if resp.MessageID != "" {
		id := resp.MessageID
		msg.ProviderMessageID = &id
	}

	logger := log.With().
		Str("tenantId", req.TenantID).
		Str("residentId", req.ResidentID).
		Int("providerStatus", resp.StatusCode).
		Logger()

	if err := s.d.Store.InsertMessage(ctx, msg); err != nil {
		logger.Error().Err(err).Msg("insert outbound message failed")
	}

	if !resp.OK() {
		logger.Error().Interface("response", resp.Body).Msg("provider rejected message")
		return SendResult{}, upstreamError("provider send failed", resp.Body)
	}

	if err := s.sessions.Touch(ctx, req.TenantID, req.ResidentID, now); err != nil {
		logger.Error().Err(err).Msg("session touch after send failed")
	}
	if s.d.Cache != nil {
		if err := s.d.Cache.StoreSent(ctx, req.TenantID, req.ResidentID, resp.MessageID, now); err != nil {
			logger.Warn().Err(err).Msg("outbound cache update failed")
		}
	}
	if err := s.d.Events.Publish(ctx, events.MessageCreated, req.TenantID, msg); err != nil {
		logger.Warn().Err(err).Msg("publish message.created failed")
	}

	logger.Info().Str("providerMessageId", resp.MessageID).Msg("message sent")
	return SendResult{OK: true, ProviderMessageID: msg.ProviderMessageID}, nil
}

// lookupError names which of the concurrent precondition reads failed.
type lookupError struct {
	what string
	err  error
}

func (e *lookupError) Error() string { return e.what + " lookup: " + e.err.Error() }
func (e *lookupError) Unwrap() error { return e.err }

// lookup fetches the resident and the tenant integration concurrently and
// applies the send preconditions in a fixed order. A store failure on
// either read cancels the other.
func (s *Sender) lookup(ctx context.Context, tenantID, residentID string) (model.Resident, model.Integration, error) {
	var (
		resident      model.Resident
		integ         model.Integration
		residentFound bool
		integFound    bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.d.Store.GetResident(gctx, residentID)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil
		case err != nil:
			return &lookupError{what: "resident", err: err}
		}
		resident, residentFound = r, true
		return nil
	})
	g.Go(func() error {
		in, err := s.d.Store.GetIntegration(gctx, tenantID)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil
		case err != nil:
			return &lookupError{what: "integration", err: err}
		}
		integ, integFound = in, true
		return nil
	})

	if err := g.Wait(); err != nil {
		var le *lookupError
		if errors.As(err, &le) && le.what == "integration" {
			log.Error().Err(le.err).Str("tenantId", tenantID).Msg("integration lookup failed")
			return resident, integ, validationError("integration not found", err)
		}
		log.Error().Err(err).Str("residentId", residentID).Msg("resident lookup failed")
		return resident, integ, validationError("resident not found", err)
	}

	if !residentFound || strings.TrimSpace(resident.Phone) == "" {
		return resident, integ, validationError("resident has no phone", nil)
	}
	if !integFound ||
		integ.Provider != model.ProviderZAPI ||
		integ.Status != model.StatusActive ||
		integ.ZAPIInstanceID == "" {
		return resident, integ, validationError("Z-API integration not active for this tenant", nil)
	}

	return resident, integ, nil
}
