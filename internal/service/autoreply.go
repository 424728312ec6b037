package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/LeventeLantos/condo-messaging/internal/cache"
	"github.com/LeventeLantos/condo-messaging/internal/repo"
)

type AutoReplyOptions struct {
	Enabled bool
	Window  time.Duration
	Text    string
}

// AutoReplier sends one canned reply per inbound burst: it stays quiet
// while any outbound message exists inside the trailing window. The check
// and the send are not atomic, so two inbound messages arriving together
// may both trigger a reply.
type AutoReplier struct {
	opts     AutoReplyOptions
	messages repo.MessageRepository
	cache    cache.OutboundCache
	sender   *Sender
	now      func() time.Time
}

func NewAutoReplier(opts AutoReplyOptions, messages repo.MessageRepository, c cache.OutboundCache, sender *Sender, now func() time.Time) *AutoReplier {
	if opts.Window <= 0 {
		opts.Window = 10 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &AutoReplier{opts: opts, messages: messages, cache: c, sender: sender, now: now}
}

// MaybeReply reports whether a reply was dispatched. A store failure during
// the window check is logged and treated as no recent outbound.
func (a *AutoReplier) MaybeReply(ctx context.Context, tenantID, residentID, inboundText string) (bool, error) {
	if !a.opts.Enabled || strings.TrimSpace(inboundText) == "" {
		return false, nil
	}

	if a.recentOutbound(ctx, tenantID, residentID) {
		return false, nil
	}

	log.Info().Str("tenantId", tenantID).Str("residentId", residentID).Msg("sending auto-reply")

	if _, err := a.sender.Send(ctx, SendRequest{
		TenantID:   tenantID,
		ResidentID: residentID,
		Text:       a.opts.Text,
	}); err != nil {
		return false, err
	}
	return true, nil
}

func (a *AutoReplier) recentOutbound(ctx context.Context, tenantID, residentID string) bool {
	cutoff := a.now().UTC().Add(-a.opts.Window)

	if a.cache != nil {
		last, ok, err := a.cache.LastSent(ctx, tenantID, residentID)
		if err != nil {
			log.Warn().Err(err).Str("residentId", residentID).Msg("outbound cache read failed")
		} else if ok && !last.Before(cutoff) {
			return true
		}
	}

	found, err := a.messages.HasOutboundSince(ctx, tenantID, residentID, cutoff)
	if err != nil {
		log.Error().Err(err).Str("residentId", residentID).Msg("recent outbound check failed")
		return false
	}
	return found
}
