package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/LeventeLantos/condo-messaging/internal/model"
	"github.com/LeventeLantos/condo-messaging/internal/repo"
)

// SessionTracker keeps the per tenant/resident recency marker. It reads
// then writes without a transaction, so concurrent touches for the same
// resident race and the last writer wins.
type SessionTracker struct {
	sessions repo.SessionRepository
	now      func() time.Time
}

func NewSessionTracker(sessions repo.SessionRepository, now func() time.Time) *SessionTracker {
	if now == nil {
		now = time.Now
	}
	return &SessionTracker{sessions: sessions, now: now}
}

func (t *SessionTracker) Touch(ctx context.Context, tenantID, residentID string, at time.Time) error {
	now := t.now().UTC()

	sess, err := t.sessions.GetSession(ctx, tenantID, residentID)
	switch {
	case err == nil:
		return t.sessions.TouchSession(ctx, sess.ID, at, now)
	case errors.Is(err, repo.ErrNotFound):
		return t.sessions.InsertSession(ctx, &model.Session{
			ID:            uuid.NewString(),
			TenantID:      tenantID,
			ResidentID:    residentID,
			LastMessageAt: at,
			State:         model.SessionOpen,
			Context:       map[string]any{},
			UpdatedAt:     now,
		})
	default:
		return err
	}
}
