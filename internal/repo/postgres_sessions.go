package repo

import (
	"context"
	"time"

	"github.com/LeventeLantos/condo-messaging/internal/model"
)

type sessionRow struct {
	ID            string    `db:"id"`
	TenantID      string    `db:"condominio_id"`
	ResidentID    string    `db:"morador_id"`
	LastMessageAt time.Time `db:"last_message_at"`
	State         string    `db:"state"`
	Context       []byte    `db:"context"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (s *PostgresStore) GetSession(ctx context.Context, tenantID, residentID string) (model.Session, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id::text AS id, condominio_id::text AS condominio_id, morador_id::text AS morador_id,
		       last_message_at, state, context, created_at, updated_at
		FROM whatsapp_sessions
		WHERE condominio_id = $1 AND morador_id = $2
		LIMIT 1
	`, tenantID, residentID)
	if err != nil {
		return model.Session{}, storeErr(err)
	}

	return model.Session{
		ID:            row.ID,
		TenantID:      row.TenantID,
		ResidentID:    row.ResidentID,
		LastMessageAt: row.LastMessageAt.UTC(),
		State:         model.SessionState(row.State),
		Context:       unmarshalJSON(row.Context),
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}, nil
}

func (s *PostgresStore) InsertSession(ctx context.Context, sess *model.Session) error {
	ctxJSON, err := marshalJSON(sess.Context)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO whatsapp_sessions
			(id, condominio_id, morador_id, last_message_at, state, context, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, sess.ID, sess.TenantID, sess.ResidentID, sess.LastMessageAt.UTC(),
		string(sess.State), ctxJSON, sess.UpdatedAt.UTC())
	return storeErr(err)
}

func (s *PostgresStore) TouchSession(ctx context.Context, id string, lastMessageAt, updatedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE whatsapp_sessions
		SET last_message_at = $2,
		    state = 'open',
		    updated_at = $3
		WHERE id = $1
	`, id, lastMessageAt.UTC(), updatedAt.UTC())
	if err != nil {
		return storeErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
