package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/LeventeLantos/condo-messaging/internal/model"
)

type messageRow struct {
	ID                string         `db:"id"`
	TenantID          string         `db:"condominio_id"`
	ResidentID        string         `db:"morador_id"`
	Direction         string         `db:"direction"`
	Type              string         `db:"type"`
	Body              sql.NullString `db:"body"`
	Timestamp         time.Time      `db:"timestamp"`
	Status            sql.NullString `db:"status"`
	ProviderMessageID sql.NullString `db:"provider_message_id"`
	Raw               []byte         `db:"raw"`
	CreatedAt         time.Time      `db:"created_at"`
}

func (r messageRow) toModel() model.Message {
	m := model.Message{
		ID:         r.ID,
		TenantID:   r.TenantID,
		ResidentID: r.ResidentID,
		Direction:  model.Direction(r.Direction),
		Type:       r.Type,
		Body:       r.Body.String,
		Timestamp:  r.Timestamp.UTC(),
		Status:     model.Status(r.Status.String),
		Raw:        unmarshalJSON(r.Raw),
		CreatedAt:  r.CreatedAt.UTC(),
	}
	if r.ProviderMessageID.Valid {
		s := r.ProviderMessageID.String
		m.ProviderMessageID = &s
	}
	return m
}

const messageColumns = `id::text AS id, condominio_id::text AS condominio_id, morador_id::text AS morador_id,
	direction, type, body, timestamp, status, provider_message_id, raw, created_at`

func (s *PostgresStore) InsertMessage(ctx context.Context, m *model.Message) error {
	raw, err := marshalJSON(m.Raw)
	if err != nil {
		return err
	}

	var providerID sql.NullString
	if m.ProviderMessageID != nil {
		providerID = sql.NullString{String: *m.ProviderMessageID, Valid: true}
	}

	err = s.db.QueryRowxContext(ctx, `
		INSERT INTO whatsapp_messages
			(id, condominio_id, morador_id, direction, type, body, timestamp, status, provider_message_id, raw)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, m.ID, m.TenantID, m.ResidentID, string(m.Direction), m.Type, m.Body,
		m.Timestamp.UTC(), string(m.Status), providerID, raw,
	).Scan(&m.CreatedAt)
	return storeErr(err)
}

func (s *PostgresStore) HasOutboundSince(ctx context.Context, tenantID, residentID string, since time.Time) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM whatsapp_messages
			WHERE condominio_id = $1
			  AND morador_id = $2
			  AND direction = 'outbound'
			  AND timestamp >= $3
		)
	`, tenantID, residentID, since.UTC())
	return exists, storeErr(err)
}

func (s *PostgresStore) ListThread(ctx context.Context, tenantID, residentID string, limit, offset int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var rows []messageRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT `+messageColumns+`
		FROM whatsapp_messages
		WHERE condominio_id = $1 AND morador_id = $2
		ORDER BY timestamp ASC
		LIMIT $3 OFFSET $4
	`, tenantID, residentID, limit, offset); err != nil {
		return nil, storeErr(err)
	}
	return toMessages(rows), nil
}

// ListConversations returns the newest message of every resident thread.
func (s *PostgresStore) ListConversations(ctx context.Context, tenantID string, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []messageRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM (
			SELECT DISTINCT ON (morador_id) `+messageColumns+`
			FROM whatsapp_messages
			WHERE condominio_id = $1
			ORDER BY morador_id, timestamp DESC
		) latest
		ORDER BY timestamp DESC
		LIMIT $2
	`, tenantID, limit); err != nil {
		return nil, storeErr(err)
	}
	return toMessages(rows), nil
}

func toMessages(rows []messageRow) []model.Message {
	out := make([]model.Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out
}
