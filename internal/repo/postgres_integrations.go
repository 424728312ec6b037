package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/LeventeLantos/condo-messaging/internal/model"
)

type integrationRow struct {
	ID             string         `db:"id"`
	TenantID       string         `db:"condominio_id"`
	Provider       string         `db:"provider"`
	ZAPIInstanceID sql.NullString `db:"zapi_instance_id"`
	PhoneNumberID  sql.NullString `db:"phone_number_id"`
	DisplayName    sql.NullString `db:"display_name"`
	Status         string         `db:"status"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (r integrationRow) toModel() model.Integration {
	return model.Integration{
		ID:             r.ID,
		TenantID:       r.TenantID,
		Provider:       model.Provider(r.Provider),
		ZAPIInstanceID: r.ZAPIInstanceID.String,
		PhoneNumberID:  r.PhoneNumberID.String,
		DisplayName:    r.DisplayName.String,
		Status:         model.IntegrationStatus(r.Status),
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

const integrationColumns = `id::text AS id, condominio_id::text AS condominio_id, provider,
	zapi_instance_id, phone_number_id, display_name, status, created_at, updated_at`

func (s *PostgresStore) GetIntegration(ctx context.Context, tenantID string) (model.Integration, error) {
	var row integrationRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+integrationColumns+`
		FROM whatsapp_integrations
		WHERE condominio_id = $1
		LIMIT 1
	`, tenantID)
	if err != nil {
		return model.Integration{}, storeErr(err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) ListIntegrations(ctx context.Context, provider model.Provider) ([]model.Integration, error) {
	var rows []integrationRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT `+integrationColumns+`
		FROM whatsapp_integrations
		WHERE provider = $1
		ORDER BY created_at ASC
	`, string(provider)); err != nil {
		return nil, storeErr(err)
	}

	out := make([]model.Integration, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// SaveIntegration upserts the tenant's single integration row.
func (s *PostgresStore) SaveIntegration(ctx context.Context, in *model.Integration) error {
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO whatsapp_integrations
			(id, condominio_id, provider, zapi_instance_id, phone_number_id, display_name, status, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8)
		ON CONFLICT (condominio_id) DO UPDATE
		SET provider = EXCLUDED.provider,
		    zapi_instance_id = EXCLUDED.zapi_instance_id,
		    phone_number_id = EXCLUDED.phone_number_id,
		    display_name = EXCLUDED.display_name,
		    status = EXCLUDED.status,
		    updated_at = EXCLUDED.updated_at
		RETURNING id::text, created_at
	`, in.ID, in.TenantID, string(in.Provider), in.ZAPIInstanceID, in.PhoneNumberID,
		in.DisplayName, string(in.Status), in.UpdatedAt.UTC(),
	).Scan(&in.ID, &in.CreatedAt)
	return storeErr(err)
}

func (s *PostgresStore) SetIntegrationStatus(ctx context.Context, tenantID string, status model.IntegrationStatus, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE whatsapp_integrations
		SET status = $2, updated_at = $3
		WHERE condominio_id = $1
	`, tenantID, string(status), at.UTC())
	return storeErr(err)
}

func (s *PostgresStore) SetInstanceStatus(ctx context.Context, instanceID string, status model.IntegrationStatus, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE whatsapp_integrations
		SET status = $2, updated_at = $3
		WHERE zapi_instance_id = $1
	`, instanceID, string(status), at.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
