package repo

import (
	"context"

	"github.com/LeventeLantos/condo-messaging/internal/model"
)

type residentRow struct {
	ID       string `db:"id"`
	TenantID string `db:"condominio_id"`
	Name     string `db:"nome"`
	Phone    string `db:"telefone"`
}

func (r residentRow) toModel() model.Resident {
	return model.Resident{ID: r.ID, TenantID: r.TenantID, Name: r.Name, Phone: r.Phone}
}

func (s *PostgresStore) GetResident(ctx context.Context, id string) (model.Resident, error) {
	var row residentRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id::text AS id, condominio_id::text AS condominio_id, nome, telefone
		FROM moradores
		WHERE id = $1
	`, id)
	if err != nil {
		return model.Resident{}, storeErr(err)
	}
	return row.toModel(), nil
}

// FindResidentByPhone matches the stored local-form phone exactly. When the
// same number is registered in several tenants the oldest row wins.
func (s *PostgresStore) FindResidentByPhone(ctx context.Context, localPhone string) (model.Resident, error) {
	var row residentRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id::text AS id, condominio_id::text AS condominio_id, nome, telefone
		FROM moradores
		WHERE telefone = $1
		ORDER BY created_at ASC
		LIMIT 1
	`, localPhone)
	if err != nil {
		return model.Resident{}, storeErr(err)
	}
	return row.toModel(), nil
}
