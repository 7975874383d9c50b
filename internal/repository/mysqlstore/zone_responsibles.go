package mysqlstore

import (
	"context"
	"database/sql"

	"github.com/iliyamo/space-reservation/internal/model"
	"github.com/iliyamo/space-reservation/internal/repository"
)

// ZoneResponsibleRepo provides persistence for the zone_responsibles join
// table.  Foreign keys cascade deletes of either side.
type ZoneResponsibleRepo struct {
	db *sql.DB
}

// Assign inserts the pair, leaving an existing one untouched.
func (r *ZoneResponsibleRepo) Assign(ctx context.Context, a model.ZoneResponsible) error {
	const q = `INSERT INTO zone_responsibles (zone_id, responsible_rut) VALUES (?, ?)
	           ON DUPLICATE KEY UPDATE responsible_rut = VALUES(responsible_rut)`
	if _, err := r.db.ExecContext(ctx, q, a.ZoneID, a.ResponsibleRUT); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *ZoneResponsibleRepo) Unassign(ctx context.Context, a model.ZoneResponsible) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM zone_responsibles WHERE zone_id = ? AND responsible_rut = ?`, a.ZoneID, a.ResponsibleRUT)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ZoneResponsibleRepo) ListByZone(ctx context.Context, zoneID uint64) ([]model.Responsible, error) {
	const q = `SELECT r.rut, r.activity_type_id, r.first_name, r.last_name, r.birth_date
	           FROM zone_responsibles zr JOIN responsibles r ON r.rut = zr.responsible_rut
	           WHERE zr.zone_id = ? ORDER BY r.last_name, r.first_name, r.rut`
	rows, err := r.db.QueryContext(ctx, q, zoneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Responsible{}
	for rows.Next() {
		var p model.Responsible
		if err := scanResponsible(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ZoneResponsibleRepo) ListByResponsible(ctx context.Context, rut string) ([]model.Zone, error) {
	const q = `SELECT z.id, z.name
	           FROM zone_responsibles zr JOIN zones z ON z.id = zr.zone_id
	           WHERE zr.responsible_rut = ? ORDER BY z.name, z.id`
	rows, err := r.db.QueryContext(ctx, q, rut)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Zone{}
	for rows.Next() {
		var z model.Zone
		if err := rows.Scan(&z.ID, &z.Name); err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	return out, rows.Err()
}
