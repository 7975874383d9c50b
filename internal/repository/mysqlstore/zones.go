package mysqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/space-reservation/internal/model"
	"github.com/iliyamo/space-reservation/internal/repository"
)

// ZoneRepo provides persistence for zones.
type ZoneRepo struct {
	db *sql.DB
}

// Create inserts a zone and sets its generated ID.
func (r *ZoneRepo) Create(ctx context.Context, z *model.Zone) error {
	const q = `INSERT INTO zones (name) VALUES (?)`
	res, err := r.db.ExecContext(ctx, q, z.Name)
	if err != nil {
		return mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	z.ID = uint64(id)
	return nil
}

// GetByID returns repository.ErrNotFound when the zone does not exist.
func (r *ZoneRepo) GetByID(ctx context.Context, id uint64) (*model.Zone, error) {
	const q = `SELECT id, name FROM zones WHERE id = ?`
	var z model.Zone
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&z.ID, &z.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &z, nil
}

// List returns every zone ordered by name.
func (r *ZoneRepo) List(ctx context.Context) ([]model.Zone, error) {
	const q = `SELECT id, name FROM zones ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, q)
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

// Update renames a zone.
func (r *ZoneRepo) Update(ctx context.Context, z *model.Zone) error {
	const q = `UPDATE zones SET name = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, z.Name, z.ID)
	if err != nil {
		return mapError(err)
	}
	return checkAffected(ctx, r.db, res, `SELECT 1 FROM zones WHERE id = ?`, z.ID)
}

// Delete removes a zone.  Zones that still contain spaces cannot be
// removed and yield repository.ErrConflict.
func (r *ZoneRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM zones WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Count returns the number of zones.
func (r *ZoneRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM zones`)
}
