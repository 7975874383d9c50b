package mysqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/space-reservation/internal/model"
	"github.com/iliyamo/space-reservation/internal/repository"
)

const spaceColumns = `id, zone_id, number, status_id, activity`

// SpaceRepo provides persistence for spaces.
type SpaceRepo struct {
	db *sql.DB
}

func scanSpace(sc interface{ Scan(...any) error }, s *model.Space) error {
	return sc.Scan(&s.ID, &s.ZoneID, &s.Number, &s.StatusID, &s.Activity)
}

// Create inserts a space.  A zone_id or status_id that does not exist
// yields repository.ErrConflict; a number already used in the zone yields
// repository.ErrDuplicate.
func (r *SpaceRepo) Create(ctx context.Context, s *model.Space) error {
	const q = `INSERT INTO spaces (zone_id, number, status_id, activity) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.ZoneID, s.Number, s.StatusID, s.Activity)
	if err != nil {
		return mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID returns repository.ErrNotFound when the space does not exist.
func (r *SpaceRepo) GetByID(ctx context.Context, id uint64) (*model.Space, error) {
	q := `SELECT ` + spaceColumns + ` FROM spaces WHERE id = ?`
	var s model.Space
	if err := scanSpace(r.db.QueryRowContext(ctx, q, id), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List returns every space ordered by id.
func (r *SpaceRepo) List(ctx context.Context) ([]model.Space, error) {
	return r.query(ctx, `SELECT `+spaceColumns+` FROM spaces ORDER BY id`)
}

// ListByZone returns the spaces of a zone ordered by number.
func (r *SpaceRepo) ListByZone(ctx context.Context, zoneID uint64) ([]model.Space, error) {
	return r.query(ctx, `SELECT `+spaceColumns+` FROM spaces WHERE zone_id = ? ORDER BY number, id`, zoneID)
}

func (r *SpaceRepo) query(ctx context.Context, q string, args ...any) ([]model.Space, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Space{}
	for rows.Next() {
		var s model.Space
		if err := scanSpace(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update overwrites every column of the space.
func (r *SpaceRepo) Update(ctx context.Context, s *model.Space) error {
	const q = `UPDATE spaces SET zone_id = ?, number = ?, status_id = ?, activity = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, s.ZoneID, s.Number, s.StatusID, s.Activity, s.ID)
	if err != nil {
		return mapError(err)
	}
	return checkAffected(ctx, r.db, res, `SELECT 1 FROM spaces WHERE id = ?`, s.ID)
}

// Delete removes a space and its resource links.  Spaces with reservations
// yield repository.ErrConflict.
func (r *SpaceRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM spaces WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Count returns the number of spaces.
func (r *SpaceRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM spaces`)
}
