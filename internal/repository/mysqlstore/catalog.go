package mysqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/space-reservation/internal/model"
	"github.com/iliyamo/space-reservation/internal/repository"
)

// ActivityTypeRepo provides persistence for activity types.
type ActivityTypeRepo struct {
	db *sql.DB
}

func (r *ActivityTypeRepo) Create(ctx context.Context, a *model.ActivityType) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO activity_types (name) VALUES (?)`, a.Name)
	if err != nil {
		return mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

func (r *ActivityTypeRepo) GetByID(ctx context.Context, id uint64) (*model.ActivityType, error) {
	var a model.ActivityType
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM activity_types WHERE id = ?`, id).Scan(&a.ID, &a.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *ActivityTypeRepo) List(ctx context.Context) ([]model.ActivityType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM activity_types ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ActivityType{}
	for rows.Next() {
		var a model.ActivityType
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Delete removes an activity type still unused by any responsible.
func (r *ActivityTypeRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM activity_types WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// StatusRepo reads the seeded statuses table.
type StatusRepo struct {
	db *sql.DB
}

func (r *StatusRepo) GetByID(ctx context.Context, id uint64) (*model.Status, error) {
	var s model.Status
	err := r.db.QueryRowContext(ctx, `SELECT id, scope, name FROM statuses WHERE id = ?`, id).Scan(&s.ID, &s.Scope, &s.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *StatusRepo) List(ctx context.Context) ([]model.Status, error) {
	return r.query(ctx, `SELECT id, scope, name FROM statuses ORDER BY id`)
}

func (r *StatusRepo) ListByScope(ctx context.Context, scope model.StatusScope) ([]model.Status, error) {
	return r.query(ctx, `SELECT id, scope, name FROM statuses WHERE scope = ? ORDER BY id`, string(scope))
}

func (r *StatusRepo) query(ctx context.Context, q string, args ...any) ([]model.Status, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Status{}
	for rows.Next() {
		var s model.Status
		if err := rows.Scan(&s.ID, &s.Scope, &s.Name); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
