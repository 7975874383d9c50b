package mysqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/space-reservation/internal/model"
	"github.com/iliyamo/space-reservation/internal/repository"
)

// ResourceRepo provides persistence for resources and the space_resources
// join table.
type ResourceRepo struct {
	db *sql.DB
}

func (r *ResourceRepo) Create(ctx context.Context, res *model.Resource) error {
	const q = `INSERT INTO resources (name, description) VALUES (?, ?)`
	out, err := r.db.ExecContext(ctx, q, res.Name, res.Description)
	if err != nil {
		return mapError(err)
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

func (r *ResourceRepo) GetByID(ctx context.Context, id uint64) (*model.Resource, error) {
	const q = `SELECT id, name, description FROM resources WHERE id = ?`
	var res model.Resource
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&res.ID, &res.Name, &res.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *ResourceRepo) List(ctx context.Context) ([]model.Resource, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description FROM resources ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Resource{}
	for rows.Next() {
		var res model.Resource
		if err := rows.Scan(&res.ID, &res.Name, &res.Description); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *ResourceRepo) Update(ctx context.Context, res *model.Resource) error {
	const q = `UPDATE resources SET name = ?, description = ? WHERE id = ?`
	out, err := r.db.ExecContext(ctx, q, res.Name, res.Description, res.ID)
	if err != nil {
		return mapError(err)
	}
	return checkAffected(ctx, r.db, out, `SELECT 1 FROM resources WHERE id = ?`, res.ID)
}

// Delete removes a resource; its space links go with it (ON DELETE CASCADE).
func (r *ResourceRepo) Delete(ctx context.Context, id uint64) error {
	out, err := r.db.ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	if n, _ := out.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Attach upserts the (space, resource) link.  Unknown space, resource or
// status ids yield repository.ErrConflict.
func (r *ResourceRepo) Attach(ctx context.Context, link model.SpaceResource) error {
	const q = `INSERT INTO space_resources (space_id, resource_id, status_id) VALUES (?, ?, ?)
	           ON DUPLICATE KEY UPDATE status_id = VALUES(status_id)`
	if _, err := r.db.ExecContext(ctx, q, link.SpaceID, link.ResourceID, link.StatusID); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *ResourceRepo) Detach(ctx context.Context, spaceID, resourceID uint64) error {
	out, err := r.db.ExecContext(ctx, `DELETE FROM space_resources WHERE space_id = ? AND resource_id = ?`, spaceID, resourceID)
	if err != nil {
		return mapError(err)
	}
	if n, _ := out.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListBySpace returns the links of a space ordered by resource id.
func (r *ResourceRepo) ListBySpace(ctx context.Context, spaceID uint64) ([]model.SpaceResource, error) {
	const q = `SELECT space_id, resource_id, status_id FROM space_resources WHERE space_id = ? ORDER BY resource_id`
	rows, err := r.db.QueryContext(ctx, q, spaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.SpaceResource{}
	for rows.Next() {
		var l model.SpaceResource
		if err := rows.Scan(&l.SpaceID, &l.ResourceID, &l.StatusID); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
