package mysqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/space-reservation/internal/model"
	"github.com/iliyamo/space-reservation/internal/repository"
	"github.com/iliyamo/space-reservation/internal/schedule"
)

// UserRepo provides persistence for users.
type UserRepo struct {
	db *sql.DB
}

// birthDate converts a nullable DATE column into the model's optional string.
func birthDate(v sql.NullTime) *string {
	if !v.Valid {
		return nil
	}
	s := schedule.DateOf(v.Time).String()
	return &s
}

// Create inserts a user.  A RUT already on record yields repository.ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `INSERT INTO users (rut, first_name, last_name, birth_date) VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, u.RUT, u.FirstName, u.LastName, u.BirthDate); err != nil {
		return mapError(err)
	}
	return nil
}

// GetByRUT returns repository.ErrNotFound when no user has that RUT.
func (r *UserRepo) GetByRUT(ctx context.Context, rut string) (*model.User, error) {
	const q = `SELECT rut, first_name, last_name, birth_date FROM users WHERE rut = ?`
	var (
		u  model.User
		bd sql.NullTime
	)
	if err := r.db.QueryRowContext(ctx, q, rut).Scan(&u.RUT, &u.FirstName, &u.LastName, &bd); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	u.BirthDate = birthDate(bd)
	return &u, nil
}

// List returns every user ordered by last name.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	const q = `SELECT rut, first_name, last_name, birth_date FROM users ORDER BY last_name, first_name, rut`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		var (
			u  model.User
			bd sql.NullTime
		)
		if err := rows.Scan(&u.RUT, &u.FirstName, &u.LastName, &bd); err != nil {
			return nil, err
		}
		u.BirthDate = birthDate(bd)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	const q = `UPDATE users SET first_name = ?, last_name = ?, birth_date = ? WHERE rut = ?`
	res, err := r.db.ExecContext(ctx, q, u.FirstName, u.LastName, u.BirthDate, u.RUT)
	if err != nil {
		return mapError(err)
	}
	return checkAffected(ctx, r.db, res, `SELECT 1 FROM users WHERE rut = ?`, u.RUT)
}

// Delete removes a user.  Users holding reservations yield repository.ErrConflict.
func (r *UserRepo) Delete(ctx context.Context, rut string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE rut = ?`, rut)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM users`)
}

// ResponsibleRepo provides persistence for responsibles.
type ResponsibleRepo struct {
	db *sql.DB
}

const responsibleColumns = `rut, activity_type_id, first_name, last_name, birth_date`

func scanResponsible(sc interface{ Scan(...any) error }, p *model.Responsible) error {
	var bd sql.NullTime
	if err := sc.Scan(&p.RUT, &p.ActivityTypeID, &p.FirstName, &p.LastName, &bd); err != nil {
		return err
	}
	p.BirthDate = birthDate(bd)
	return nil
}

func (r *ResponsibleRepo) Create(ctx context.Context, p *model.Responsible) error {
	const q = `INSERT INTO responsibles (rut, activity_type_id, first_name, last_name, birth_date) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, p.RUT, p.ActivityTypeID, p.FirstName, p.LastName, p.BirthDate); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *ResponsibleRepo) GetByRUT(ctx context.Context, rut string) (*model.Responsible, error) {
	var p model.Responsible
	err := scanResponsible(r.db.QueryRowContext(ctx, `SELECT `+responsibleColumns+` FROM responsibles WHERE rut = ?`, rut), &p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ResponsibleRepo) List(ctx context.Context) ([]model.Responsible, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+responsibleColumns+` FROM responsibles ORDER BY last_name, first_name, rut`)
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

func (r *ResponsibleRepo) Update(ctx context.Context, p *model.Responsible) error {
	const q = `UPDATE responsibles SET activity_type_id = ?, first_name = ?, last_name = ?, birth_date = ? WHERE rut = ?`
	res, err := r.db.ExecContext(ctx, q, p.ActivityTypeID, p.FirstName, p.LastName, p.BirthDate, p.RUT)
	if err != nil {
		return mapError(err)
	}
	return checkAffected(ctx, r.db, res, `SELECT 1 FROM responsibles WHERE rut = ?`, p.RUT)
}

func (r *ResponsibleRepo) Delete(ctx context.Context, rut string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM responsibles WHERE rut = ?`, rut)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
