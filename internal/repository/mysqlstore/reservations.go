package mysqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/iliyamo/space-reservation/internal/model"
	"github.com/iliyamo/space-reservation/internal/repository"
	"github.com/iliyamo/space-reservation/internal/schedule"
)

const reservationColumns = `id, space_id, user_rut, responsible_rut, status_id, reservation_date, start_time, end_time, notes, created_at, updated_at`

// ReservationRepo provides persistence for reservations.  Overlap checks
// are not performed here.
type ReservationRepo struct {
	db *sql.DB
}

func scanReservation(sc interface{ Scan(...any) error }, r *model.Reservation) error {
	var (
		date       time.Time
		start, end string
	)
	if err := sc.Scan(&r.ID, &r.SpaceID, &r.UserRUT, &r.ResponsibleRUT, &r.StatusID,
		&date, &start, &end, &r.Notes, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return err
	}
	r.Date = schedule.DateOf(date)
	var err error
	if r.Start, err = schedule.ParseClock(start); err != nil {
		return fmt.Errorf("reservation %d start_time: %w", r.ID, err)
	}
	if r.End, err = schedule.ParseClock(end); err != nil {
		return fmt.Errorf("reservation %d end_time: %w", r.ID, err)
	}
	return nil
}

// Create inserts a reservation and reloads it so the timestamps set by the
// database are populated.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations (space_id, user_rut, responsible_rut, status_id, reservation_date, start_time, end_time, notes)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	out, err := r.db.ExecContext(ctx, q, res.SpaceID, res.UserRUT, res.ResponsibleRUT, res.StatusID,
		res.Date.String(), res.Start.SQL(), res.End.SQL(), res.Notes)
	if err != nil {
		return mapError(err)
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	fresh, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*res = *fresh
	return nil
}

// GetByID returns repository.ErrNotFound when the reservation does not exist.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	var res model.Reservation
	if err := scanReservation(r.db.QueryRowContext(ctx, q, id), &res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

// ListBySpaceAndDate uses the (space_id, reservation_date) index.
func (r *ReservationRepo) ListBySpaceAndDate(ctx context.Context, spaceID uint64, date schedule.Date) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + `
	      FROM reservations
	      WHERE space_id = ? AND reservation_date = ?
	      ORDER BY start_time, id`
	return r.query(ctx, q, spaceID, date.String())
}

// List applies the filter in SQL and returns one page plus the total.
func (r *ReservationRepo) List(ctx context.Context, f repository.ReservationFilter) ([]model.Reservation, int, error) {
	f = f.Normalize()
	if f.SpaceIDs != nil && len(f.SpaceIDs) == 0 {
		return []model.Reservation{}, 0, nil
	}
	where, args := buildWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit := uint64(f.Limit)
	if f.Limit == repository.Unlimited {
		limit = math.MaxUint64
	}
	q := `SELECT ` + reservationColumns + ` FROM reservations` + where +
		` ORDER BY reservation_date DESC, start_time DESC, id DESC LIMIT ? OFFSET ?`
	items, err := r.query(ctx, q, append(args, limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// buildWhere renders the filter as a WHERE clause, or "" when the filter
// has no constraint.
func buildWhere(f repository.ReservationFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.SpaceID != 0 {
		conds = append(conds, "space_id = ?")
		args = append(args, f.SpaceID)
	}
	if len(f.SpaceIDs) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?,", len(f.SpaceIDs)), ",")
		conds = append(conds, "space_id IN ("+marks+")")
		for _, id := range f.SpaceIDs {
			args = append(args, id)
		}
	}
	if f.StatusID != 0 {
		conds = append(conds, "status_id = ?")
		args = append(args, f.StatusID)
	}
	if f.UserRUT != "" {
		conds = append(conds, "user_rut = ?")
		args = append(args, f.UserRUT)
	}
	if f.ResponsibleRUT != "" {
		conds = append(conds, "responsible_rut = ?")
		args = append(args, f.ResponsibleRUT)
	}
	if f.From != nil {
		conds = append(conds, "reservation_date >= ?")
		args = append(args, f.From.String())
	}
	if f.To != nil {
		conds = append(conds, "reservation_date <= ?")
		args = append(args, f.To.String())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *ReservationRepo) query(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Reservation{}
	for rows.Next() {
		var res model.Reservation
		if err := scanReservation(rows, &res); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// Update overwrites the booking fields of a reservation.
func (r *ReservationRepo) Update(ctx context.Context, res *model.Reservation) error {
	const q = `UPDATE reservations
	           SET space_id = ?, user_rut = ?, responsible_rut = ?, status_id = ?, reservation_date = ?,
	               start_time = ?, end_time = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	out, err := r.db.ExecContext(ctx, q, res.SpaceID, res.UserRUT, res.ResponsibleRUT, res.StatusID,
		res.Date.String(), res.Start.SQL(), res.End.SQL(), res.Notes, res.ID)
	if err != nil {
		return mapError(err)
	}
	return checkAffected(ctx, r.db, out, `SELECT 1 FROM reservations WHERE id = ?`, res.ID)
}

// UpdateStatus changes only the status column.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id, statusID uint64) error {
	const q = `UPDATE reservations SET status_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	out, err := r.db.ExecContext(ctx, q, statusID, id)
	if err != nil {
		return mapError(err)
	}
	return checkAffected(ctx, r.db, out, `SELECT 1 FROM reservations WHERE id = ?`, id)
}

// Delete removes a reservation.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	out, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	if n, _ := out.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Count returns the number of reservations.
func (r *ReservationRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM reservations`)
}
