// Package mysqlstore implements repository.Store on MySQL.  Every lookup
// uses the primary key or a secondary index declared in the migrations;
// referential integrity is enforced by foreign keys and surfaced as
// repository.ErrConflict.
package mysqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/space-reservation/internal/repository"
)

// MySQL server error numbers mapped to repository sentinels.
const (
	errDupEntry         = 1062
	errRowIsReferenced  = 1451
	errNoReferencedRow  = 1452
	errRowIsReferenced2 = 1217
	errNoReferencedRow2 = 1216
)

// Store bundles the table repositories sharing one *sql.DB.
type Store struct {
	db *sql.DB

	zones         *ZoneRepo
	spaces        *SpaceRepo
	reservations  *ReservationRepo
	users         *UserRepo
	responsibles  *ResponsibleRepo
	assignments   *ZoneResponsibleRepo
	resources     *ResourceRepo
	activityTypes *ActivityTypeRepo
	statuses      *StatusRepo
}

var _ repository.Store = (*Store)(nil)

// New wraps an open connection.  The schema must already be migrated.
func New(db *sql.DB) *Store {
	return &Store{
		db:            db,
		zones:         &ZoneRepo{db: db},
		spaces:        &SpaceRepo{db: db},
		reservations:  &ReservationRepo{db: db},
		users:         &UserRepo{db: db},
		responsibles:  &ResponsibleRepo{db: db},
		assignments:   &ZoneResponsibleRepo{db: db},
		resources:     &ResourceRepo{db: db},
		activityTypes: &ActivityTypeRepo{db: db},
		statuses:      &StatusRepo{db: db},
	}
}

func (s *Store) Zones() repository.ZoneRepository                 { return s.zones }
func (s *Store) Spaces() repository.SpaceRepository               { return s.spaces }
func (s *Store) Reservations() repository.ReservationRepository   { return s.reservations }
func (s *Store) Users() repository.UserRepository                 { return s.users }
func (s *Store) Responsibles() repository.ResponsibleRepository   { return s.responsibles }
func (s *Store) Resources() repository.ResourceRepository         { return s.resources }
func (s *Store) ActivityTypes() repository.ActivityTypeRepository { return s.activityTypes }
func (s *Store) Statuses() repository.StatusRepository            { return s.statuses }

func (s *Store) ZoneResponsibles() repository.ZoneResponsibleRepository { return s.assignments }

// Backend returns repository.BackendMySQL.
func (s *Store) Backend() string { return repository.BackendMySQL }

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// mapError translates constraint violations into repository sentinels and
// leaves every other error untouched.
func mapError(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case errDupEntry:
			return fmt.Errorf("%w: %s", repository.ErrDuplicate, me.Message)
		case errRowIsReferenced, errNoReferencedRow, errRowIsReferenced2, errNoReferencedRow2:
			return fmt.Errorf("%w: %s", repository.ErrConflict, me.Message)
		}
	}
	return err
}

// checkAffected returns repository.ErrNotFound when an UPDATE or DELETE
// touched no row and the row does not exist.  MySQL reports zero affected
// rows for updates that change nothing, so existence is checked separately.
func checkAffected(ctx context.Context, db *sql.DB, res sql.Result, existsQuery string, key any) error {
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	var one int
	if err := db.QueryRowContext(ctx, existsQuery, key).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		return err
	}
	return nil
}

// count runs a SELECT COUNT(*) query.
func count(ctx context.Context, db *sql.DB, q string) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
