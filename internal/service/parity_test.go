package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/space-reservation/internal/model"
	"github.com/iliyamo/space-reservation/internal/repository/mysqlstore"
	"github.com/iliyamo/space-reservation/internal/schedule"
)

// The same rows, served by either backend, must yield the same conflicts.
func TestConflictDecisionIsBackendIndependent(t *testing.T) {
	ctx := context.Background()
	day := schedule.Date{Year: 2025, Month: time.March, Day: 10}
	seed := []struct {
		status     uint64
		start, end string
	}{
		{model.StatusReservationConfirmed, "09:00", "10:00"},
		{model.StatusReservationCancelled, "10:00", "11:00"},
		{model.StatusReservationPending, "11:30", "12:00"},
	}

	dyn := newTestStore(t)
	space := &model.Space{Number: 1}
	require.NoError(t, dyn.Spaces().Create(ctx, space))
	for _, r := range seed {
		require.NoError(t, dyn.Reservations().Create(ctx, &model.Reservation{
			SpaceID:  space.ID,
			StatusID: r.status,
			Date:     day,
			Start:    schedule.MustClock(r.start),
			End:      schedule.MustClock(r.end),
		}))
	}

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	sqlSvc := NewReservationService(mysqlstore.New(db), nil, nil)
	dynSvc := NewReservationService(dyn, nil, nil)

	rows := func() *sqlmock.Rows {
		out := sqlmock.NewRows([]string{"id", "space_id", "user_rut", "responsible_rut", "status_id",
			"reservation_date", "start_time", "end_time", "notes", "created_at", "updated_at"})
		now := time.Now()
		for i, r := range seed {
			out.AddRow(i+1, space.ID, nil, nil, r.status, day.Time(), r.start+":00", r.end+":00", "", now, now)
		}
		return out
	}

	candidates := []struct {
		start, end string
		want       []uint64
	}{
		{"09:00", "10:00", []uint64{1}},
		{"09:59", "10:30", []uint64{1}},
		{"10:00", "11:00", nil},
		{"10:30", "11:45", []uint64{3}},
		{"08:00", "13:00", []uint64{1, 3}},
		{"12:00", "13:00", nil},
	}
	ids := func(rs []model.Reservation) []uint64 {
		var out []uint64
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}

	for _, c := range candidates {
		check := ConflictCheck{SpaceID: space.ID, Date: day.String(), StartTime: c.start, EndTime: c.end}

		mock.ExpectQuery("FROM reservations").
			WithArgs(space.ID, day.String()).
			WillReturnRows(rows())
		fromSQL, err := sqlSvc.CheckConflicts(ctx, check)
		require.NoError(t, err)

		fromDynamo, err := dynSvc.CheckConflicts(ctx, check)
		require.NoError(t, err)

		assert.Equal(t, c.want, ids(fromSQL), "mysql %s-%s", c.start, c.end)
		assert.Equal(t, c.want, ids(fromDynamo), "dynamodb %s-%s", c.start, c.end)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
