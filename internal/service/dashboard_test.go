package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/space-reservation/internal/model"
	"github.com/iliyamo/space-reservation/internal/repository"
	"github.com/iliyamo/space-reservation/internal/schedule"
)

func TestDashboardSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	zone := &model.Zone{Name: "Main"}
	require.NoError(t, store.Zones().Create(ctx, zone))
	avail, maint := model.StatusSpaceAvailable, model.StatusSpaceMaintenance
	spaces := []*model.Space{
		{ZoneID: &zone.ID, Number: 1, StatusID: &avail},
		{ZoneID: &zone.ID, Number: 2, StatusID: &avail},
		{ZoneID: &zone.ID, Number: 3, StatusID: &maint},
	}
	for _, sp := range spaces {
		require.NoError(t, store.Spaces().Create(ctx, sp))
	}
	require.NoError(t, store.Users().Create(ctx, &model.User{RUT: "1-9"}))

	// Wednesday 2025-03-12, 10:15 UTC.
	now := time.Date(2025, 3, 12, 10, 15, 0, 0, time.UTC)
	today := schedule.DateOf(now)
	add := func(spaceID uint64, date schedule.Date, start, end string, status uint64) {
		require.NoError(t, store.Reservations().Create(ctx, &model.Reservation{
			SpaceID: spaceID, StatusID: status, Date: date,
			Start: schedule.MustClock(start), End: schedule.MustClock(end),
		}))
	}
	add(spaces[0].ID, today, "10:00", "11:00", model.StatusReservationConfirmed)
	add(spaces[1].ID, today, "08:00", "09:00", model.StatusReservationConfirmed)
	add(spaces[1].ID, today, "10:00", "12:00", model.StatusReservationCancelled)
	add(spaces[0].ID, schedule.Date{Year: 2025, Month: time.January, Day: 20}, "09:00", "10:00", model.StatusReservationFinished)
	add(spaces[0].ID, schedule.Date{Year: 2024, Month: time.June, Day: 1}, "09:00", "10:00", model.StatusReservationFinished)

	svc := NewDashboardService(store, time.UTC)
	svc.now = func() time.Time { return now }
	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, "dynamodb", snap.Backend)
	assert.Equal(t, Totals{Spaces: 3, Reservations: 5, Users: 1, Zones: 1}, snap.Totals)
	assert.Equal(t, map[string]int{"available": 2, "maintenance": 1}, snap.SpacesByStatus)

	require.Len(t, snap.ReservationsByMonth, 6)
	assert.Equal(t, MonthCount{Month: "2024-10", Count: 0}, snap.ReservationsByMonth[0])
	assert.Equal(t, MonthCount{Month: "2025-01", Count: 1}, snap.ReservationsByMonth[3])
	assert.Equal(t, MonthCount{Month: "2025-03", Count: 3}, snap.ReservationsByMonth[5])

	assert.Equal(t, 2, snap.TodayReservations)
	assert.Equal(t, 67, snap.OccupancyPercent)
	require.Len(t, snap.OccupiedNow, 1)
	assert.Equal(t, spaces[0].ID, snap.OccupiedNow[0].SpaceID)
	assert.Equal(t, "11:00", snap.OccupiedNow[0].EndTime)

	require.Len(t, snap.Week, 7)
	assert.Equal(t, "Sun", snap.Week[0].Weekday)
	assert.Equal(t, "2025-03-09", snap.Week[0].Date)
	assert.Equal(t, 2, snap.Week[3].Count)

	require.Len(t, snap.Recent, 5)
	assert.Equal(t, "2025-03-12", snap.Recent[0].Date.String())
}

func TestDashboardSnapshotEmptyStore(t *testing.T) {
	svc := NewDashboardService(newTestStore(t), time.UTC)
	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Zero(t, snap.OccupancyPercent)
	assert.NotNil(t, snap.OccupiedNow)
	assert.Empty(t, snap.SpacesByStatus)
}

func TestZoneStats(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	zone := &model.Zone{Name: "Library"}
	require.NoError(t, store.Zones().Create(ctx, zone))
	first := &model.Space{ZoneID: &zone.ID, Number: 1}
	second := &model.Space{ZoneID: &zone.ID, Number: 2}
	outside := &model.Space{Number: 9}
	for _, sp := range []*model.Space{second, first, outside} {
		require.NoError(t, store.Spaces().Create(ctx, sp))
	}

	march := func(day int) schedule.Date { return schedule.Date{Year: 2025, Month: time.March, Day: day} }
	add := func(spaceID uint64, date schedule.Date, start string, status uint64) {
		clock := schedule.MustClock(start)
		require.NoError(t, store.Reservations().Create(ctx, &model.Reservation{
			SpaceID: spaceID, StatusID: status, Date: date, Start: clock, End: clock + 60,
		}))
	}
	add(second.ID, march(3), "09:00", model.StatusReservationConfirmed)
	add(second.ID, march(4), "09:00", model.StatusReservationFinished)
	add(second.ID, march(5), "09:00", model.StatusReservationCancelled)
	add(first.ID, march(4), "10:00", model.StatusReservationPending)
	add(first.ID, march(20), "10:00", model.StatusReservationConfirmed)
	add(outside.ID, march(4), "10:00", model.StatusReservationConfirmed)

	svc := NewDashboardService(store, time.UTC)
	from, to := march(1), march(10)
	stats, err := svc.ZoneStats(ctx, zone.ID, &from, &to)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", stats.From)
	assert.Equal(t, 2, stats.TotalSpaces)
	assert.Equal(t, 3, stats.TotalReservations)
	assert.InDelta(t, 1.5, stats.AveragePerSpace, 1e-9)
	require.NotNil(t, stats.BusiestSpace)
	assert.Equal(t, second.ID, stats.BusiestSpace.SpaceID)
	require.Len(t, stats.BySpace, 2)
	assert.Equal(t, 1, stats.BySpace[0].Number)
	assert.Equal(t, 1, stats.BySpace[0].Reservations)

	all, err := svc.ZoneStats(ctx, zone.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, all.TotalReservations)
	assert.Equal(t, first.ID, all.BusiestSpace.SpaceID, "ties go to the lower number")

	empty := &model.Zone{Name: "Empty"}
	require.NoError(t, store.Zones().Create(ctx, empty))
	none, err := svc.ZoneStats(ctx, empty.ID, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, none.TotalSpaces)
	assert.Nil(t, none.BusiestSpace)
	assert.Empty(t, none.BySpace)

	_, err = svc.ZoneStats(ctx, 404, nil, nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = svc.ZoneStats(ctx, zone.ID, &to, &from)
	assert.ErrorIs(t, err, ErrValidation)
}
