package dynamostore_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/space-reservation/internal/model"
	"github.com/iliyamo/space-reservation/internal/repository"
	"github.com/iliyamo/space-reservation/internal/repository/dynamostore"
	"github.com/iliyamo/space-reservation/internal/repository/dynamostore/dynamotest"
	"github.com/iliyamo/space-reservation/internal/schedule"
)

func newStore(t *testing.T) (*dynamostore.Store, *dynamotest.Fake) {
	t.Helper()
	fake := dynamotest.New()
	fake.PageSize = 2
	s := dynamostore.New(fake, "test_")
	require.NoError(t, s.EnsureTables(context.Background(), time.Second))
	return s, fake
}

func ptr[T any](v T) *T { return &v }

func TestEnsureTablesIsIdempotentAndSeeds(t *testing.T) {
	s, fake := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.EnsureTables(ctx, time.Second))
	assert.Equal(t, len(model.DefaultStatuses()), fake.Len("test_statuses"))

	st, err := s.Statuses().ListByScope(ctx, model.ScopeReservation)
	require.NoError(t, err)
	require.Len(t, st, 4)
	assert.Equal(t, "cancelled", st[2].Name)
	assert.NoError(t, s.Ping(ctx))
}

func TestCountersAreMonotonicUnderConcurrency(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	const n = 20
	ids := make(chan uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			z := &model.Zone{Name: "z"}
			if assert.NoError(t, s.Zones().Create(ctx, z)) {
				ids <- z.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[uint64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
	c, err := s.Zones().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, c)
}

func TestSpaceRules(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	zone := &model.Zone{Name: "Library"}
	require.NoError(t, s.Zones().Create(ctx, zone))

	sp := &model.Space{ZoneID: &zone.ID, Number: 1, StatusID: ptr(model.StatusSpaceAvailable), Activity: "study"}
	require.NoError(t, s.Spaces().Create(ctx, sp))

	err := s.Spaces().Create(ctx, &model.Space{ZoneID: &zone.ID, Number: 1})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	err = s.Spaces().Create(ctx, &model.Space{ZoneID: ptr(uint64(999)), Number: 2})
	assert.ErrorIs(t, err, repository.ErrConflict)

	byZone, err := s.Spaces().ListByZone(ctx, zone.ID)
	require.NoError(t, err)
	require.Len(t, byZone, 1)
	assert.Equal(t, "study", byZone[0].Activity)

	assert.ErrorIs(t, s.Zones().Delete(ctx, zone.ID), repository.ErrConflict)

	sp.Activity = "group work"
	require.NoError(t, s.Spaces().Update(ctx, sp))
	got, err := s.Spaces().GetByID(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, "group work", got.Activity)

	assert.ErrorIs(t, s.Spaces().Update(ctx, &model.Space{ID: 404}), repository.ErrNotFound)
}

func TestReservationsIndexAndFilter(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	sp := &model.Space{Number: 3}
	require.NoError(t, s.Spaces().Create(ctx, sp))
	day := schedule.Date{Year: 2025, Month: time.March, Day: 10}

	for _, slot := range [][2]string{{"11:00", "12:00"}, {"09:00", "10:00"}, {"10:00", "11:00"}} {
		r := &model.Reservation{
			SpaceID:  sp.ID,
			StatusID: model.StatusReservationConfirmed,
			Date:     day,
			Start:    schedule.MustClock(slot[0]),
			End:      schedule.MustClock(slot[1]),
		}
		require.NoError(t, s.Reservations().Create(ctx, r))
		assert.False(t, r.CreatedAt.IsZero())
	}
	other := &model.Reservation{SpaceID: sp.ID, StatusID: 1, Date: day.AddDays(1), Start: 540, End: 600}
	require.NoError(t, s.Reservations().Create(ctx, other))

	onDay, err := s.Reservations().ListBySpaceAndDate(ctx, sp.ID, day)
	require.NoError(t, err)
	require.Len(t, onDay, 3)
	assert.Equal(t, "09:00", onDay[0].Start.String())
	assert.Equal(t, "11:00", onDay[2].Start.String())

	items, total, err := s.Reservations().List(ctx, repository.ReservationFilter{StatusID: model.StatusReservationConfirmed, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, "11:00", items[0].Start.String())

	items, total, err = s.Reservations().List(ctx, repository.ReservationFilter{SpaceID: sp.ID, From: &day, To: &day})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, items, 3)

	require.NoError(t, s.Reservations().UpdateStatus(ctx, other.ID, model.StatusReservationCancelled))
	got, err := s.Reservations().GetByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReservationCancelled, got.StatusID)
	assert.Equal(t, other.CreatedAt, got.CreatedAt)

	assert.ErrorIs(t, s.Reservations().UpdateStatus(ctx, 9999, 1), repository.ErrNotFound)
	assert.ErrorIs(t, s.Spaces().Delete(ctx, sp.ID), repository.ErrConflict)

	require.NoError(t, s.Reservations().Delete(ctx, other.ID))
	assert.ErrorIs(t, s.Reservations().Delete(ctx, other.ID), repository.ErrNotFound)
}

func TestReservationRequiresReferences(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	sp := &model.Space{Number: 1}
	require.NoError(t, s.Spaces().Create(ctx, sp))

	r := &model.Reservation{SpaceID: sp.ID, StatusID: 1, UserRUT: ptr("1-9"), Date: schedule.Date{Year: 2025, Month: 1, Day: 1}, Start: 60, End: 120}
	assert.ErrorIs(t, s.Reservations().Create(ctx, r), repository.ErrConflict)

	require.NoError(t, s.Users().Create(ctx, &model.User{RUT: "1-9", FirstName: "Ana"}))
	require.NoError(t, s.Reservations().Create(ctx, r))
	assert.ErrorIs(t, s.Users().Delete(ctx, "1-9"), repository.ErrConflict)
	assert.ErrorIs(t, s.Users().Create(ctx, &model.User{RUT: "1-9"}), repository.ErrDuplicate)
}

func TestResourcesAndLinks(t *testing.T) {
	s, fake := newStore(t)
	ctx := context.Background()

	sp := &model.Space{Number: 7}
	require.NoError(t, s.Spaces().Create(ctx, sp))
	proj := &model.Resource{Name: "Projector"}
	board := &model.Resource{Name: "Whiteboard"}
	require.NoError(t, s.Resources().Create(ctx, proj))
	require.NoError(t, s.Resources().Create(ctx, board))

	require.NoError(t, s.Resources().Attach(ctx, model.SpaceResource{SpaceID: sp.ID, ResourceID: proj.ID}))
	require.NoError(t, s.Resources().Attach(ctx, model.SpaceResource{SpaceID: sp.ID, ResourceID: board.ID}))
	broken := model.StatusResourceBroken
	require.NoError(t, s.Resources().Attach(ctx, model.SpaceResource{SpaceID: sp.ID, ResourceID: proj.ID, StatusID: &broken}))

	links, err := s.Resources().ListBySpace(ctx, sp.ID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	require.NotNil(t, links[0].StatusID)
	assert.Equal(t, broken, *links[0].StatusID)

	assert.ErrorIs(t, s.Resources().Attach(ctx, model.SpaceResource{SpaceID: 999, ResourceID: proj.ID}), repository.ErrConflict)

	require.NoError(t, s.Resources().Delete(ctx, proj.ID))
	assert.Equal(t, 1, fake.Len("test_space_resources"))

	require.NoError(t, s.Spaces().Delete(ctx, sp.ID))
	assert.Equal(t, 0, fake.Len("test_space_resources"))
}

func TestActivityTypesAndResponsibles(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	a := &model.ActivityType{Name: "Workshop"}
	require.NoError(t, s.ActivityTypes().Create(ctx, a))
	assert.ErrorIs(t, s.ActivityTypes().Create(ctx, &model.ActivityType{Name: "Workshop"}), repository.ErrDuplicate)

	p := &model.Responsible{RUT: "2-7", ActivityTypeID: &a.ID, FirstName: "Luis", BirthDate: ptr("1980-02-01")}
	require.NoError(t, s.Responsibles().Create(ctx, p))
	assert.ErrorIs(t, s.ActivityTypes().Delete(ctx, a.ID), repository.ErrConflict)

	got, err := s.Responsibles().GetByRUT(ctx, "2-7")
	require.NoError(t, err)
	assert.Equal(t, "1980-02-01", *got.BirthDate)

	require.NoError(t, s.Responsibles().Delete(ctx, "2-7"))
	require.NoError(t, s.ActivityTypes().Delete(ctx, a.ID))
	_, err = s.ActivityTypes().GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSlotsAreReadConsistentlyWhileIndexesLag(t *testing.T) {
	s, fake := newStore(t)
	fake.IndexLag = true
	ctx := context.Background()

	sp := &model.Space{Number: 1}
	require.NoError(t, s.Spaces().Create(ctx, sp))
	day := schedule.Date{Year: 2025, Month: time.April, Day: 7}
	r := &model.Reservation{SpaceID: sp.ID, StatusID: model.StatusReservationConfirmed, Date: day, Start: 540, End: 600}
	require.NoError(t, s.Reservations().Create(ctx, r))

	onDay, err := s.Reservations().ListBySpaceAndDate(ctx, sp.ID, day)
	require.NoError(t, err)
	require.Len(t, onDay, 1)
	assert.Equal(t, r.ID, onDay[0].ID)
	assert.Equal(t, 1, fake.Len("test_reservation_slots"))

	next := day.AddDays(1)
	moved := *r
	moved.Date = next
	moved.Start, moved.End = 600, 660
	require.NoError(t, s.Reservations().Update(ctx, &moved))
	assert.Equal(t, 1, fake.Len("test_reservation_slots"))

	onDay, err = s.Reservations().ListBySpaceAndDate(ctx, sp.ID, day)
	require.NoError(t, err)
	assert.Empty(t, onDay)
	onDay, err = s.Reservations().ListBySpaceAndDate(ctx, sp.ID, next)
	require.NoError(t, err)
	require.Len(t, onDay, 1)
	assert.Equal(t, "10:00", onDay[0].Start.String())

	require.NoError(t, s.Reservations().UpdateStatus(ctx, r.ID, model.StatusReservationCancelled))
	onDay, err = s.Reservations().ListBySpaceAndDate(ctx, sp.ID, next)
	require.NoError(t, err)
	require.Len(t, onDay, 1)
	assert.Equal(t, model.StatusReservationCancelled, onDay[0].StatusID)

	require.NoError(t, s.Reservations().Delete(ctx, r.ID))
	assert.Equal(t, 0, fake.Len("test_reservation_slots"))
	assert.Equal(t, 0, fake.Len("test_reservations"))
}

func TestZoneResponsibles(t *testing.T) {
	s, fake := newStore(t)
	ctx := context.Background()

	north := &model.Zone{Name: "North"}
	east := &model.Zone{Name: "East"}
	require.NoError(t, s.Zones().Create(ctx, north))
	require.NoError(t, s.Zones().Create(ctx, east))
	require.NoError(t, s.Responsibles().Create(ctx, &model.Responsible{RUT: "1-1", FirstName: "Ana", LastName: "Soto"}))
	require.NoError(t, s.Responsibles().Create(ctx, &model.Responsible{RUT: "2-2", FirstName: "Luis", LastName: "Araya"}))

	assign := func(zone uint64, rut string) error {
		return s.ZoneResponsibles().Assign(ctx, model.ZoneResponsible{ZoneID: zone, ResponsibleRUT: rut})
	}
	assert.ErrorIs(t, assign(99, "1-1"), repository.ErrConflict)
	assert.ErrorIs(t, assign(north.ID, "9-9"), repository.ErrConflict)
	require.NoError(t, assign(north.ID, "1-1"))
	require.NoError(t, assign(north.ID, "1-1"))
	require.NoError(t, assign(north.ID, "2-2"))
	require.NoError(t, assign(east.ID, "1-1"))
	assert.Equal(t, 3, fake.Len("test_zone_responsibles"))

	people, err := s.ZoneResponsibles().ListByZone(ctx, north.ID)
	require.NoError(t, err)
	require.Len(t, people, 2)
	assert.Equal(t, "2-2", people[0].RUT)

	zones, err := s.ZoneResponsibles().ListByResponsible(ctx, "1-1")
	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, "East", zones[0].Name)

	gone := model.ZoneResponsible{ZoneID: north.ID, ResponsibleRUT: "2-2"}
	require.NoError(t, s.ZoneResponsibles().Unassign(ctx, gone))
	assert.ErrorIs(t, s.ZoneResponsibles().Unassign(ctx, gone), repository.ErrNotFound)

	require.NoError(t, s.Zones().Delete(ctx, east.ID))
	zones, err = s.ZoneResponsibles().ListByResponsible(ctx, "1-1")
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, north.ID, zones[0].ID)

	require.NoError(t, s.Responsibles().Delete(ctx, "1-1"))
	assert.Equal(t, 0, fake.Len("test_zone_responsibles"))
}
