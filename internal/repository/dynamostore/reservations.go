package dynamostore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/iliyamo/space-reservation/internal/model"
	"github.com/iliyamo/space-reservation/internal/repository"
	"github.com/iliyamo/space-reservation/internal/schedule"
)

// ReservationRepo stores reservations.  Each reservation is written twice
// in one transaction: by id in the reservations table and by space_date and
// id in the slots table, which answers the per-day reads of the overlap
// check with a consistent query.
type ReservationRepo struct {
	s *Store
}

func slotKey(spaceDate string, id uint64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"space_date": strAttr(spaceDate), "id": numAttr(id)}
}

// unchanged guards a write against a concurrent move of the reservation to
// another space or day.
const unchanged = "attribute_exists(id) AND space_date = :sd"

func changedConcurrently(id uint64) error {
	return fmt.Errorf("%w: reservation %d changed concurrently", repository.ErrConflict, id)
}

func (r *ReservationRepo) checkRefs(ctx context.Context, res *model.Reservation) error {
	if err := r.s.requireRef(ctx, tableSpaces, idKey(res.SpaceID), fmt.Sprintf("space %d", res.SpaceID)); err != nil {
		return err
	}
	if err := r.s.requireRef(ctx, tableStatuses, idKey(res.StatusID), fmt.Sprintf("status %d", res.StatusID)); err != nil {
		return err
	}
	if res.UserRUT != nil {
		key := map[string]types.AttributeValue{"rut": strAttr(*res.UserRUT)}
		if err := r.s.requireRef(ctx, tableUsers, key, "user "+*res.UserRUT); err != nil {
			return err
		}
	}
	if res.ResponsibleRUT != nil {
		key := map[string]types.AttributeValue{"rut": strAttr(*res.ResponsibleRUT)}
		if err := r.s.requireRef(ctx, tableResponsibles, key, "responsible "+*res.ResponsibleRUT); err != nil {
			return err
		}
	}
	return nil
}

func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	if err := r.checkRefs(ctx, res); err != nil {
		return err
	}
	id, err := r.s.nextID(ctx, tableReservations)
	if err != nil {
		return err
	}
	now := r.s.timestamp()
	res.ID = id
	res.CreatedAt = now
	res.UpdatedAt = now
	av, err := attributevalue.MarshalMap(toReservationItem(res))
	if err != nil {
		return err
	}
	return r.s.transact(ctx, repository.ErrDuplicate,
		r.s.putOp(tableReservations, av, "attribute_not_exists(id)", nil),
		r.s.putOp(tableReservationSlots, av, "", nil),
	)
}

func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	var it reservationItem
	if err := r.s.get(ctx, tableReservations, idKey(id), &it); err != nil {
		return nil, err
	}
	res, err := it.model()
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ReservationRepo) ListBySpaceAndDate(ctx context.Context, spaceID uint64, date schedule.Date) ([]model.Reservation, error) {
	var items []reservationItem
	if err := r.s.query(ctx, tableReservationSlots, "", "space_date", strAttr(spaceDateKey(spaceID, date)), &items); err != nil {
		return nil, err
	}
	out, err := reservationsOf(items)
	if err != nil {
		return nil, err
	}
	repository.SortByStart(out)
	return out, nil
}

// List scans the table and applies the filter in process.  A filter on a
// single space and day is served from the slots table instead.
func (r *ReservationRepo) List(ctx context.Context, f repository.ReservationFilter) ([]model.Reservation, int, error) {
	f = f.Normalize()
	if f.SpaceIDs != nil && len(f.SpaceIDs) == 0 {
		return []model.Reservation{}, 0, nil
	}

	var (
		all []model.Reservation
		err error
	)
	if f.SpaceID != 0 && f.From != nil && f.To != nil && *f.From == *f.To {
		all, err = r.ListBySpaceAndDate(ctx, f.SpaceID, *f.From)
	} else {
		var items []reservationItem
		if err = r.s.scan(ctx, tableReservations, &items); err == nil {
			all, err = reservationsOf(items)
		}
	}
	if err != nil {
		return nil, 0, err
	}

	matched := make([]model.Reservation, 0, len(all))
	for i := range all {
		if f.Match(&all[i]) {
			matched = append(matched, all[i])
		}
	}
	repository.SortNewestFirst(matched)
	return repository.Page(matched, f), len(matched), nil
}

func (r *ReservationRepo) Update(ctx context.Context, res *model.Reservation) error {
	cur, err := r.GetByID(ctx, res.ID)
	if err != nil {
		return err
	}
	if err := r.checkRefs(ctx, res); err != nil {
		return err
	}
	res.CreatedAt = cur.CreatedAt
	res.UpdatedAt = r.s.timestamp()

	item := toReservationItem(res)
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return err
	}
	old := spaceDateKey(cur.SpaceID, cur.Date)
	guard := map[string]types.AttributeValue{":sd": strAttr(old)}
	ops := []types.TransactWriteItem{r.s.putOp(tableReservations, av, unchanged, guard)}
	if old != item.SpaceDate {
		ops = append(ops, r.s.deleteOp(tableReservationSlots, slotKey(old, res.ID), "", nil))
	}
	ops = append(ops, r.s.putOp(tableReservationSlots, av, "", nil))
	return r.s.transact(ctx, changedConcurrently(res.ID), ops...)
}

// UpdateStatus rewrites only status_id and updated_at.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id, statusID uint64) error {
	if err := r.s.requireRef(ctx, tableStatuses, idKey(statusID), fmt.Sprintf("status %d", statusID)); err != nil {
		return err
	}
	cur, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	sd := spaceDateKey(cur.SpaceID, cur.Date)
	ts := strAttr(r.s.timestamp().Format(time.RFC3339Nano))
	values := func() map[string]types.AttributeValue {
		return map[string]types.AttributeValue{":s": numAttr(statusID), ":u": ts}
	}
	guarded := values()
	guarded[":sd"] = strAttr(sd)
	const set = "SET status_id = :s, updated_at = :u"
	return r.s.transact(ctx, changedConcurrently(id),
		r.s.updateOp(tableReservations, idKey(id), set, unchanged, guarded),
		r.s.updateOp(tableReservationSlots, slotKey(sd, id), set, "attribute_exists(id)", values()),
	)
}

func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	cur, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	sd := spaceDateKey(cur.SpaceID, cur.Date)
	guard := map[string]types.AttributeValue{":sd": strAttr(sd)}
	return r.s.transact(ctx, changedConcurrently(id),
		r.s.deleteOp(tableReservations, idKey(id), unchanged, guard),
		r.s.deleteOp(tableReservationSlots, slotKey(sd, id), "", nil),
	)
}

func (r *ReservationRepo) Count(ctx context.Context) (int, error) {
	return r.s.count(ctx, tableReservations)
}
