package dynamostore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/iliyamo/space-reservation/internal/model"
	"github.com/iliyamo/space-reservation/internal/repository"
)

// SpaceRepo stores spaces.  The zone-index serves ListByZone and the
// per-zone uniqueness check of the space number.
type SpaceRepo struct {
	s *Store
}

// checkRefs validates the zone and status of sp and the uniqueness of its
// number within the zone.
func (r *SpaceRepo) checkRefs(ctx context.Context, sp *model.Space) error {
	if sp.StatusID != nil {
		if err := r.s.requireRef(ctx, tableStatuses, idKey(*sp.StatusID), fmt.Sprintf("status %d", *sp.StatusID)); err != nil {
			return err
		}
	}
	if sp.ZoneID == nil {
		return nil
	}
	if err := r.s.requireRef(ctx, tableZones, idKey(*sp.ZoneID), fmt.Sprintf("zone %d", *sp.ZoneID)); err != nil {
		return err
	}
	siblings, err := r.ListByZone(ctx, *sp.ZoneID)
	if err != nil {
		return err
	}
	for _, o := range siblings {
		if o.Number == sp.Number && o.ID != sp.ID {
			return fmt.Errorf("%w: space number %d already used in zone %d", repository.ErrDuplicate, sp.Number, *sp.ZoneID)
		}
	}
	return nil
}

func (r *SpaceRepo) Create(ctx context.Context, sp *model.Space) error {
	if err := r.checkRefs(ctx, sp); err != nil {
		return err
	}
	id, err := r.s.nextID(ctx, tableSpaces)
	if err != nil {
		return err
	}
	item := toSpaceItem(sp)
	item.ID = id
	if err := r.s.put(ctx, tableSpaces, item, "attribute_not_exists(id)", repository.ErrDuplicate); err != nil {
		return err
	}
	sp.ID = id
	return nil
}

func (r *SpaceRepo) GetByID(ctx context.Context, id uint64) (*model.Space, error) {
	var it spaceItem
	if err := r.s.get(ctx, tableSpaces, idKey(id), &it); err != nil {
		return nil, err
	}
	sp := it.model()
	return &sp, nil
}

func (r *SpaceRepo) List(ctx context.Context) ([]model.Space, error) {
	var items []spaceItem
	if err := r.s.scan(ctx, tableSpaces, &items); err != nil {
		return nil, err
	}
	out := spacesOf(items)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *SpaceRepo) ListByZone(ctx context.Context, zoneID uint64) ([]model.Space, error) {
	var items []spaceItem
	if err := r.s.query(ctx, tableSpaces, indexZone, "zone_id", numAttr(zoneID), &items); err != nil {
		return nil, err
	}
	out := spacesOf(items)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Number != out[j].Number {
			return out[i].Number < out[j].Number
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func spacesOf(items []spaceItem) []model.Space {
	out := make([]model.Space, 0, len(items))
	for _, it := range items {
		out = append(out, it.model())
	}
	return out
}

func (r *SpaceRepo) Update(ctx context.Context, sp *model.Space) error {
	if _, err := r.GetByID(ctx, sp.ID); err != nil {
		return err
	}
	if err := r.checkRefs(ctx, sp); err != nil {
		return err
	}
	return r.s.put(ctx, tableSpaces, toSpaceItem(sp), "attribute_exists(id)", repository.ErrNotFound)
}

// Delete removes a space without reservations together with its resource
// links.
func (r *SpaceRepo) Delete(ctx context.Context, id uint64) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	var all []reservationItem
	if err := r.s.scan(ctx, tableReservations, &all); err != nil {
		return err
	}
	for _, it := range all {
		if it.SpaceID == id {
			return fmt.Errorf("%w: space %d has reservations", repository.ErrConflict, id)
		}
	}
	links, err := r.s.resources.ListBySpace(ctx, id)
	if err != nil {
		return err
	}
	for _, l := range links {
		if err := r.s.resources.Detach(ctx, l.SpaceID, l.ResourceID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}
	return r.s.remove(ctx, tableSpaces, idKey(id), "id")
}

func (r *SpaceRepo) Count(ctx context.Context) (int, error) {
	return r.s.count(ctx, tableSpaces)
}
