package dynamostore

import (
	"context"
	"fmt"
	"sort"

	"github.com/iliyamo/space-reservation/internal/model"
	"github.com/iliyamo/space-reservation/internal/repository"
)

// ZoneRepo stores zones in the zones table.
type ZoneRepo struct {
	s *Store
}

func (r *ZoneRepo) Create(ctx context.Context, z *model.Zone) error {
	id, err := r.s.nextID(ctx, tableZones)
	if err != nil {
		return err
	}
	item := zoneItem{ID: id, Name: z.Name}
	if err := r.s.put(ctx, tableZones, item, "attribute_not_exists(id)", repository.ErrDuplicate); err != nil {
		return err
	}
	z.ID = id
	return nil
}

func (r *ZoneRepo) GetByID(ctx context.Context, id uint64) (*model.Zone, error) {
	var it zoneItem
	if err := r.s.get(ctx, tableZones, idKey(id), &it); err != nil {
		return nil, err
	}
	return &model.Zone{ID: it.ID, Name: it.Name}, nil
}

func (r *ZoneRepo) List(ctx context.Context) ([]model.Zone, error) {
	var items []zoneItem
	if err := r.s.scan(ctx, tableZones, &items); err != nil {
		return nil, err
	}
	out := make([]model.Zone, 0, len(items))
	for _, it := range items {
		out = append(out, model.Zone{ID: it.ID, Name: it.Name})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *ZoneRepo) Update(ctx context.Context, z *model.Zone) error {
	return r.s.put(ctx, tableZones, zoneItem{ID: z.ID, Name: z.Name}, "attribute_exists(id)", repository.ErrNotFound)
}

// Delete refuses to remove a zone that still holds spaces.  The zone's
// responsible assignments go with it.
func (r *ZoneRepo) Delete(ctx context.Context, id uint64) error {
	var spaces []spaceItem
	if err := r.s.query(ctx, tableSpaces, indexZone, "zone_id", numAttr(id), &spaces); err != nil {
		return err
	}
	if len(spaces) > 0 {
		return fmt.Errorf("%w: zone %d has %d spaces", repository.ErrConflict, id, len(spaces))
	}
	if err := r.s.remove(ctx, tableZones, idKey(id), "id"); err != nil {
		return err
	}
	return r.s.assignments.removeZone(ctx, id)
}

func (r *ZoneRepo) Count(ctx context.Context) (int, error) {
	return r.s.count(ctx, tableZones)
}
