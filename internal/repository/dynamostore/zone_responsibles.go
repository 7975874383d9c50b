package dynamostore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/iliyamo/space-reservation/internal/model"
	"github.com/iliyamo/space-reservation/internal/repository"
)

// ZoneResponsibleRepo stores assignments keyed by zone_id and
// responsible_rut.  The responsible-index answers the reverse lookup.
type ZoneResponsibleRepo struct {
	s *Store
}

func assignmentKey(a model.ZoneResponsible) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"zone_id":         numAttr(a.ZoneID),
		"responsible_rut": strAttr(a.ResponsibleRUT),
	}
}

func (r *ZoneResponsibleRepo) Assign(ctx context.Context, a model.ZoneResponsible) error {
	if err := r.s.requireRef(ctx, tableZones, idKey(a.ZoneID), fmt.Sprintf("zone %d", a.ZoneID)); err != nil {
		return err
	}
	if err := r.s.requireRef(ctx, tableResponsibles, rutKey(a.ResponsibleRUT), "responsible "+a.ResponsibleRUT); err != nil {
		return err
	}
	return r.s.put(ctx, tableZoneResponsibles, zoneResponsibleItem{ZoneID: a.ZoneID, ResponsibleRUT: a.ResponsibleRUT}, "", nil)
}

func (r *ZoneResponsibleRepo) Unassign(ctx context.Context, a model.ZoneResponsible) error {
	return r.s.remove(ctx, tableZoneResponsibles, assignmentKey(a), "zone_id")
}

// ListByZone resolves each assignment to its responsible.  Assignments
// whose responsible vanished in between are skipped.
func (r *ZoneResponsibleRepo) ListByZone(ctx context.Context, zoneID uint64) ([]model.Responsible, error) {
	var items []zoneResponsibleItem
	if err := r.s.query(ctx, tableZoneResponsibles, "", "zone_id", numAttr(zoneID), &items); err != nil {
		return nil, err
	}
	out := make([]model.Responsible, 0, len(items))
	for _, it := range items {
		p, err := r.s.responsibles.GetByRUT(ctx, it.ResponsibleRUT)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return a.RUT < b.RUT
	})
	return out, nil
}

func (r *ZoneResponsibleRepo) ListByResponsible(ctx context.Context, rut string) ([]model.Zone, error) {
	items, err := r.byResponsible(ctx, rut)
	if err != nil {
		return nil, err
	}
	out := make([]model.Zone, 0, len(items))
	for _, it := range items {
		z, err := r.s.zones.GetByID(ctx, it.ZoneID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *z)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *ZoneResponsibleRepo) byResponsible(ctx context.Context, rut string) ([]zoneResponsibleItem, error) {
	var items []zoneResponsibleItem
	err := r.s.query(ctx, tableZoneResponsibles, indexResponsible, "responsible_rut", strAttr(rut), &items)
	return items, err
}

// removeZone drops every assignment of a zone.
func (r *ZoneResponsibleRepo) removeZone(ctx context.Context, zoneID uint64) error {
	var items []zoneResponsibleItem
	if err := r.s.query(ctx, tableZoneResponsibles, "", "zone_id", numAttr(zoneID), &items); err != nil {
		return err
	}
	return r.removeAll(ctx, items)
}

// removeResponsible drops every assignment of a responsible.
func (r *ZoneResponsibleRepo) removeResponsible(ctx context.Context, rut string) error {
	items, err := r.byResponsible(ctx, rut)
	if err != nil {
		return err
	}
	return r.removeAll(ctx, items)
}

func (r *ZoneResponsibleRepo) removeAll(ctx context.Context, items []zoneResponsibleItem) error {
	for _, it := range items {
		a := model.ZoneResponsible{ZoneID: it.ZoneID, ResponsibleRUT: it.ResponsibleRUT}
		if err := r.Unassign(ctx, a); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}
	return nil
}
