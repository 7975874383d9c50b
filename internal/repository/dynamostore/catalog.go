package dynamostore

import (
	"context"
	"fmt"
	"sort"

	"github.com/iliyamo/space-reservation/internal/model"
	"github.com/iliyamo/space-reservation/internal/repository"
)

// ActivityTypeRepo stores activity types.  Names are unique, as in the
// relational schema.
type ActivityTypeRepo struct {
	s *Store
}

func (r *ActivityTypeRepo) Create(ctx context.Context, a *model.ActivityType) error {
	existing, err := r.List(ctx)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.Name == a.Name {
			return fmt.Errorf("%w: activity type %q", repository.ErrDuplicate, a.Name)
		}
	}
	id, err := r.s.nextID(ctx, tableActivityTypes)
	if err != nil {
		return err
	}
	if err := r.s.put(ctx, tableActivityTypes, activityTypeItem{ID: id, Name: a.Name}, "attribute_not_exists(id)", repository.ErrDuplicate); err != nil {
		return err
	}
	a.ID = id
	return nil
}

func (r *ActivityTypeRepo) GetByID(ctx context.Context, id uint64) (*model.ActivityType, error) {
	var it activityTypeItem
	if err := r.s.get(ctx, tableActivityTypes, idKey(id), &it); err != nil {
		return nil, err
	}
	return &model.ActivityType{ID: it.ID, Name: it.Name}, nil
}

func (r *ActivityTypeRepo) List(ctx context.Context) ([]model.ActivityType, error) {
	var items []activityTypeItem
	if err := r.s.scan(ctx, tableActivityTypes, &items); err != nil {
		return nil, err
	}
	out := make([]model.ActivityType, 0, len(items))
	for _, it := range items {
		out = append(out, model.ActivityType{ID: it.ID, Name: it.Name})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Delete refuses to remove a type still assigned to a responsible.
func (r *ActivityTypeRepo) Delete(ctx context.Context, id uint64) error {
	var people []responsibleItem
	if err := r.s.scan(ctx, tableResponsibles, &people); err != nil {
		return err
	}
	for _, p := range people {
		if p.ActivityTypeID != nil && *p.ActivityTypeID == id {
			return fmt.Errorf("%w: activity type %d is in use", repository.ErrConflict, id)
		}
	}
	return r.s.remove(ctx, tableActivityTypes, idKey(id), "id")
}

// StatusRepo reads the seeded statuses table.
type StatusRepo struct {
	s *Store
}

func (r *StatusRepo) GetByID(ctx context.Context, id uint64) (*model.Status, error) {
	var it statusItem
	if err := r.s.get(ctx, tableStatuses, idKey(id), &it); err != nil {
		return nil, err
	}
	st := it.model()
	return &st, nil
}

func (r *StatusRepo) List(ctx context.Context) ([]model.Status, error) {
	var items []statusItem
	if err := r.s.scan(ctx, tableStatuses, &items); err != nil {
		return nil, err
	}
	out := make([]model.Status, 0, len(items))
	for _, it := range items {
		out = append(out, it.model())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *StatusRepo) ListByScope(ctx context.Context, scope model.StatusScope) ([]model.Status, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Status, 0, len(all))
	for _, st := range all {
		if st.Scope == scope {
			out = append(out, st)
		}
	}
	return out, nil
}
