package dynamostore

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/iliyamo/space-reservation/internal/model"
	"github.com/iliyamo/space-reservation/internal/repository"
)

func rutKey(rut string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"rut": strAttr(rut)}
}

// referencedByReservation reports whether any reservation points at rut
// through the attribute pick selects.
func (s *Store) referencedByReservation(ctx context.Context, pick func(reservationItem) *string, rut string) (bool, error) {
	var all []reservationItem
	if err := s.scan(ctx, tableReservations, &all); err != nil {
		return false, err
	}
	for _, it := range all {
		if v := pick(it); v != nil && *v == rut {
			return true, nil
		}
	}
	return false, nil
}

// UserRepo stores users keyed by RUT.
type UserRepo struct {
	s *Store
}

func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	item := userItem{RUT: u.RUT, FirstName: u.FirstName, LastName: u.LastName, BirthDate: u.BirthDate}
	return r.s.put(ctx, tableUsers, item, "attribute_not_exists(rut)", repository.ErrDuplicate)
}

func (r *UserRepo) GetByRUT(ctx context.Context, rut string) (*model.User, error) {
	var it userItem
	if err := r.s.get(ctx, tableUsers, rutKey(rut), &it); err != nil {
		return nil, err
	}
	return &model.User{RUT: it.RUT, FirstName: it.FirstName, LastName: it.LastName, BirthDate: it.BirthDate}, nil
}

func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	var items []userItem
	if err := r.s.scan(ctx, tableUsers, &items); err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(items))
	for _, it := range items {
		out = append(out, model.User{RUT: it.RUT, FirstName: it.FirstName, LastName: it.LastName, BirthDate: it.BirthDate})
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

func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	item := userItem{RUT: u.RUT, FirstName: u.FirstName, LastName: u.LastName, BirthDate: u.BirthDate}
	return r.s.put(ctx, tableUsers, item, "attribute_exists(rut)", repository.ErrNotFound)
}

func (r *UserRepo) Delete(ctx context.Context, rut string) error {
	used, err := r.s.referencedByReservation(ctx, func(it reservationItem) *string { return it.UserRUT }, rut)
	if err != nil {
		return err
	}
	if used {
		return fmt.Errorf("%w: user %s has reservations", repository.ErrConflict, rut)
	}
	return r.s.remove(ctx, tableUsers, rutKey(rut), "rut")
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	return r.s.count(ctx, tableUsers)
}

// ResponsibleRepo stores responsibles keyed by RUT.
type ResponsibleRepo struct {
	s *Store
}

func toResponsibleItem(p *model.Responsible) responsibleItem {
	return responsibleItem{
		RUT:            p.RUT,
		ActivityTypeID: p.ActivityTypeID,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		BirthDate:      p.BirthDate,
	}
}

func (it responsibleItem) model() model.Responsible {
	return model.Responsible{
		RUT:            it.RUT,
		ActivityTypeID: it.ActivityTypeID,
		FirstName:      it.FirstName,
		LastName:       it.LastName,
		BirthDate:      it.BirthDate,
	}
}

func (r *ResponsibleRepo) checkRefs(ctx context.Context, p *model.Responsible) error {
	if p.ActivityTypeID == nil {
		return nil
	}
	return r.s.requireRef(ctx, tableActivityTypes, idKey(*p.ActivityTypeID), fmt.Sprintf("activity type %d", *p.ActivityTypeID))
}

func (r *ResponsibleRepo) Create(ctx context.Context, p *model.Responsible) error {
	if err := r.checkRefs(ctx, p); err != nil {
		return err
	}
	return r.s.put(ctx, tableResponsibles, toResponsibleItem(p), "attribute_not_exists(rut)", repository.ErrDuplicate)
}

func (r *ResponsibleRepo) GetByRUT(ctx context.Context, rut string) (*model.Responsible, error) {
	var it responsibleItem
	if err := r.s.get(ctx, tableResponsibles, rutKey(rut), &it); err != nil {
		return nil, err
	}
	p := it.model()
	return &p, nil
}

func (r *ResponsibleRepo) List(ctx context.Context) ([]model.Responsible, error) {
	var items []responsibleItem
	if err := r.s.scan(ctx, tableResponsibles, &items); err != nil {
		return nil, err
	}
	out := make([]model.Responsible, 0, len(items))
	for _, it := range items {
		out = append(out, it.model())
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

func (r *ResponsibleRepo) Update(ctx context.Context, p *model.Responsible) error {
	if err := r.checkRefs(ctx, p); err != nil {
		return err
	}
	return r.s.put(ctx, tableResponsibles, toResponsibleItem(p), "attribute_exists(rut)", repository.ErrNotFound)
}

func (r *ResponsibleRepo) Delete(ctx context.Context, rut string) error {
	used, err := r.s.referencedByReservation(ctx, func(it reservationItem) *string { return it.ResponsibleRUT }, rut)
	if err != nil {
		return err
	}
	if used {
		return fmt.Errorf("%w: responsible %s has reservations", repository.ErrConflict, rut)
	}
	if err := r.s.remove(ctx, tableResponsibles, rutKey(rut), "rut"); err != nil {
		return err
	}
	return r.s.assignments.removeResponsible(ctx, rut)
}
