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

// ResourceRepo stores resources and the space_resources links, keyed by
// (space_id, resource_id).
type ResourceRepo struct {
	s *Store
}

func linkKey(spaceID, resourceID uint64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"space_id": numAttr(spaceID), "resource_id": numAttr(resourceID)}
}

func (r *ResourceRepo) Create(ctx context.Context, res *model.Resource) error {
	id, err := r.s.nextID(ctx, tableResources)
	if err != nil {
		return err
	}
	item := resourceItem{ID: id, Name: res.Name, Description: res.Description}
	if err := r.s.put(ctx, tableResources, item, "attribute_not_exists(id)", repository.ErrDuplicate); err != nil {
		return err
	}
	res.ID = id
	return nil
}

func (r *ResourceRepo) GetByID(ctx context.Context, id uint64) (*model.Resource, error) {
	var it resourceItem
	if err := r.s.get(ctx, tableResources, idKey(id), &it); err != nil {
		return nil, err
	}
	return &model.Resource{ID: it.ID, Name: it.Name, Description: it.Description}, nil
}

func (r *ResourceRepo) List(ctx context.Context) ([]model.Resource, error) {
	var items []resourceItem
	if err := r.s.scan(ctx, tableResources, &items); err != nil {
		return nil, err
	}
	out := make([]model.Resource, 0, len(items))
	for _, it := range items {
		out = append(out, model.Resource{ID: it.ID, Name: it.Name, Description: it.Description})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *ResourceRepo) Update(ctx context.Context, res *model.Resource) error {
	item := resourceItem{ID: res.ID, Name: res.Name, Description: res.Description}
	return r.s.put(ctx, tableResources, item, "attribute_exists(id)", repository.ErrNotFound)
}

// Delete removes the resource and every link to it.
func (r *ResourceRepo) Delete(ctx context.Context, id uint64) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	var links []spaceResourceItem
	if err := r.s.scan(ctx, tableSpaceResources, &links); err != nil {
		return err
	}
	for _, l := range links {
		if l.ResourceID != id {
			continue
		}
		if err := r.Detach(ctx, l.SpaceID, l.ResourceID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}
	return r.s.remove(ctx, tableResources, idKey(id), "id")
}

// Attach upserts the link after checking that both ends and the status exist.
func (r *ResourceRepo) Attach(ctx context.Context, link model.SpaceResource) error {
	if err := r.s.requireRef(ctx, tableSpaces, idKey(link.SpaceID), fmt.Sprintf("space %d", link.SpaceID)); err != nil {
		return err
	}
	if err := r.s.requireRef(ctx, tableResources, idKey(link.ResourceID), fmt.Sprintf("resource %d", link.ResourceID)); err != nil {
		return err
	}
	if link.StatusID != nil {
		if err := r.s.requireRef(ctx, tableStatuses, idKey(*link.StatusID), fmt.Sprintf("status %d", *link.StatusID)); err != nil {
			return err
		}
	}
	item := spaceResourceItem{SpaceID: link.SpaceID, ResourceID: link.ResourceID, StatusID: link.StatusID}
	return r.s.put(ctx, tableSpaceResources, item, "", nil)
}

func (r *ResourceRepo) Detach(ctx context.Context, spaceID, resourceID uint64) error {
	return r.s.remove(ctx, tableSpaceResources, linkKey(spaceID, resourceID), "space_id")
}

func (r *ResourceRepo) ListBySpace(ctx context.Context, spaceID uint64) ([]model.SpaceResource, error) {
	var items []spaceResourceItem
	if err := r.s.query(ctx, tableSpaceResources, "", "space_id", numAttr(spaceID), &items); err != nil {
		return nil, err
	}
	out := make([]model.SpaceResource, 0, len(items))
	for _, it := range items {
		out = append(out, model.SpaceResource{SpaceID: it.SpaceID, ResourceID: it.ResourceID, StatusID: it.StatusID})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ResourceID < out[j].ResourceID })
	return out, nil
}
