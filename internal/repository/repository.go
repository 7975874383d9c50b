package repository

import (
	"context"

	"github.com/iliyamo/space-reservation/internal/model"
	"github.com/iliyamo/space-reservation/internal/schedule"
)

// Backend names accepted by the configuration file.
const (
	BackendMySQL    = "mysql"
	BackendDynamoDB = "dynamodb"
)

// Store is the persistence facade.  Each backend implements it once and the
// rest of the application only sees these interfaces.
type Store interface {
	Zones() ZoneRepository
	Spaces() SpaceRepository
	Reservations() ReservationRepository
	Users() UserRepository
	Responsibles() ResponsibleRepository
	ZoneResponsibles() ZoneResponsibleRepository
	Resources() ResourceRepository
	ActivityTypes() ActivityTypeRepository
	Statuses() StatusRepository

	// Backend returns the backend name (BackendMySQL or BackendDynamoDB).
	Backend() string
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// ZoneRepository persists zones.
type ZoneRepository interface {
	Create(ctx context.Context, z *model.Zone) error
	GetByID(ctx context.Context, id uint64) (*model.Zone, error)
	List(ctx context.Context) ([]model.Zone, error)
	Update(ctx context.Context, z *model.Zone) error
	Delete(ctx context.Context, id uint64) error
	Count(ctx context.Context) (int, error)
}

// SpaceRepository persists spaces.
type SpaceRepository interface {
	Create(ctx context.Context, s *model.Space) error
	GetByID(ctx context.Context, id uint64) (*model.Space, error)
	List(ctx context.Context) ([]model.Space, error)
	ListByZone(ctx context.Context, zoneID uint64) ([]model.Space, error)
	Update(ctx context.Context, s *model.Space) error
	Delete(ctx context.Context, id uint64) error
	Count(ctx context.Context) (int, error)
}

// ReservationRepository persists reservations.  Implementations do not
// check for overlaps; that rule lives in the reservation service so it is
// evaluated identically for every backend.
type ReservationRepository interface {
	Create(ctx context.Context, r *model.Reservation) error
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	// List returns the reservations matching f, newest date first, and the
	// total number of matches before pagination.
	List(ctx context.Context, f ReservationFilter) ([]model.Reservation, int, error)
	// ListBySpaceAndDate returns every reservation of a space on a date,
	// regardless of status, ordered by start time.
	ListBySpaceAndDate(ctx context.Context, spaceID uint64, date schedule.Date) ([]model.Reservation, error)
	Update(ctx context.Context, r *model.Reservation) error
	UpdateStatus(ctx context.Context, id, statusID uint64) error
	Delete(ctx context.Context, id uint64) error
	Count(ctx context.Context) (int, error)
}

// UserRepository persists users keyed by RUT.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByRUT(ctx context.Context, rut string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, rut string) error
	Count(ctx context.Context) (int, error)
}

// ResponsibleRepository persists responsibles keyed by RUT.
type ResponsibleRepository interface {
	Create(ctx context.Context, r *model.Responsible) error
	GetByRUT(ctx context.Context, rut string) (*model.Responsible, error)
	List(ctx context.Context) ([]model.Responsible, error)
	Update(ctx context.Context, r *model.Responsible) error
	Delete(ctx context.Context, rut string) error
}

// ZoneResponsibleRepository persists which responsibles look after which
// zones.  Removing a zone or a responsible removes its assignments.
type ZoneResponsibleRepository interface {
	// Assign links a responsible to a zone.  Assigning twice is a no-op.
	// A missing zone or responsible yields ErrConflict.
	Assign(ctx context.Context, a model.ZoneResponsible) error
	Unassign(ctx context.Context, a model.ZoneResponsible) error
	// ListByZone returns the responsibles of a zone ordered by name.
	ListByZone(ctx context.Context, zoneID uint64) ([]model.Responsible, error)
	// ListByResponsible returns the zones of a responsible ordered by name.
	ListByResponsible(ctx context.Context, rut string) ([]model.Zone, error)
}

// ResourceRepository persists resources and their attachment to spaces.
type ResourceRepository interface {
	Create(ctx context.Context, r *model.Resource) error
	GetByID(ctx context.Context, id uint64) (*model.Resource, error)
	List(ctx context.Context) ([]model.Resource, error)
	Update(ctx context.Context, r *model.Resource) error
	Delete(ctx context.Context, id uint64) error
	// Attach links a resource to a space, replacing the status of an
	// existing link.
	Attach(ctx context.Context, link model.SpaceResource) error
	Detach(ctx context.Context, spaceID, resourceID uint64) error
	ListBySpace(ctx context.Context, spaceID uint64) ([]model.SpaceResource, error)
}

// ActivityTypeRepository persists activity types.
type ActivityTypeRepository interface {
	Create(ctx context.Context, a *model.ActivityType) error
	GetByID(ctx context.Context, id uint64) (*model.ActivityType, error)
	List(ctx context.Context) ([]model.ActivityType, error)
	Delete(ctx context.Context, id uint64) error
}

// StatusRepository reads the statuses lookup table.  Rows are seeded when
// the backend is initialised.
type StatusRepository interface {
	GetByID(ctx context.Context, id uint64) (*model.Status, error)
	List(ctx context.Context) ([]model.Status, error)
	ListByScope(ctx context.Context, scope model.StatusScope) ([]model.Status, error)
}
