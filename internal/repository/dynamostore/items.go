package dynamostore

import (
	"fmt"
	"strconv"
	"time"

	"github.com/iliyamo/space-reservation/internal/model"
	"github.com/iliyamo/space-reservation/internal/schedule"
)

// Item types mirror the model with the attribute names of the MySQL
// columns.  Optional attributes are omitted rather than stored empty so
// they never land in a secondary index.

type zoneItem struct {
	ID   uint64 `dynamodbav:"id"`
	Name string `dynamodbav:"name"`
}

type spaceItem struct {
	ID       uint64  `dynamodbav:"id"`
	ZoneID   *uint64 `dynamodbav:"zone_id,omitempty"`
	Number   int     `dynamodbav:"number"`
	StatusID *uint64 `dynamodbav:"status_id,omitempty"`
	Activity string  `dynamodbav:"activity,omitempty"`
}

type reservationItem struct {
	ID             uint64    `dynamodbav:"id"`
	SpaceID        uint64    `dynamodbav:"space_id"`
	UserRUT        *string   `dynamodbav:"user_rut,omitempty"`
	ResponsibleRUT *string   `dynamodbav:"responsible_rut,omitempty"`
	StatusID       uint64    `dynamodbav:"status_id"`
	Date           string    `dynamodbav:"reservation_date"`
	Start          string    `dynamodbav:"start_time"`
	End            string    `dynamodbav:"end_time"`
	Notes          string    `dynamodbav:"notes,omitempty"`
	SpaceDate      string    `dynamodbav:"space_date"`
	CreatedAt      time.Time `dynamodbav:"created_at"`
	UpdatedAt      time.Time `dynamodbav:"updated_at"`
}

type userItem struct {
	RUT       string  `dynamodbav:"rut"`
	FirstName string  `dynamodbav:"first_name,omitempty"`
	LastName  string  `dynamodbav:"last_name,omitempty"`
	BirthDate *string `dynamodbav:"birth_date,omitempty"`
}

type responsibleItem struct {
	RUT            string  `dynamodbav:"rut"`
	ActivityTypeID *uint64 `dynamodbav:"activity_type_id,omitempty"`
	FirstName      string  `dynamodbav:"first_name,omitempty"`
	LastName       string  `dynamodbav:"last_name,omitempty"`
	BirthDate      *string `dynamodbav:"birth_date,omitempty"`
}

type resourceItem struct {
	ID          uint64 `dynamodbav:"id"`
	Name        string `dynamodbav:"name"`
	Description string `dynamodbav:"description,omitempty"`
}

type spaceResourceItem struct {
	SpaceID    uint64  `dynamodbav:"space_id"`
	ResourceID uint64  `dynamodbav:"resource_id"`
	StatusID   *uint64 `dynamodbav:"status_id,omitempty"`
}

type activityTypeItem struct {
	ID   uint64 `dynamodbav:"id"`
	Name string `dynamodbav:"name"`
}

type zoneResponsibleItem struct {
	ZoneID         uint64 `dynamodbav:"zone_id"`
	ResponsibleRUT string `dynamodbav:"responsible_rut"`
}

type statusItem struct {
	ID    uint64 `dynamodbav:"id"`
	Scope string `dynamodbav:"scope"`
	Name  string `dynamodbav:"name"`
}

// spaceDateKey is the partition key of the reservation_slots table.
func spaceDateKey(spaceID uint64, date schedule.Date) string {
	return strconv.FormatUint(spaceID, 10) + "#" + date.String()
}

func toReservationItem(r *model.Reservation) reservationItem {
	return reservationItem{
		ID:             r.ID,
		SpaceID:        r.SpaceID,
		UserRUT:        r.UserRUT,
		ResponsibleRUT: r.ResponsibleRUT,
		StatusID:       r.StatusID,
		Date:           r.Date.String(),
		Start:          r.Start.String(),
		End:            r.End.String(),
		Notes:          r.Notes,
		SpaceDate:      spaceDateKey(r.SpaceID, r.Date),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (it reservationItem) model() (model.Reservation, error) {
	r := model.Reservation{
		ID:             it.ID,
		SpaceID:        it.SpaceID,
		UserRUT:        it.UserRUT,
		ResponsibleRUT: it.ResponsibleRUT,
		StatusID:       it.StatusID,
		Notes:          it.Notes,
		CreatedAt:      it.CreatedAt,
		UpdatedAt:      it.UpdatedAt,
	}
	var err error
	if r.Date, err = schedule.ParseDate(it.Date); err != nil {
		return r, fmt.Errorf("reservation %d: %w", it.ID, err)
	}
	if r.Start, err = schedule.ParseClock(it.Start); err != nil {
		return r, fmt.Errorf("reservation %d start_time: %w", it.ID, err)
	}
	if r.End, err = schedule.ParseClock(it.End); err != nil {
		return r, fmt.Errorf("reservation %d end_time: %w", it.ID, err)
	}
	return r, nil
}

func reservationsOf(items []reservationItem) ([]model.Reservation, error) {
	out := make([]model.Reservation, 0, len(items))
	for _, it := range items {
		r, err := it.model()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func toSpaceItem(s *model.Space) spaceItem {
	return spaceItem{ID: s.ID, ZoneID: s.ZoneID, Number: s.Number, StatusID: s.StatusID, Activity: s.Activity}
}

func (it spaceItem) model() model.Space {
	return model.Space{ID: it.ID, ZoneID: it.ZoneID, Number: it.Number, StatusID: it.StatusID, Activity: it.Activity}
}

func toStatusItem(s model.Status) statusItem {
	return statusItem{ID: s.ID, Scope: string(s.Scope), Name: s.Name}
}

func (it statusItem) model() model.Status {
	return model.Status{ID: it.ID, Scope: model.StatusScope(it.Scope), Name: it.Name}
}
