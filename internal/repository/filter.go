package repository

import (
	"sort"

	"github.com/iliyamo/space-reservation/internal/model"
	"github.com/iliyamo/space-reservation/internal/schedule"
)

// DefaultPageSize is used when a filter does not set Limit.
const DefaultPageSize = 15

// MaxPageSize caps Limit.
const MaxPageSize = 200

// Unlimited as Limit returns every match.  Only internal callers (the
// dashboard and the jobs) use it; handlers always page.
const Unlimited = -1

// ReservationFilter narrows ReservationRepository.List.  Zero values mean
// "no constraint".  SpaceIDs is filled by callers that resolve a zone into
// its spaces; an empty non-nil slice matches nothing.
type ReservationFilter struct {
	SpaceID        uint64
	SpaceIDs       []uint64
	StatusID       uint64
	UserRUT        string
	ResponsibleRUT string
	From           *schedule.Date
	To             *schedule.Date
	Limit          int
	Offset         int
}

// Normalize clamps pagination to sane bounds.
func (f ReservationFilter) Normalize() ReservationFilter {
	if f.Limit == Unlimited {
		if f.Offset < 0 {
			f.Offset = 0
		}
		return f
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Match reports whether r satisfies every constraint of f.  Backends that
// cannot push a constraint down to the engine use it to filter in process.
func (f ReservationFilter) Match(r *model.Reservation) bool {
	if f.SpaceID != 0 && r.SpaceID != f.SpaceID {
		return false
	}
	if f.SpaceIDs != nil {
		found := false
		for _, id := range f.SpaceIDs {
			if id == r.SpaceID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.StatusID != 0 && r.StatusID != f.StatusID {
		return false
	}
	if f.UserRUT != "" && (r.UserRUT == nil || *r.UserRUT != f.UserRUT) {
		return false
	}
	if f.ResponsibleRUT != "" && (r.ResponsibleRUT == nil || *r.ResponsibleRUT != f.ResponsibleRUT) {
		return false
	}
	if f.From != nil && r.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && f.To.Before(r.Date) {
		return false
	}
	return true
}

// SortNewestFirst orders reservations by date then start time, both
// descending, with id as tie breaker.  This is the order of List.
func SortNewestFirst(rs []model.Reservation) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.Date != b.Date {
			return b.Date.Before(a.Date)
		}
		if a.Start != b.Start {
			return a.Start > b.Start
		}
		return a.ID > b.ID
	})
}

// SortByStart orders reservations of one day by start time ascending.
func SortByStart(rs []model.Reservation) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Start != rs[j].Start {
			return rs[i].Start < rs[j].Start
		}
		return rs[i].ID < rs[j].ID
	})
}

// Page applies offset and limit to an already ordered slice.
func Page(rs []model.Reservation, f ReservationFilter) []model.Reservation {
	if f.Offset >= len(rs) {
		return []model.Reservation{}
	}
	end := f.Offset + f.Limit
	if f.Limit == Unlimited || end > len(rs) {
		end = len(rs)
	}
	return rs[f.Offset:end]
}
