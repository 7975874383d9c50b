package service

import (
	"context"
	"sort"

	"github.com/iliyamo/space-reservation/internal/repository"
	"github.com/iliyamo/space-reservation/internal/schedule"
)

// SpaceCount is the number of blocking reservations of one space.
type SpaceCount struct {
	SpaceID      uint64 `json:"space_id"`
	Number       int    `json:"number"`
	Reservations int    `json:"reservations"`
}

// ZoneStats summarises the bookings of a zone's spaces over an optional
// date range.
type ZoneStats struct {
	ZoneID            uint64       `json:"zone_id"`
	From              string       `json:"from,omitempty"`
	To                string       `json:"to,omitempty"`
	TotalSpaces       int          `json:"total_spaces"`
	TotalReservations int          `json:"total_reservations"`
	AveragePerSpace   float64      `json:"average_per_space"` // TotalReservations / TotalSpaces
	BusiestSpace      *SpaceCount  `json:"busiest_space"`
	BySpace           []SpaceCount `json:"by_space"`
}

// ZoneStats counts the blocking reservations of every space in the zone
// dated within [from, to].  Nil bounds are open.  The busiest space is nil
// when nothing is booked; ties go to the lowest space number.
func (d *DashboardService) ZoneStats(ctx context.Context, zoneID uint64, from, to *schedule.Date) (*ZoneStats, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, invalid("to is before from")
	}
	if _, err := d.store.Zones().GetByID(ctx, zoneID); err != nil {
		return nil, err
	}
	spaces, err := d.store.Spaces().ListByZone(ctx, zoneID)
	if err != nil {
		return nil, err
	}

	stats := &ZoneStats{ZoneID: zoneID, TotalSpaces: len(spaces), BySpace: make([]SpaceCount, 0, len(spaces))}
	if from != nil {
		stats.From = from.String()
	}
	if to != nil {
		stats.To = to.String()
	}
	if len(spaces) == 0 {
		return stats, nil
	}

	ids := make([]uint64, 0, len(spaces))
	index := make(map[uint64]int, len(spaces))
	for _, sp := range spaces {
		index[sp.ID] = len(stats.BySpace)
		ids = append(ids, sp.ID)
		stats.BySpace = append(stats.BySpace, SpaceCount{SpaceID: sp.ID, Number: sp.Number})
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	found, _, err := d.store.Reservations().List(ctx, repository.ReservationFilter{
		SpaceIDs: ids,
		From:     from,
		To:       to,
		Limit:    repository.Unlimited,
	})
	if err != nil {
		return nil, err
	}
	for i := range found {
		if !found[i].Blocking() {
			continue
		}
		if at, ok := index[found[i].SpaceID]; ok {
			stats.BySpace[at].Reservations++
			stats.TotalReservations++
		}
	}

	sort.SliceStable(stats.BySpace, func(i, j int) bool {
		a, b := stats.BySpace[i], stats.BySpace[j]
		if a.Number != b.Number {
			return a.Number < b.Number
		}
		return a.SpaceID < b.SpaceID
	})
	for i := range stats.BySpace {
		sc := stats.BySpace[i]
		if sc.Reservations > 0 && (stats.BusiestSpace == nil || sc.Reservations > stats.BusiestSpace.Reservations) {
			stats.BusiestSpace = &sc
		}
	}
	stats.AveragePerSpace = float64(stats.TotalReservations) / float64(stats.TotalSpaces)
	return stats, nil
}
