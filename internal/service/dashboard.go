package service

import (
	"context"
	"math"
	"time"

	"github.com/iliyamo/space-reservation/internal/model"
	"github.com/iliyamo/space-reservation/internal/repository"
	"github.com/iliyamo/space-reservation/internal/schedule"
)

// Totals counts the main entities.
type Totals struct {
	Spaces       int `json:"spaces"`
	Reservations int `json:"reservations"`
	Users        int `json:"users"`
	Zones        int `json:"zones"`
}

// MonthCount is the number of reservations dated in a month ("YYYY-MM").
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// DayCount is the number of reservations on a date of the current week.
type DayCount struct {
	Weekday string `json:"weekday"`
	Date    string `json:"date"`
	Count   int    `json:"count"`
}

// OccupiedSpace is a space with a blocking reservation running right now.
type OccupiedSpace struct {
	SpaceID       uint64  `json:"space_id"`
	Number        int     `json:"number"`
	ZoneID        *uint64 `json:"zone_id,omitempty"`
	ReservationID uint64  `json:"reservation_id"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
}

// Snapshot is the occupancy dashboard payload.
type Snapshot struct {
	GeneratedAt         time.Time           `json:"generated_at"`
	Backend             string              `json:"backend"`
	Totals              Totals              `json:"totals"`
	SpacesByStatus      map[string]int      `json:"spaces_by_status"`
	ReservationsByMonth []MonthCount        `json:"reservations_by_month"`
	Week                []DayCount          `json:"week"`
	TodayReservations   int                 `json:"today_reservations"`
	OccupancyPercent    int                 `json:"occupancy_percent"`
	OccupiedNow         []OccupiedSpace     `json:"occupied_now"`
	Recent              []model.Reservation `json:"recent"`
}

// Months covered by Snapshot.ReservationsByMonth, current month included.
const snapshotMonths = 6

// recentLimit is the number of reservations in Snapshot.Recent.
const recentLimit = 10

// DashboardService computes occupancy snapshots from the store.
type DashboardService struct {
	store repository.Store
	loc   *time.Location
	now   func() time.Time
}

// NewDashboardService computes "today" and "now" in loc (time.Local when nil).
func NewDashboardService(store repository.Store, loc *time.Location) *DashboardService {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardService{store: store, loc: loc, now: time.Now}
}

// Snapshot gathers the dashboard figures.  Only blocking reservations count
// towards occupancy; every reservation counts in the monthly histogram.
func (d *DashboardService) Snapshot(ctx context.Context) (*Snapshot, error) {
	now := d.now().In(d.loc)
	today := schedule.DateOf(now)
	snap := &Snapshot{
		GeneratedAt:    now,
		Backend:        d.store.Backend(),
		SpacesByStatus: map[string]int{},
		OccupiedNow:    []OccupiedSpace{},
	}

	var err error
	if snap.Totals.Zones, err = d.store.Zones().Count(ctx); err != nil {
		return nil, err
	}
	if snap.Totals.Users, err = d.store.Users().Count(ctx); err != nil {
		return nil, err
	}
	if snap.Totals.Reservations, err = d.store.Reservations().Count(ctx); err != nil {
		return nil, err
	}

	spaces, err := d.store.Spaces().List(ctx)
	if err != nil {
		return nil, err
	}
	snap.Totals.Spaces = len(spaces)
	statuses, err := d.store.Statuses().ListByScope(ctx, model.ScopeSpace)
	if err != nil {
		return nil, err
	}
	names := make(map[uint64]string, len(statuses))
	for _, st := range statuses {
		names[st.ID] = st.Name
	}
	byID := make(map[uint64]model.Space, len(spaces))
	for _, sp := range spaces {
		byID[sp.ID] = sp
		name := "unknown"
		if sp.StatusID != nil {
			if n, ok := names[*sp.StatusID]; ok {
				name = n
			}
		}
		snap.SpacesByStatus[name]++
	}

	// One ranged read covers the histogram, the week and today.
	from := schedule.Date{Year: today.Year, Month: today.Month, Day: 1}.AddMonths(-(snapshotMonths - 1))
	weekStart := today.AddDays(-int(now.Weekday()))
	if weekStart.Before(from) {
		from = weekStart
	}
	to := weekStart.AddDays(6)
	if to.Before(today) {
		to = today
	}
	ranged, _, err := d.store.Reservations().List(ctx, repository.ReservationFilter{From: &from, To: &to, Limit: repository.Unlimited})
	if err != nil {
		return nil, err
	}

	months := make(map[string]int, snapshotMonths)
	days := make(map[schedule.Date]int, 7)
	clock := schedule.ClockOf(now)
	for i := range ranged {
		r := &ranged[i]
		if !r.Date.Before(from) && !today.Before(r.Date) {
			months[r.Date.MonthKey()]++
		}
		if !r.Blocking() {
			continue
		}
		days[r.Date]++
		if r.Date == today {
			snap.TodayReservations++
			if r.Interval().Contains(clock) {
				sp := byID[r.SpaceID]
				snap.OccupiedNow = append(snap.OccupiedNow, OccupiedSpace{
					SpaceID:       r.SpaceID,
					Number:        sp.Number,
					ZoneID:        sp.ZoneID,
					ReservationID: r.ID,
					StartTime:     r.Start.String(),
					EndTime:       r.End.String(),
				})
			}
		}
	}

	first := schedule.Date{Year: today.Year, Month: today.Month, Day: 1}
	for i := snapshotMonths - 1; i >= 0; i-- {
		key := first.AddMonths(-i).MonthKey()
		snap.ReservationsByMonth = append(snap.ReservationsByMonth, MonthCount{Month: key, Count: months[key]})
	}
	for i := 0; i < 7; i++ {
		day := weekStart.AddDays(i)
		snap.Week = append(snap.Week, DayCount{
			Weekday: time.Weekday(i).String()[:3],
			Date:    day.String(),
			Count:   days[day],
		})
	}
	if snap.Totals.Spaces > 0 {
		snap.OccupancyPercent = int(math.Round(float64(snap.TodayReservations) / float64(snap.Totals.Spaces) * 100))
	}

	recent, _, err := d.store.Reservations().List(ctx, repository.ReservationFilter{Limit: recentLimit})
	if err != nil {
		return nil, err
	}
	snap.Recent = recent
	return snap, nil
}
