package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/space-reservation/internal/model"
	"github.com/iliyamo/space-reservation/internal/queue"
	"github.com/iliyamo/space-reservation/internal/repository"
	"github.com/iliyamo/space-reservation/internal/schedule"
)

// ReservationInput is the writable part of a reservation as received from
// clients.  Times are "HH:MM" and the date "YYYY-MM-DD".
type ReservationInput struct {
	SpaceID        uint64  `json:"space_id"`
	UserRUT        *string `json:"user_rut"`
	ResponsibleRUT *string `json:"responsible_rut"`
	StatusID       uint64  `json:"status_id"`
	Date           string  `json:"date"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	Notes          string  `json:"notes"`
}

// ReservationQuery is a list request.  ZoneID is resolved into the ids of
// the zone's spaces before reaching the store.
type ReservationQuery struct {
	repository.ReservationFilter
	ZoneID uint64
}

// ReservationPage is one page of a list request.
type ReservationPage struct {
	Items  []model.Reservation `json:"items"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

// ReservationService enforces the no-overlap rule on every write path and
// publishes an event after each successful write.
type ReservationService struct {
	store  repository.Store
	events queue.Publisher
	logger *slog.Logger
	now    func() time.Time

	// Writes to the same space are serialised within this process so the
	// conflict check and the write see the same state.  Across processes
	// the store's own conditions decide.
	locks sync.Map // uint64 -> *sync.Mutex
}

// NewReservationService wires the service.  events may be nil.
func NewReservationService(store repository.Store, events queue.Publisher, logger *slog.Logger) *ReservationService {
	if store == nil {
		panic("nil store")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReservationService{store: store, events: events, logger: logger, now: time.Now}
}

// lockSpaces locks the given spaces in ascending id order, skipping zero
// and repeated ids, and returns the matching unlock.
func (s *ReservationService) lockSpaces(ids ...uint64) func() {
	ids = slices.Compact(slices.Sorted(slices.Values(ids)))
	held := make([]*sync.Mutex, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		m, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
		mu := m.(*sync.Mutex)
		mu.Lock()
		held = append(held, mu)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

// lockReservation locks the space reservation id currently sits in, and
// also, when not zero, the space it is about to move to.  The reservation
// is read again under the lock; if it moved in the meantime the locks are
// retaken.
func (s *ReservationService) lockReservation(ctx context.Context, id, target uint64) (*model.Reservation, func(), error) {
	for {
		seen, err := s.store.Reservations().GetByID(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		unlock := s.lockSpaces(seen.SpaceID, target)
		cur, err := s.store.Reservations().GetByID(ctx, id)
		if err != nil {
			unlock()
			return nil, nil, err
		}
		if cur.SpaceID == seen.SpaceID {
			return cur, unlock, nil
		}
		unlock()
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
	}
}

func trimRUT(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

// build validates in and turns it into a reservation.  References are
// checked against the store so clients get a 400 instead of a 409 from a
// foreign key.
func (s *ReservationService) build(ctx context.Context, in ReservationInput) (*model.Reservation, error) {
	if in.SpaceID == 0 {
		return nil, invalid("space_id is required")
	}
	date, err := schedule.ParseDate(in.Date)
	if err != nil {
		return nil, invalid("date must be YYYY-MM-DD")
	}
	iv, err := schedule.ParseInterval(in.StartTime, in.EndTime)
	if err != nil {
		if errors.Is(err, schedule.ErrInvalidInterval) {
			return nil, invalid("end_time must be after start_time")
		}
		return nil, invalid("start_time and end_time must be HH:MM")
	}
	if len(in.Notes) > model.MaxNotesLength {
		return nil, invalid("notes exceed %d characters", model.MaxNotesLength)
	}
	r := &model.Reservation{
		SpaceID:        in.SpaceID,
		UserRUT:        trimRUT(in.UserRUT),
		ResponsibleRUT: trimRUT(in.ResponsibleRUT),
		StatusID:       in.StatusID,
		Date:           date,
		Start:          iv.Start,
		End:            iv.End,
		Notes:          strings.TrimSpace(in.Notes),
	}
	if r.StatusID == 0 {
		r.StatusID = model.StatusReservationPending
	}

	if _, err := s.store.Spaces().GetByID(ctx, r.SpaceID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid("space %d does not exist", r.SpaceID)
		}
		return nil, err
	}
	if err := s.checkStatus(ctx, r.StatusID); err != nil {
		return nil, err
	}
	if r.UserRUT != nil {
		if len(*r.UserRUT) > model.MaxRUTLength {
			return nil, invalid("user_rut exceeds %d characters", model.MaxRUTLength)
		}
		if _, err := s.store.Users().GetByRUT(ctx, *r.UserRUT); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, invalid("user %s does not exist", *r.UserRUT)
			}
			return nil, err
		}
	}
	if r.ResponsibleRUT != nil {
		if len(*r.ResponsibleRUT) > model.MaxRUTLength {
			return nil, invalid("responsible_rut exceeds %d characters", model.MaxRUTLength)
		}
		if _, err := s.store.Responsibles().GetByRUT(ctx, *r.ResponsibleRUT); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, invalid("responsible %s does not exist", *r.ResponsibleRUT)
			}
			return nil, err
		}
	}
	return r, nil
}

func (s *ReservationService) checkStatus(ctx context.Context, statusID uint64) error {
	st, err := s.store.Statuses().GetByID(ctx, statusID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("status %d does not exist", statusID)
		}
		return err
	}
	if st.Scope != model.ScopeReservation {
		return invalid("status %d is not a reservation status", statusID)
	}
	return nil
}

// conflicts returns the blocking reservations of the space and date whose
// interval overlaps iv, skipping excludeID.
func (s *ReservationService) conflicts(ctx context.Context, spaceID uint64, date schedule.Date, iv schedule.Interval, excludeID uint64) ([]model.Reservation, error) {
	existing, err := s.store.Reservations().ListBySpaceAndDate(ctx, spaceID, date)
	if err != nil {
		return nil, err
	}
	candidates := make([]model.Reservation, 0, len(existing))
	intervals := make([]schedule.Interval, 0, len(existing))
	for _, r := range existing {
		if r.ID == excludeID || !r.Blocking() {
			continue
		}
		candidates = append(candidates, r)
		intervals = append(intervals, r.Interval())
	}
	hits := schedule.FindConflicts(iv, intervals)
	out := make([]model.Reservation, 0, len(hits))
	for _, i := range hits {
		out = append(out, candidates[i])
	}
	return out, nil
}

func (s *ReservationService) ensureFree(ctx context.Context, r *model.Reservation) error {
	if !r.Blocking() {
		return nil
	}
	found, err := s.conflicts(ctx, r.SpaceID, r.Date, r.Interval(), r.ID)
	if err != nil {
		return err
	}
	if len(found) > 0 {
		return &OverlapError{Conflicts: found}
	}
	return nil
}

func (s *ReservationService) publish(ctx context.Context, eventType string, r *model.Reservation) {
	if s.events == nil {
		return
	}
	ev := queue.NewReservationEvent(eventType, r, s.now())
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish reservation event failed", "type", eventType, "reservation_id", r.ID, "err", err)
	}
}

// Create validates the input, rejects it with an *OverlapError when it
// collides with a blocking reservation and stores it otherwise.
func (s *ReservationService) Create(ctx context.Context, in ReservationInput) (*model.Reservation, error) {
	r, err := s.build(ctx, in)
	if err != nil {
		return nil, err
	}
	unlock := s.lockSpaces(r.SpaceID)
	defer unlock()

	if err := s.ensureFree(ctx, r); err != nil {
		return nil, err
	}
	if err := s.store.Reservations().Create(ctx, r); err != nil {
		return nil, err
	}
	s.logger.Info("reservation created", "id", r.ID, "space_id", r.SpaceID, "date", r.Date.String(), "slot", r.Interval().String())
	s.publish(ctx, queue.EventReservationCreated, r)
	return r, nil
}

// Update replaces the booking fields of reservation id.  A zero StatusID
// keeps the current status.  The reservation never conflicts with itself.
func (s *ReservationService) Update(ctx context.Context, id uint64, in ReservationInput) (*model.Reservation, error) {
	cur, unlock, err := s.lockReservation(ctx, id, in.SpaceID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if in.StatusID == 0 {
		in.StatusID = cur.StatusID
	}
	r, err := s.build(ctx, in)
	if err != nil {
		return nil, err
	}
	r.ID = id
	r.CreatedAt = cur.CreatedAt

	if err := s.ensureFree(ctx, r); err != nil {
		return nil, err
	}
	if err := s.store.Reservations().Update(ctx, r); err != nil {
		return nil, err
	}
	updated, err := s.store.Reservations().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.EventReservationUpdated, updated)
	return updated, nil
}

// ChangeStatus moves a reservation to statusID.  Reactivating a cancelled
// reservation re-runs the overlap check since its slot may have been taken.
func (s *ReservationService) ChangeStatus(ctx context.Context, id, statusID uint64) (*model.Reservation, error) {
	if err := s.checkStatus(ctx, statusID); err != nil {
		return nil, err
	}
	cur, unlock, err := s.lockReservation(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if !cur.Blocking() && model.IsBlockingStatus(statusID) {
		next := *cur
		next.StatusID = statusID
		if err := s.ensureFree(ctx, &next); err != nil {
			return nil, err
		}
	}
	if err := s.store.Reservations().UpdateStatus(ctx, id, statusID); err != nil {
		return nil, err
	}
	updated, err := s.store.Reservations().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.EventReservationStatusChanged, updated)
	return updated, nil
}

// Delete removes a reservation.
func (s *ReservationService) Delete(ctx context.Context, id uint64) error {
	cur, unlock, err := s.lockReservation(ctx, id, 0)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.store.Reservations().Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, queue.EventReservationDeleted, cur)
	return nil
}

// Get returns one reservation.
func (s *ReservationService) Get(ctx context.Context, id uint64) (*model.Reservation, error) {
	return s.store.Reservations().GetByID(ctx, id)
}

// List returns a page of reservations, newest first.
func (s *ReservationService) List(ctx context.Context, q ReservationQuery) (*ReservationPage, error) {
	f := q.ReservationFilter.Normalize()
	if q.ZoneID != 0 {
		spaces, err := s.store.Spaces().ListByZone(ctx, q.ZoneID)
		if err != nil {
			return nil, err
		}
		f.SpaceIDs = make([]uint64, 0, len(spaces))
		for _, sp := range spaces {
			f.SpaceIDs = append(f.SpaceIDs, sp.ID)
		}
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, invalid("to is before from")
	}
	items, total, err := s.store.Reservations().List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &ReservationPage{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// ListForSpaceDay returns every reservation of a space on a date, ordered
// by start time, cancelled ones included.
func (s *ReservationService) ListForSpaceDay(ctx context.Context, spaceID uint64, date string) ([]model.Reservation, error) {
	d, err := schedule.ParseDate(date)
	if err != nil {
		return nil, invalid("date must be YYYY-MM-DD")
	}
	if _, err := s.store.Spaces().GetByID(ctx, spaceID); err != nil {
		return nil, err
	}
	return s.store.Reservations().ListBySpaceAndDate(ctx, spaceID, d)
}

// ConflictCheck is a dry-run request.
type ConflictCheck struct {
	SpaceID   uint64 `json:"space_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	// ExcludeID skips a reservation, for checking an edit of it.
	ExcludeID uint64 `json:"exclude_id"`
}

// CheckConflicts reports the blocking reservations a booking of the given
// slot would collide with, without writing anything.
func (s *ReservationService) CheckConflicts(ctx context.Context, c ConflictCheck) ([]model.Reservation, error) {
	if c.SpaceID == 0 {
		return nil, invalid("space_id is required")
	}
	date, err := schedule.ParseDate(c.Date)
	if err != nil {
		return nil, invalid("date must be YYYY-MM-DD")
	}
	iv, err := schedule.ParseInterval(c.StartTime, c.EndTime)
	if err != nil {
		return nil, invalid("invalid time range: %v", err)
	}
	return s.conflicts(ctx, c.SpaceID, date, iv, c.ExcludeID)
}
