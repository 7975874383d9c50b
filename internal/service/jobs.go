package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/iliyamo/space-reservation/internal/model"
	"github.com/iliyamo/space-reservation/internal/queue"
	"github.com/iliyamo/space-reservation/internal/repository"
	"github.com/iliyamo/space-reservation/internal/schedule"
)

// JobService runs the periodic maintenance tasks.
type JobService struct {
	store  repository.Store
	events queue.Publisher
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time
}

func NewJobService(store repository.Store, events queue.Publisher, logger *slog.Logger, loc *time.Location) *JobService {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	return &JobService{store: store, events: events, logger: logger, loc: loc, now: time.Now}
}

// FinishPastReservations marks confirmed reservations whose slot has
// ended as finished and returns how many were updated.
func (j *JobService) FinishPastReservations(ctx context.Context) (int, error) {
	now := j.now().In(j.loc)
	today := schedule.DateOf(now)
	clock := schedule.ClockOf(now)

	confirmed, _, err := j.store.Reservations().List(ctx, repository.ReservationFilter{
		StatusID: model.StatusReservationConfirmed,
		To:       &today,
		Limit:    repository.Unlimited,
	})
	if err != nil {
		return 0, err
	}

	finished := 0
	for i := range confirmed {
		r := &confirmed[i]
		if r.Date == today && r.End > clock {
			continue
		}
		if err := j.store.Reservations().UpdateStatus(ctx, r.ID, model.StatusReservationFinished); err != nil {
			j.logger.Error("finish reservation failed", "id", r.ID, "err", err)
			continue
		}
		finished++
		r.StatusID = model.StatusReservationFinished
		if j.events != nil {
			ev := queue.NewReservationEvent(queue.EventReservationStatusChanged, r, now)
			if err := j.events.Publish(ctx, ev); err != nil {
				j.logger.Warn("publish reservation event failed", "id", r.ID, "err", err)
			}
		}
	}
	if finished > 0 {
		j.logger.Info("finished past reservations", "count", finished)
	}
	return finished, nil
}
