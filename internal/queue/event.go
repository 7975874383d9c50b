// Package queue defines the reservation events exchanged over the message
// broker together with their publishers and the log consumer.
package queue

import (
    "time"

    "github.com/iliyamo/space-reservation/internal/model"
)

// Event types.
const (
    EventReservationCreated       = "reservation.created"
    EventReservationUpdated       = "reservation.updated"
    EventReservationStatusChanged = "reservation.status_changed"
    EventReservationDeleted       = "reservation.deleted"
)

// ReservationEvent is published after every successful reservation write.
// It carries enough of the reservation for consumers to log it or refresh
// occupancy without reading the store.
type ReservationEvent struct {
    Type          string `json:"type"`
    ReservationID uint64 `json:"reservation_id"`
    SpaceID       uint64 `json:"space_id"`
    Date          string `json:"date"`
    StartTime     string `json:"start_time"`
    EndTime       string `json:"end_time"`
    StatusID      uint64 `json:"status_id"`
    OccurredAt    string `json:"occurred_at"`
}

// NewReservationEvent builds an event of the given type for r.
func NewReservationEvent(eventType string, r *model.Reservation, at time.Time) ReservationEvent {
    return ReservationEvent{
        Type:          eventType,
        ReservationID: r.ID,
        SpaceID:       r.SpaceID,
        Date:          r.Date.String(),
        StartTime:     r.Start.String(),
        EndTime:       r.End.String(),
        StatusID:      r.StatusID,
        OccurredAt:    at.UTC().Format(time.RFC3339),
    }
}
