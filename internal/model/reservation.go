package model

import (
    "time"

    "github.com/iliyamo/space-reservation/internal/schedule"
)

// Reservation records a time-bounded booking of a space on a given date by
// a user and/or a responsible.  The booked range is the half-open interval
// [Start, End) on Date.
//
// Fields:
//  ID             – primary key identifier.
//  SpaceID        – space being booked.
//  UserRUT        – user holding the booking (nullable).
//  ResponsibleRUT – responsible for the activity (nullable).
//  StatusID       – reservation status (pending, confirmed, cancelled, finished).
//  Date           – calendar date of the booking.
//  Start, End     – time of day bounds.
//  Notes          – free text, at most 500 characters.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Reservation struct {
    ID             uint64         `json:"id"`                        // reservations.id
    SpaceID        uint64         `json:"space_id"`                  // reservations.space_id
    UserRUT        *string        `json:"user_rut,omitempty"`        // reservations.user_rut (nullable)
    ResponsibleRUT *string        `json:"responsible_rut,omitempty"` // reservations.responsible_rut (nullable)
    StatusID       uint64         `json:"status_id"`                 // reservations.status_id
    Date           schedule.Date  `json:"date"`                      // reservations.reservation_date
    Start          schedule.Clock `json:"start_time"`                // reservations.start_time
    End            schedule.Clock `json:"end_time"`                  // reservations.end_time
    Notes          string         `json:"notes,omitempty"`           // reservations.notes
    CreatedAt      time.Time      `json:"created_at"`                // reservations.created_at
    UpdatedAt      time.Time      `json:"updated_at"`                // reservations.updated_at
}

// MaxNotesLength bounds Reservation.Notes.
const MaxNotesLength = 500

// Interval returns the booked time range.
func (r *Reservation) Interval() schedule.Interval {
    return schedule.Interval{Start: r.Start, End: r.End}
}

// Blocking reports whether the reservation holds its slot.  Cancelled
// reservations stay on record but no longer prevent other bookings.
func (r *Reservation) Blocking() bool {
    return IsBlockingStatus(r.StatusID)
}

// IsBlockingStatus reports whether a reservation in the given status holds
// its slot.
func IsBlockingStatus(statusID uint64) bool {
    return statusID != StatusReservationCancelled
}
