// Package service holds the business rules that sit between the HTTP
// handlers and the storage backends: reservation validation and conflict
// detection, the dashboard snapshot and the scheduled maintenance jobs.
package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/space-reservation/internal/model"
)

// ErrValidation wraps every input rejected before reaching the store.
var ErrValidation = errors.New("validation failed")

// ErrOverlap is matched by *OverlapError.
var ErrOverlap = errors.New("reservation overlaps an existing booking")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// OverlapError reports the blocking reservations a write collided with.
type OverlapError struct {
	Conflicts []model.Reservation
}

func (e *OverlapError) Error() string {
	slots := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		slots = append(slots, fmt.Sprintf("#%d %s", c.ID, c.Interval()))
	}
	return ErrOverlap.Error() + ": " + strings.Join(slots, ", ")
}

func (e *OverlapError) Is(target error) bool { return target == ErrOverlap }
