package scheduling

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidWindow = errors.New("end time must be after start time")

	ErrTooShort = errors.New("reservation is shorter than the minimum duration")

	ErrTooLong = errors.New("reservation is longer than the maximum duration")

	ErrPastStart = errors.New("cannot create reservation in the past")

	ErrNoOccurrences = errors.New("no valid occurrences found for the recurrence pattern")

	ErrConflict = errors.New("time slot is already reserved")

	ErrInvalidRule = errors.New("invalid recurrence rule")
)

// ConflictError reports the reservation that blocks a window. OccurrenceIndex is the
// zero-based position of the blocked occurrence inside a series, or 0 for single bookings.
type ConflictError struct {
	ReservationID   string
	OccurrenceIndex int
	Window          Window
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: occurrence %d (%s - %s) overlaps reservation %s",
		ErrConflict.Error(),
		e.OccurrenceIndex,
		e.Window.Start.Format(time.RFC3339),
		e.Window.End.Format(time.RFC3339),
		e.ReservationID,
	)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
