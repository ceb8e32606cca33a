package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	reservationserrors "roomreserve/internal/reservations/errors"
	"roomreserve/internal/reservations/validator"
	mongotx "roomreserve/pkg/db/mongo"
	apperrors "roomreserve/pkg/errors"
	"roomreserve/pkg/scheduling"
)

// schedulingError maps window, rule and conflict failures onto API errors.
func schedulingError(err error) *apperrors.AppError {
	var conflictErr *scheduling.ConflictError
	switch {
	case errors.As(err, &conflictErr):
		return apperrors.Conflict("Time slot is already reserved").WithDetails(map[string]any{
			"reservation_id":   conflictErr.ReservationID,
			"occurrence_index": conflictErr.OccurrenceIndex,
			"start_time":       conflictErr.Window.Start.Format(time.RFC3339),
			"end_time":         conflictErr.Window.End.Format(time.RFC3339),
		})
	case errors.Is(err, scheduling.ErrInvalidWindow):
		return apperrors.InvalidWindow("End time must be after start time")
	case errors.Is(err, scheduling.ErrTooShort):
		return apperrors.TooShort("Reservation is shorter than the minimum duration").
			WithDetails(map[string]any{"error": err.Error()})
	case errors.Is(err, scheduling.ErrTooLong):
		return apperrors.TooLong("Reservation is longer than the maximum duration").
			WithDetails(map[string]any{"error": err.Error()})
	case errors.Is(err, scheduling.ErrPastStart):
		return apperrors.PastStart("Cannot create reservation in the past")
	case errors.Is(err, scheduling.ErrNoOccurrences):
		return apperrors.NoOccurrences("No valid occurrences found for the recurrence pattern")
	case errors.Is(err, scheduling.ErrInvalidRule):
		return apperrors.Validation("Invalid recurrence rule", map[string]any{"recurrence": err.Error()})
	}
	return apperrors.AsAppError(err)
}

func lookupError(resource, id string, err error) *apperrors.AppError {
	switch {
	case errors.Is(err, reservationserrors.ErrNotFound), errors.Is(err, reservationserrors.ErrRoomNotFound):
		return apperrors.NotFoundWithID(resource, id)
	case errors.Is(err, reservationserrors.ErrInvalidID):
		return apperrors.InvalidInput(fmt.Sprintf("Invalid %s ID format", strings.ToLower(resource)))
	}
	return apperrors.Internal(fmt.Sprintf("Failed to retrieve %s", strings.ToLower(resource)), err)
}

func validationError(message string, err error) *apperrors.AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}

// transactionError keeps API errors raised inside a transaction and reports exhausted
// write-conflict retries as a slot conflict.
func transactionError(err error) *apperrors.AppError {
	if mongotx.IsWriteConflict(err) {
		return apperrors.Conflict("Time slot was reserved concurrently, please retry")
	}
	return apperrors.AsAppError(err)
}
