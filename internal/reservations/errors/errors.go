package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrInvalidID = errors.New("invalid reservation ID format")

	ErrRoomNotFound = errors.New("room not found")

	ErrLockHeld = errors.New("reservation slot is locked by another request")
)
